package gen

import (
	"fmt"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
	"github.com/msgforge/msgforge/internal/typeinfo"
)

// emitCodec writes the streaming codec: Serialize and Deserialize visit the
// fields in declaration order, which is what fixes the wire format. Header
// first schemas additionally get the framed SerializeStamped entry point;
// framed decode stays in the support library, it is not regenerated per
// type.
func emitCodec(b *strings.Builder, s schema.Schema, typeName string, infos []typeinfo.Info) {
	scratch := needsScratch(infos)

	fmt.Fprintf(b, "// Serialize writes m to w in wire order.\n")
	fmt.Fprintf(b, "func (m *%s) Serialize(w io.Writer) error {\n", typeName)
	if scratch {
		b.WriteString("\tvar buf [8]byte\n")
	}
	for i, f := range s.Fields {
		fmt.Fprintf(b, infos[i].EncodeTmpl, fieldRef(f))
	}
	b.WriteString("\treturn nil\n}\n\n")

	fmt.Fprintf(b, "// Deserialize reads m from r, overwriting every field.\n")
	fmt.Fprintf(b, "func (m *%s) Deserialize(r io.Reader) error {\n", typeName)
	if scratch {
		b.WriteString("\tvar buf [8]byte\n")
	}
	for i, f := range s.Fields {
		fmt.Fprintf(b, infos[i].DecodeTmpl, fieldRef(f))
	}
	b.WriteString("\treturn nil\n}\n\n")

	if s.HeaderFirst() {
		fmt.Fprintf(b, "// SerializeStamped writes m as one length-prefixed frame so transport\n")
		fmt.Fprintf(b, "// code can relay it without knowing the concrete type. The framed\n")
		fmt.Fprintf(b, "// decode counterpart is msg.ReadStamped.\n")
		fmt.Fprintf(b, "func (m *%s) SerializeStamped(w io.Writer) error {\n", typeName)
		b.WriteString("\treturn msg.WriteStamped(w, m)\n}\n\n")
	}
}
