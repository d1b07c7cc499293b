package gen

import (
	"fmt"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
	"github.com/msgforge/msgforge/internal/typeinfo"
)

// emitHeaderTraits writes the four bindings every header-first record
// shares, so stream-sequencing code can read and restamp any of them
// through msg.HeaderMessage without a per-type branch.
func emitHeaderTraits(b *strings.Builder, s schema.Schema, typeName string) {
	ref := fieldRef(s.Fields[0])

	fmt.Fprintf(b, "// Seq returns the header sequence number.\n")
	fmt.Fprintf(b, "func (m *%s) Seq() uint32 {\n\treturn %s.Seq\n}\n\n", typeName, ref)

	fmt.Fprintf(b, "// FrameID returns the header frame identifier.\n")
	fmt.Fprintf(b, "func (m *%s) FrameID() string {\n\treturn %s.Frame_id\n}\n\n", typeName, ref)

	fmt.Fprintf(b, "// Stamp returns the header timestamp.\n")
	fmt.Fprintf(b, "func (m *%s) Stamp() msg.Time {\n\treturn %s.Stamp\n}\n\n", typeName, ref)

	fmt.Fprintf(b, "// WithSeq returns a copy of m with only the header sequence number\n")
	fmt.Fprintf(b, "// replaced. The receiver is not modified.\n")
	fmt.Fprintf(b, "func (m *%s) WithSeq(seq uint32) msg.HeaderMessage {\n", typeName)
	b.WriteString("\tout := *m\n")
	fmt.Fprintf(b, "\tout.%s.Seq = seq\n", typeinfo.UpperFirst(s.Fields[0].Name))
	b.WriteString("\treturn &out\n}\n\n")
}
