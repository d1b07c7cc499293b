package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
	"github.com/msgforge/msgforge/internal/typeinfo"
)

// emitFixed writes the fixed-layout block: the size and alignment constants
// and the raw-buffer codec pair. Callers invoke it only for flat schemas,
// so every info carries a nonnegative size and poke and peek templates.
// Field sizes are trusted as given; no re-verification happens here.
func emitFixed(b *strings.Builder, s schema.Schema, typeName string, infos []typeinfo.Info) {
	fmt.Fprintf(b, "// Fixed wire layout of %s. The alignment constant is a fixed policy\n", typeName)
	fmt.Fprintf(b, "// value, not derived from field composition.\n")
	b.WriteString("const (\n")
	switch len(s.Fields) {
	case 0:
		fmt.Fprintf(b, "\t%sFixedSize  = 0\n", typeName)
	case 1:
		fmt.Fprintf(b, "\t%sFixedSize  = %d // %s\n", typeName, infos[0].Size, s.Fields[0].Name)
	default:
		fmt.Fprintf(b, "\t%sFixedSize = %d + // %s\n", typeName, infos[0].Size, s.Fields[0].Name)
		for i := 1; i < len(s.Fields)-1; i++ {
			fmt.Fprintf(b, "\t\t%d + // %s\n", infos[i].Size, s.Fields[i].Name)
		}
		last := len(s.Fields) - 1
		fmt.Fprintf(b, "\t\t%d // %s\n", infos[last].Size, s.Fields[last].Name)
	}
	fmt.Fprintf(b, "\t%sFixedAlign = 8\n", typeName)
	b.WriteString(")\n\n")

	fmt.Fprintf(b, "// MarshalFixed writes m into the leading %sFixedSize bytes of b.\n", typeName)
	fmt.Fprintf(b, "func (m *%s) MarshalFixed(b []byte) error {\n", typeName)
	fmt.Fprintf(b, "\tif len(b) < %sFixedSize {\n\t\treturn io.ErrShortBuffer\n\t}\n", typeName)
	off := 0
	for i, f := range s.Fields {
		fmt.Fprintf(b, infos[i].PokeTmpl, fieldRef(f), strconv.Itoa(off))
		off += infos[i].Size
	}
	b.WriteString("\treturn nil\n}\n\n")

	fmt.Fprintf(b, "// UnmarshalFixed reads m from the leading %sFixedSize bytes of b.\n", typeName)
	fmt.Fprintf(b, "func (m *%s) UnmarshalFixed(b []byte) error {\n", typeName)
	fmt.Fprintf(b, "\tif len(b) < %sFixedSize {\n\t\treturn io.ErrUnexpectedEOF\n\t}\n", typeName)
	off = 0
	for i, f := range s.Fields {
		fmt.Fprintf(b, infos[i].PeekTmpl, fieldRef(f), strconv.Itoa(off))
		off += infos[i].Size
	}
	b.WriteString("\treturn nil\n}\n\n")
}
