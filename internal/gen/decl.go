package gen

import (
	"fmt"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
	"github.com/msgforge/msgforge/internal/typeinfo"
)

// emitDeclaration writes the record type: one member per schema field in
// declaration order, type column padded the way gofmt lays it out.
func emitDeclaration(b *strings.Builder, s schema.Schema, typeName string, infos []typeinfo.Info) {
	fmt.Fprintf(b, "// %s is the %s message.\n", typeName, s.FullName())
	if len(s.Fields) == 0 {
		fmt.Fprintf(b, "type %s struct{}\n\n", typeName)
		return
	}

	width := 0
	for _, f := range s.Fields {
		if n := len(typeinfo.UpperFirst(f.Name)); n > width {
			width = n
		}
	}

	fmt.Fprintf(b, "type %s struct {\n", typeName)
	for i, f := range s.Fields {
		fmt.Fprintf(b, "\t%-*s %s\n", width, typeinfo.UpperFirst(f.Name), infos[i].Spelling)
	}
	b.WriteString("}\n\n")
}
