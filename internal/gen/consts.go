package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
)

// emitIdentity writes the bindings generic code uses to look a record's
// schema identity up from a value of it.
func emitIdentity(b *strings.Builder, s schema.Schema, typeName, fingerprint string) {
	fmt.Fprintf(b, "// Type returns the package-qualified message name.\n")
	fmt.Fprintf(b, "func (m *%s) Type() string {\n\treturn %q\n}\n\n", typeName, s.FullName())

	fmt.Fprintf(b, "// Fingerprint returns the content hash of the message definition.\n")
	fmt.Fprintf(b, "func (m *%s) Fingerprint() string {\n\treturn %q\n}\n\n", typeName, fingerprint)
}

// emitConstants writes one typed constant binding per declared constant.
// Values arrive pre-validated from the frontend and are carried through
// without reinterpretation.
func (g *Generator) emitConstants(b *strings.Builder, s schema.Schema) error {
	if len(s.Constants) == 0 {
		return nil
	}

	nameW, typeW := 0, 0
	spellings := make([]string, len(s.Constants))
	values := make([]string, len(s.Constants))
	for i, c := range s.Constants {
		info, err := g.oracle.Resolve(c.Type, s.Pkg)
		if err != nil {
			return fmt.Errorf("gen: constant %s of %s: %w", c.Name, s.FullName(), err)
		}
		spellings[i] = info.Spelling
		values[i] = constValue(c)
		if len(c.Name) > nameW {
			nameW = len(c.Name)
		}
		if len(info.Spelling) > typeW {
			typeW = len(info.Spelling)
		}
	}

	fmt.Fprintf(b, "// Constants declared by %s.\n", s.FullName())
	b.WriteString("const (\n")
	for i, c := range s.Constants {
		fmt.Fprintf(b, "\t%-*s %-*s = %s\n", nameW, c.Name, typeW, spellings[i], values[i])
	}
	b.WriteString(")\n\n")
	return nil
}

// constValue renders a constant's literal. Numeric literals pass through
// verbatim; strings gain Go quoting and booleans are normalized from the
// 0/1 form definitions use.
func constValue(c schema.Constant) string {
	switch c.Type.Kind {
	case schema.KindString:
		return strconv.Quote(c.Value)
	case schema.KindBool:
		switch strings.ToLower(strings.TrimSpace(c.Value)) {
		case "1", "true":
			return "true"
		default:
			return "false"
		}
	default:
		return c.Value
	}
}
