package gen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
	"github.com/msgforge/msgforge/internal/typeinfo"
)

// collectImports computes the import set of a generated file: the framework
// import plus, per field type, a hard-coded set keyed on the scalar kind and
// the typed reference for records. Duplicates collapse; two fields of the
// same kind contribute one entry.
func (g *Generator) collectImports(s schema.Schema) ([]string, error) {
	deps := map[string]bool{"io": true}
	for _, f := range s.Fields {
		if err := g.addTypeDeps(deps, f.Type, s.Pkg); err != nil {
			return nil, fmt.Errorf("gen: field %s of %s: %w", f.Name, s.FullName(), err)
		}
	}
	if s.HeaderFirst() {
		// The header accessors and the stamped entry point reference the
		// support library even when no field spelling does.
		deps[typeinfo.RuntimePath] = true
	}

	out := make([]string, 0, len(deps))
	for p := range deps {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// addTypeDeps accumulates the imports one field type needs, unwrapping
// arrays down to their element.
func (g *Generator) addTypeDeps(deps map[string]bool, t schema.FieldType, fromPkg string) error {
	switch {
	case t.Array:
		// Variable arrays read and write a length prefix. Fixed arrays
		// defer entirely to their element codec.
		if t.Len == 0 {
			deps["encoding/binary"] = true
		}
		return g.addTypeDeps(deps, *t.Elem, fromPkg)
	case t.Record:
		if t.IsHeader() {
			deps[typeinfo.StdmsgsPath] = true
			return nil
		}
		if ref := g.oracle.ResolveRef(t.Name, fromPkg); ref.Path != "" {
			deps[ref.Path] = true
		}
		return nil
	}

	switch t.Kind {
	case schema.KindBool, schema.KindInt8, schema.KindUint8, schema.KindByte, schema.KindChar:
		// Single-byte codecs move bytes directly.
	case schema.KindInt16, schema.KindUint16, schema.KindInt32, schema.KindUint32,
		schema.KindInt64, schema.KindUint64, schema.KindString:
		deps["encoding/binary"] = true
	case schema.KindFloat32, schema.KindFloat64:
		deps["encoding/binary"] = true
		deps["math"] = true
	case schema.KindTime, schema.KindDuration:
		deps["encoding/binary"] = true
		deps[typeinfo.RuntimePath] = true
	default:
		return fmt.Errorf("unknown scalar kind %d", t.Kind)
	}
	return nil
}

// renderImports renders the import block in gofmt form: standard library
// group first, then everything else, each group sorted.
func renderImports(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	var std, ext []string
	for _, p := range paths {
		if strings.Contains(strings.SplitN(p, "/", 2)[0], ".") {
			ext = append(ext, p)
		} else {
			std = append(std, p)
		}
	}
	sort.Strings(std)
	sort.Strings(ext)

	if len(std)+len(ext) == 1 {
		return fmt.Sprintf("import %q\n\n", paths[0])
	}

	var b strings.Builder
	b.WriteString("import (\n")
	for _, p := range std {
		fmt.Fprintf(&b, "\t%q\n", p)
	}
	if len(std) > 0 && len(ext) > 0 {
		b.WriteString("\n")
	}
	for _, p := range ext {
		fmt.Fprintf(&b, "\t%q\n", p)
	}
	b.WriteString(")\n\n")
	return b.String()
}

// needsScratch reports whether any field's streaming codec references the
// scratch buffer, which decides whether the codec prolog declares it.
func needsScratch(infos []typeinfo.Info) bool {
	for _, info := range infos {
		if info.Scratch {
			return true
		}
	}
	return false
}
