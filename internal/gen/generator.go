// Package gen renders parsed message schemas into Go source files: record
// declaration, streaming codec, optional fixed-layout codec, header
// accessors, identity bindings, and constants, concatenated in a fixed
// order so regeneration of an unchanged schema is byte identical.
package gen

import (
	"fmt"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
	"github.com/msgforge/msgforge/internal/typeinfo"
)

// Version identifies the emitted output format. It participates in cache
// keys, so bump it whenever generated source changes for an unchanged schema.
const Version = "1"

// Module is one generated source artifact.
type Module struct {
	Path    string   // output-relative file path, "geometry_msgs/twist.go"
	Name    string   // declared Go type name
	Source  []byte   // complete file content
	Imports []string // import paths the file depends on
}

// Generator renders schemas against a shared registry. It holds no mutable
// state, so one Generator may serve concurrent Generate calls.
type Generator struct {
	oracle *typeinfo.Oracle
}

// New creates a generator over reg. importRoot anchors cross-package
// imports in generated files; empty selects the default root.
func New(reg *schema.Registry, importRoot string) *Generator {
	return &Generator{oracle: typeinfo.New(reg, importRoot)}
}

// Generate renders one schema. fingerprint is the schema's content hash,
// computed by the caller and embedded verbatim. Any resolution failure
// aborts the whole file; no partial source is returned.
func (g *Generator) Generate(s schema.Schema, fingerprint string) (Module, error) {
	typeName := typeinfo.UpperFirst(s.Name)

	infos := make([]typeinfo.Info, len(s.Fields))
	for i, f := range s.Fields {
		info, err := g.oracle.Resolve(f.Type, s.Pkg)
		if err != nil {
			return Module{}, fmt.Errorf("gen: field %s of %s: %w", f.Name, s.FullName(), err)
		}
		infos[i] = info
	}

	flat, err := g.oracle.IsFlat(s)
	if err != nil {
		return Module{}, fmt.Errorf("gen: flatness of %s: %w", s.FullName(), err)
	}

	imports, err := g.collectImports(s)
	if err != nil {
		return Module{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by msgforge from %s/%s.msg. DO NOT EDIT.\n\n", s.Pkg, s.Name)
	fmt.Fprintf(&b, "package %s\n\n", s.Pkg)
	b.WriteString(renderImports(imports))

	emitDeclaration(&b, s, typeName, infos)
	emitCodec(&b, s, typeName, infos)
	if flat {
		emitFixed(&b, s, typeName, infos)
	}
	if s.HeaderFirst() {
		emitHeaderTraits(&b, s, typeName)
	}
	emitIdentity(&b, s, typeName, fingerprint)
	if err := g.emitConstants(&b, s); err != nil {
		return Module{}, err
	}

	return Module{
		Path:    s.Pkg + "/" + fileBase(s.Name) + ".go",
		Name:    typeName,
		Source:  []byte(strings.TrimRight(b.String(), "\n") + "\n"),
		Imports: imports,
	}, nil
}

// fieldRef returns the generated expression for one schema field.
func fieldRef(f schema.Field) string {
	return "m." + typeinfo.UpperFirst(f.Name)
}

// fileBase converts a message name to its snake_case file stem:
// "Vector3" -> "vector3", "BatteryState" -> "battery_state".
func fileBase(name string) string {
	var out []byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			prevLower := i > 0 && isLowerAlnum(name[i-1])
			nextLower := i+1 < len(name) && name[i+1] >= 'a' && name[i+1] <= 'z'
			if i > 0 && (prevLower || nextLower) {
				out = append(out, '_')
			}
			c = c - 'A' + 'a'
		}
		out = append(out, c)
	}
	return string(out)
}

func isLowerAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
