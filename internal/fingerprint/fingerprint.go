// Package fingerprint derives the content hash embedded in generated code.
// Two definitions share a fingerprint exactly when their constants, field
// names, field order and transitive field types all match.
package fingerprint

import (
	"context"
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/msgforge/msgforge/internal/schema"
)

// Nesting depth cap for embedded records. Reference cycles are malformed
// input and surface as an error instead of unbounded recursion.
const maxEmbedDepth = 32

// Fingerprint hashes the definition content of s: constant lines first,
// then one line per field in declaration order. Record references are
// replaced by the fingerprint of their own definition, so a change in an
// embedded type changes every type embedding it. An unresolvable reference
// fails the computation and the caller must abort the file.
func Fingerprint(ctx context.Context, s schema.Schema, reg *schema.Registry) (string, error) {
	text, err := canonicalText(ctx, s, reg, 0)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %s: %w", s.FullName(), err)
	}
	return hash(text), nil
}

func hash(text string) string {
	h1, h2 := murmur3.Sum128([]byte(text))
	return fmt.Sprintf("%016x%016x", h1, h2)
}

func canonicalText(ctx context.Context, s schema.Schema, reg *schema.Registry, depth int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if depth > maxEmbedDepth {
		return "", fmt.Errorf("embedded records nest deeper than %d", maxEmbedDepth)
	}

	var b strings.Builder
	for _, c := range s.Constants {
		fmt.Fprintf(&b, "%s %s=%s\n", c.Type.String(), c.Name, c.Value)
	}
	for _, f := range s.Fields {
		spelling, err := typeSpelling(ctx, f.Type, s.Pkg, reg, depth)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", f.Name, err)
		}
		fmt.Fprintf(&b, "%s %s\n", spelling, f.Name)
	}
	return b.String(), nil
}

func typeSpelling(ctx context.Context, t schema.FieldType, fromPkg string, reg *schema.Registry, depth int) (string, error) {
	switch {
	case t.Array && t.Len > 0:
		elem, err := typeSpelling(ctx, *t.Elem, fromPkg, reg, depth)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%d]", elem, t.Len), nil
	case t.Array:
		elem, err := typeSpelling(ctx, *t.Elem, fromPkg, reg, depth)
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case t.Record:
		dep, ok := reg.Lookup(t.Name, fromPkg)
		if !ok {
			return "", fmt.Errorf("unresolved reference %q from %s", t.Name, fromPkg)
		}
		text, err := canonicalText(ctx, dep, reg, depth+1)
		if err != nil {
			return "", err
		}
		return hash(text), nil
	default:
		if t.Kind == schema.KindInvalid {
			return "", fmt.Errorf("invalid scalar kind")
		}
		return t.Kind.String(), nil
	}
}
