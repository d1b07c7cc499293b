// Package parser reads message definition files into the schema model
// shared with the type oracle and the generator.
//
// The format is line oriented: one "type name" field per line, constants
// as "type NAME=value", comments from '#' to end of line. String constant
// values run to the end of the raw line, so a '#' inside one is data, not
// a comment.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
)

// ParseError is a definition error with its source location.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// Parse reads one definition from r. src names the input in errors; pkg
// and name place the definition and come from the file path, not from the
// text itself.
func Parse(r io.Reader, src, pkg, name string) (schema.Schema, error) {
	s := schema.Schema{Pkg: pkg, Name: name}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if err := parseLine(&s, scanner.Text(), src, line); err != nil {
			return schema.Schema{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return schema.Schema{}, fmt.Errorf("parser: %s: %w", src, err)
	}
	return s, nil
}

func parseLine(s *schema.Schema, raw, src string, line int) error {
	clean := raw
	if i := strings.IndexByte(clean, '#'); i >= 0 {
		clean = clean[:i]
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil
	}

	if strings.IndexByte(clean, '=') >= 0 {
		c, err := parseConstant(raw, clean)
		if err != nil {
			return &ParseError{File: src, Line: line, Message: err.Error()}
		}
		s.Constants = append(s.Constants, c)
		return nil
	}

	parts := strings.Fields(clean)
	if len(parts) != 2 {
		return &ParseError{File: src, Line: line,
			Message: fmt.Sprintf("want %q, got %q", "type name", clean)}
	}

	t, err := parseType(parts[0])
	if err != nil {
		return &ParseError{File: src, Line: line, Message: err.Error()}
	}
	if !isIdent(parts[1]) {
		return &ParseError{File: src, Line: line,
			Message: fmt.Sprintf("invalid field name %q", parts[1])}
	}

	s.Fields = append(s.Fields, schema.Field{Name: parts[1], Type: t})
	return nil
}

// parseType parses a field type spelling: a scalar, a record reference
// (bare or package qualified), or either wrapped in array suffixes. The
// last suffix is the outermost array.
func parseType(spelling string) (schema.FieldType, error) {
	if strings.HasSuffix(spelling, "]") {
		open := strings.LastIndexByte(spelling, '[')
		if open < 0 {
			return schema.FieldType{}, fmt.Errorf("invalid type %q", spelling)
		}
		elem, err := parseType(spelling[:open])
		if err != nil {
			return schema.FieldType{}, err
		}
		dim := spelling[open+1 : len(spelling)-1]
		if dim == "" {
			return schema.VarArray(elem), nil
		}
		n, err := strconv.Atoi(dim)
		if err != nil || n <= 0 {
			return schema.FieldType{}, fmt.Errorf("invalid array length %q in %q", dim, spelling)
		}
		return schema.FixedArray(elem, n), nil
	}

	if k := schema.ScalarKind(spelling); k != schema.KindInvalid {
		return schema.Scalar(k), nil
	}

	pkg, base := schema.SplitRef(spelling)
	if pkg != "" && !isPkgName(pkg) {
		return schema.FieldType{}, fmt.Errorf("invalid package name %q in %q", pkg, spelling)
	}
	if !isIdent(base) {
		return schema.FieldType{}, fmt.Errorf("invalid type %q", spelling)
	}
	return schema.RecordRef(spelling), nil
}

// parseConstant parses "type NAME=value". clean is the comment-stripped
// line, known to contain '='; raw is needed because string values run to
// the end of the original line.
func parseConstant(raw, clean string) (schema.Constant, error) {
	eq := strings.IndexByte(clean, '=')
	lhs := strings.Fields(clean[:eq])
	if len(lhs) != 2 {
		return schema.Constant{}, fmt.Errorf("want %q, got %q", "type NAME=value", clean)
	}
	spelling, name := lhs[0], lhs[1]

	kind := schema.ScalarKind(spelling)
	if kind == schema.KindInvalid {
		return schema.Constant{}, fmt.Errorf("constants must use scalar types, got %q", spelling)
	}
	if kind == schema.KindTime || kind == schema.KindDuration {
		return schema.Constant{}, fmt.Errorf("%s constants are not supported", spelling)
	}
	if !isIdent(name) {
		return schema.Constant{}, fmt.Errorf("invalid constant name %q", name)
	}

	var value string
	if kind == schema.KindString {
		value = strings.TrimSpace(raw[strings.IndexByte(raw, '=')+1:])
	} else {
		value = strings.TrimSpace(clean[eq+1:])
		if err := checkValue(kind, value); err != nil {
			return schema.Constant{}, err
		}
	}

	return schema.Constant{Name: name, Type: schema.Scalar(kind), Value: value}, nil
}

func checkValue(kind schema.Kind, value string) error {
	switch kind {
	case schema.KindBool:
		switch strings.ToLower(value) {
		case "0", "1", "true", "false":
			return nil
		}
		return fmt.Errorf("invalid bool value %q", value)
	case schema.KindFloat32, schema.KindFloat64:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid %s value %q", kind, value)
		}
	case schema.KindInt8, schema.KindChar:
		return checkInt(kind, value, 8)
	case schema.KindInt16:
		return checkInt(kind, value, 16)
	case schema.KindInt32:
		return checkInt(kind, value, 32)
	case schema.KindInt64:
		return checkInt(kind, value, 64)
	case schema.KindUint8, schema.KindByte:
		return checkUint(kind, value, 8)
	case schema.KindUint16:
		return checkUint(kind, value, 16)
	case schema.KindUint32:
		return checkUint(kind, value, 32)
	case schema.KindUint64:
		return checkUint(kind, value, 64)
	}
	return nil
}

func checkInt(kind schema.Kind, value string, bits int) error {
	if _, err := strconv.ParseInt(value, 10, bits); err != nil {
		return fmt.Errorf("invalid %s value %q", kind, value)
	}
	return nil
}

func checkUint(kind schema.Kind, value string, bits int) error {
	if _, err := strconv.ParseUint(value, 10, bits); err != nil {
		return fmt.Errorf("invalid %s value %q", kind, value)
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// isPkgName accepts the lower_snake package convention definition trees use.
func isPkgName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
