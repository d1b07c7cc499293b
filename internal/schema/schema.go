// Package schema defines the message definition model shared by the parser,
// the type oracle, and the code generator.
package schema

import "fmt"

// Kind identifies a scalar field type.
type Kind int

const (
	KindInvalid Kind = iota

	// Single byte
	KindBool
	KindInt8
	KindUint8
	KindByte // legacy alias for uint8; spelling preserved in declarations
	KindChar // legacy alias for int8; spelling preserved in declarations

	// Multi-byte integers
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64

	// Floating point
	KindFloat32
	KindFloat64

	// Variable width
	KindString

	// Temporal, 2x32 bits on the wire
	KindTime
	KindDuration
)

// String returns the definition-level spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindUint8:
		return "uint8"
	case KindByte:
		return "byte"
	case KindChar:
		return "char"
	case KindInt16:
		return "int16"
	case KindUint16:
		return "uint16"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	default:
		return "invalid"
	}
}

// scalarKinds maps definition-level spellings to kinds.
var scalarKinds = map[string]Kind{
	"bool":     KindBool,
	"int8":     KindInt8,
	"uint8":    KindUint8,
	"byte":     KindByte,
	"char":     KindChar,
	"int16":    KindInt16,
	"uint16":   KindUint16,
	"int32":    KindInt32,
	"uint32":   KindUint32,
	"int64":    KindInt64,
	"uint64":   KindUint64,
	"float32":  KindFloat32,
	"float64":  KindFloat64,
	"string":   KindString,
	"time":     KindTime,
	"duration": KindDuration,
}

// ScalarKind resolves a definition-level type spelling to its scalar kind.
// Returns KindInvalid when the spelling is not a builtin scalar.
func ScalarKind(spelling string) Kind {
	return scalarKinds[spelling]
}

// FieldType describes the type of a message field. Exactly one of the three
// shapes is populated: a scalar kind, an array over an element type, or a
// named record reference.
type FieldType struct {
	Kind Kind

	// Array shape
	Array bool
	Len   int // element count for fixed arrays, 0 when variable length
	Elem  *FieldType

	// Record shape: unqualified ("Vector3") or package-qualified
	// ("geometry_msgs/Vector3") message name.
	Record bool
	Name   string
}

// Scalar returns a scalar field type.
func Scalar(k Kind) FieldType {
	return FieldType{Kind: k}
}

// RecordRef returns a named record reference.
func RecordRef(name string) FieldType {
	return FieldType{Record: true, Name: name}
}

// VarArray returns a variable-length array over elem.
func VarArray(elem FieldType) FieldType {
	return FieldType{Array: true, Elem: &elem}
}

// FixedArray returns a fixed-length array of n elements of elem.
func FixedArray(elem FieldType, n int) FieldType {
	return FieldType{Array: true, Len: n, Elem: &elem}
}

// String returns the canonical definition-level spelling of the type.
// "uint16", "float64[9]", "geometry_msgs/Vector3[]".
func (t FieldType) String() string {
	switch {
	case t.Array && t.Len > 0:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Len)
	case t.Array:
		return t.Elem.String() + "[]"
	case t.Record:
		return t.Name
	default:
		return t.Kind.String()
	}
}

// IsHeader reports whether t is a reference to the canonical header record.
// Both the bare "Header" spelling and the qualified one resolve to it.
func (t FieldType) IsHeader() bool {
	return t.Record && (t.Name == "Header" || t.Name == "std_msgs/Header")
}

// Field is a single named slot in a message definition. Order among fields
// is significant and is preserved end to end.
type Field struct {
	Name string
	Type FieldType
}

// Constant is a symbolic value declared alongside the fields. The value is
// carried as literal text and reproduced verbatim in generated code.
type Constant struct {
	Name  string
	Type  FieldType // scalar kinds only
	Value string
}

// Schema is one parsed message definition.
type Schema struct {
	Pkg       string
	Name      string
	Fields    []Field
	Constants []Constant
}

// FullName returns the package-qualified message name, "geometry_msgs/Twist".
func (s Schema) FullName() string {
	return s.Pkg + "/" + s.Name
}

// HeaderFirst reports whether the first field is the canonical header. The
// generator keys the stamped entry point and the header accessors on it.
func (s Schema) HeaderFirst() bool {
	return len(s.Fields) > 0 && s.Fields[0].Type.IsHeader()
}

// SplitRef splits a possibly qualified record reference into its package and
// base name. The package is empty for bare references.
func SplitRef(ref string) (pkg, name string) {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[:i], ref[i+1:]
		}
	}
	return "", ref
}
