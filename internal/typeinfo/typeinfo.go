// Package typeinfo is the type fact oracle. For every field type a schema
// can declare it produces the generated Go spelling, per-field codec
// statement templates, the fixed wire size, and the flatness fact the
// emitters key on. FieldType is a closed variant and every mapping here is
// an exhaustive branch over it, so the supported type set is statically
// enumerable.
package typeinfo

import (
	"fmt"
	"strings"

	"github.com/msgforge/msgforge/internal/schema"
)

// Import paths of the support packages linked by generated code.
const (
	RuntimePath = "github.com/msgforge/msgforge/pkg/msg"
	StdmsgsPath = "github.com/msgforge/msgforge/pkg/stdmsgs"
)

// DefaultImportRoot anchors cross-package record imports when the driver
// does not override it.
const DefaultImportRoot = "github.com/msgforge/msgs"

// Nesting depth cap for embedded records. Cyclic definitions are a
// frontend error; the cap keeps size resolution total if one slips through.
const maxEmbedDepth = 32

// RefKind classifies how a record reference is reached from the package
// being generated.
type RefKind int

const (
	// RefLocal is a sibling record in the same generated package.
	RefLocal RefKind = iota
	// RefHierarchical is a record in another generated package under the
	// import root.
	RefHierarchical
	// RefCommon is a bare name no known package declares, assumed to live
	// in the shared common-message package.
	RefCommon
	// RefRuntime is a record provided by the support library rather than
	// by generated code.
	RefRuntime
)

// Ref is a resolved record reference.
type Ref struct {
	Kind RefKind
	Path string // import path, empty for RefLocal
	Qual string // package qualifier in spellings, empty for RefLocal
}

// Info is the fact record the emitters consume for one field type.
//
// The codec templates are fmt templates over the generated variable
// reference: %[1]s receives the value expression. Streaming templates write
// to w and read from r with an 8 byte scratch array named buf in scope. The
// fixed-layout templates additionally take %[2]s, a byte offset expression
// into the buffer b; they are empty unless the type is flat.
type Info struct {
	Spelling   string
	EncodeTmpl string
	DecodeTmpl string
	PokeTmpl   string
	PeekTmpl   string
	Size       int  // wire bytes, -1 when variable length
	Flat       bool
	Scratch    bool // streaming templates reference the scratch buffer
}

// Oracle answers type fact queries against a schema registry.
type Oracle struct {
	reg        *schema.Registry
	importRoot string
}

// New creates an oracle over reg. importRoot anchors cross-package record
// imports; empty selects DefaultImportRoot.
func New(reg *schema.Registry, importRoot string) *Oracle {
	if importRoot == "" {
		importRoot = DefaultImportRoot
	}
	return &Oracle{reg: reg, importRoot: importRoot}
}

// UpperFirst applies the identifier capitalization rule: first letter
// upper-cased, the rest untouched. "twist" becomes "Twist", "frame_id"
// becomes "Frame_id".
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// ResolveRef resolves a record reference as seen from fromPkg into a typed
// reference. The three user-type cases (sibling, hierarchical, common) stay
// distinct so each is independently testable; the canonical header resolves
// to the support library instead of generated code.
func (o *Oracle) ResolveRef(name, fromPkg string) Ref {
	if schema.RecordRef(name).IsHeader() {
		return Ref{Kind: RefRuntime, Path: StdmsgsPath, Qual: "stdmsgs"}
	}
	pkg, _ := schema.SplitRef(name)
	switch {
	case pkg != "" && pkg == fromPkg:
		// Qualified self-reference collapses to the sibling case: a Go
		// package cannot import itself.
		return Ref{Kind: RefLocal}
	case pkg != "":
		return Ref{Kind: RefHierarchical, Path: o.importRoot + "/" + pkg, Qual: pkg}
	case o.reg.Has(fromPkg, name):
		return Ref{Kind: RefLocal}
	}
	if pkg, ok := o.reg.ResolveBare(name); ok && pkg != fromPkg {
		return Ref{Kind: RefHierarchical, Path: o.importRoot + "/" + pkg, Qual: pkg}
	}
	return Ref{Kind: RefCommon, Path: o.importRoot + "/common_msgs", Qual: "common_msgs"}
}

// Resolve returns the facts for one field type as seen from fromPkg.
// Unknown scalar kinds are the one hard failure: they mean the frontend
// handed over a malformed type, and the whole generation call must abort.
func (o *Oracle) Resolve(t schema.FieldType, fromPkg string) (Info, error) {
	return o.resolve(t, fromPkg, 0)
}

// IsFlat reports whether every field of s resolves flat. The empty field
// list is vacuously flat.
func (o *Oracle) IsFlat(s schema.Schema) (bool, error) {
	for _, f := range s.Fields {
		info, err := o.Resolve(f.Type, s.Pkg)
		if err != nil {
			return false, err
		}
		if !info.Flat {
			return false, nil
		}
	}
	return true, nil
}

func (o *Oracle) resolve(t schema.FieldType, fromPkg string, depth int) (Info, error) {
	switch {
	case t.Array:
		return o.arrayInfo(t, fromPkg, depth)
	case t.Record:
		return o.recordInfo(t, fromPkg)
	default:
		info, err := scalarInfo(t.Kind)
		if err != nil {
			return Info{}, err
		}
		// Every scalar codec stages through the scratch buffer.
		info.Scratch = true
		return info, nil
	}
}

func (o *Oracle) recordInfo(t schema.FieldType, fromPkg string) (Info, error) {
	ref := o.ResolveRef(t.Name, fromPkg)
	_, base := schema.SplitRef(t.Name)
	spelling := UpperFirst(base)
	if ref.Qual != "" {
		spelling = ref.Qual + "." + spelling
	}

	size, flat := o.recordFlatSize(t.Name, fromPkg, 0)
	info := Info{
		Spelling: spelling,
		EncodeTmpl: "\tif err := %[1]s.Serialize(w); err != nil {\n" +
			"\t\treturn err\n\t}\n",
		DecodeTmpl: "\tif err := %[1]s.Deserialize(r); err != nil {\n" +
			"\t\treturn err\n\t}\n",
		Size: size,
		Flat: flat,
	}
	if flat {
		info.PokeTmpl = "\tif err := %[1]s.MarshalFixed(b[%[2]s:]); err != nil {\n" +
			"\t\treturn err\n\t}\n"
		info.PeekTmpl = "\tif err := %[1]s.UnmarshalFixed(b[%[2]s:]); err != nil {\n" +
			"\t\treturn err\n\t}\n"
	}
	return info, nil
}

func (o *Oracle) arrayInfo(t schema.FieldType, fromPkg string, depth int) (Info, error) {
	elem, err := o.resolve(*t.Elem, fromPkg, depth+1)
	if err != nil {
		return Info{}, err
	}

	// Byte-width elements get bulk codecs instead of an element loop.
	if isByteKind(*t.Elem) {
		return byteArrayInfo(t, elem), nil
	}

	idx := fmt.Sprintf("i%d", depth)
	ref := "%[1]s[" + idx + "]"

	if t.Len > 0 {
		info := Info{
			Spelling: fmt.Sprintf("[%d]%s", t.Len, elem.Spelling),
			Size:     -1,
			Flat:     elem.Flat,
			Scratch:  elem.Scratch,
		}
		head := fmt.Sprintf("\tfor %s := 0; %s < %d; %s++ {\n", idx, idx, t.Len, idx)
		info.EncodeTmpl = head + indent(fmt.Sprintf(elem.EncodeTmpl, ref)) + "\t}\n"
		info.DecodeTmpl = head + indent(fmt.Sprintf(elem.DecodeTmpl, ref)) + "\t}\n"
		if elem.Flat {
			info.Size = t.Len * elem.Size
			off := fmt.Sprintf("%%[2]s+%s*%d", idx, elem.Size)
			info.PokeTmpl = head + indent(fmt.Sprintf(elem.PokeTmpl, ref, off)) + "\t}\n"
			info.PeekTmpl = head + indent(fmt.Sprintf(elem.PeekTmpl, ref, off)) + "\t}\n"
		}
		return info, nil
	}

	info := Info{
		Spelling: "[]" + elem.Spelling,
		Size:     -1,
		Flat:     false,
		Scratch:  true, // length prefix
	}
	loop := fmt.Sprintf("\tfor %s := range %%[1]s {\n", idx)
	info.EncodeTmpl = "\tbinary.LittleEndian.PutUint32(buf[:4], uint32(len(%[1]s)))\n" +
		"\tif _, err := w.Write(buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
		loop + indent(fmt.Sprintf(elem.EncodeTmpl, ref)) + "\t}\n"
	info.DecodeTmpl = "\tif _, err := io.ReadFull(r, buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
		fmt.Sprintf("\t%%[1]s = make(%s, binary.LittleEndian.Uint32(buf[:4]))\n", info.Spelling) +
		loop + indent(fmt.Sprintf(elem.DecodeTmpl, ref)) + "\t}\n"
	return info, nil
}

// byteArrayInfo builds bulk codecs for arrays of uint8 and byte fields:
// one Write or ReadFull for the whole payload, copy for the fixed layout.
func byteArrayInfo(t schema.FieldType, elem Info) Info {
	if t.Len > 0 {
		return Info{
			Spelling: fmt.Sprintf("[%d]%s", t.Len, elem.Spelling),
			EncodeTmpl: "\tif _, err := w.Write(%[1]s[:]); err != nil {\n" +
				"\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, %[1]s[:]); err != nil {\n" +
				"\t\treturn err\n\t}\n",
			PokeTmpl: fmt.Sprintf("\tcopy(b[%%[2]s:%%[2]s+%d], %%[1]s[:])\n", t.Len),
			PeekTmpl: fmt.Sprintf("\tcopy(%%[1]s[:], b[%%[2]s:%%[2]s+%d])\n", t.Len),
			Size:     t.Len,
			Flat:     true,
			Scratch:  false,
		}
	}
	return Info{
		Spelling: "[]" + elem.Spelling,
		EncodeTmpl: "\tbinary.LittleEndian.PutUint32(buf[:4], uint32(len(%[1]s)))\n" +
			"\tif _, err := w.Write(buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
			"\tif _, err := w.Write(%[1]s); err != nil {\n\t\treturn err\n\t}\n",
		DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
			fmt.Sprintf("\t%%[1]s = make([]%s, binary.LittleEndian.Uint32(buf[:4]))\n", elem.Spelling) +
			"\tif _, err := io.ReadFull(r, %[1]s); err != nil {\n\t\treturn err\n\t}\n",
		Size:    -1,
		Flat:    false,
		Scratch: true,
	}
}

func isByteKind(t schema.FieldType) bool {
	if t.Array || t.Record {
		return false
	}
	return t.Kind == schema.KindUint8 || t.Kind == schema.KindByte
}

// recordFlatSize computes the transitive wire size of a named record.
// Records missing from the registry report variable: their content is
// unknown here and the fixed-layout emitter must not guess.
func (o *Oracle) recordFlatSize(name, fromPkg string, depth int) (int, bool) {
	if depth > maxEmbedDepth {
		return -1, false
	}
	s, ok := o.reg.Lookup(name, fromPkg)
	if !ok {
		return -1, false
	}
	total := 0
	for _, f := range s.Fields {
		size, flat := o.fieldFlatSize(f.Type, s.Pkg, depth+1)
		if !flat {
			return -1, false
		}
		total += size
	}
	return total, true
}

func (o *Oracle) fieldFlatSize(t schema.FieldType, fromPkg string, depth int) (int, bool) {
	switch {
	case t.Array && t.Len > 0:
		size, flat := o.fieldFlatSize(*t.Elem, fromPkg, depth)
		if !flat {
			return -1, false
		}
		return t.Len * size, true
	case t.Array:
		return -1, false
	case t.Record:
		return o.recordFlatSize(t.Name, fromPkg, depth)
	default:
		return scalarSize(t.Kind)
	}
}

func scalarSize(k schema.Kind) (int, bool) {
	switch k {
	case schema.KindBool, schema.KindInt8, schema.KindUint8, schema.KindByte, schema.KindChar:
		return 1, true
	case schema.KindInt16, schema.KindUint16:
		return 2, true
	case schema.KindInt32, schema.KindUint32, schema.KindFloat32:
		return 4, true
	case schema.KindInt64, schema.KindUint64, schema.KindFloat64:
		return 8, true
	case schema.KindTime, schema.KindDuration:
		return 8, true
	default:
		return -1, false
	}
}

// scalarInfo is the exhaustive scalar fact table. Wire order is little
// endian throughout; strings carry a uint32 length prefix.
func scalarInfo(k schema.Kind) (Info, error) {
	switch k {
	case schema.KindBool:
		return Info{
			Spelling: "bool",
			EncodeTmpl: "\tbuf[0] = 0\n\tif %[1]s {\n\t\tbuf[0] = 1\n\t}\n" +
				"\tif _, err := w.Write(buf[:1]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:1]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = buf[0] != 0\n",
			PokeTmpl: "\tb[%[2]s] = 0\n\tif %[1]s {\n\t\tb[%[2]s] = 1\n\t}\n",
			PeekTmpl: "\t%[1]s = b[%[2]s] != 0\n",
			Size:     1,
			Flat:     true,
		}, nil
	case schema.KindInt8, schema.KindChar:
		return Info{
			Spelling: "int8",
			EncodeTmpl: "\tbuf[0] = uint8(%[1]s)\n" +
				"\tif _, err := w.Write(buf[:1]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:1]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = int8(buf[0])\n",
			PokeTmpl: "\tb[%[2]s] = uint8(%[1]s)\n",
			PeekTmpl: "\t%[1]s = int8(b[%[2]s])\n",
			Size:     1,
			Flat:     true,
		}, nil
	case schema.KindUint8, schema.KindByte:
		return Info{
			Spelling: "uint8",
			EncodeTmpl: "\tbuf[0] = %[1]s\n" +
				"\tif _, err := w.Write(buf[:1]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:1]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = buf[0]\n",
			PokeTmpl: "\tb[%[2]s] = %[1]s\n",
			PeekTmpl: "\t%[1]s = b[%[2]s]\n",
			Size:     1,
			Flat:     true,
		}, nil
	case schema.KindInt16:
		return Info{
			Spelling: "int16",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint16(buf[:2], uint16(%[1]s))\n" +
				"\tif _, err := w.Write(buf[:2]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:2]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = int16(binary.LittleEndian.Uint16(buf[:2]))\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint16(b[%[2]s:], uint16(%[1]s))\n",
			PeekTmpl: "\t%[1]s = int16(binary.LittleEndian.Uint16(b[%[2]s:]))\n",
			Size:     2,
			Flat:     true,
		}, nil
	case schema.KindUint16:
		return Info{
			Spelling: "uint16",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint16(buf[:2], %[1]s)\n" +
				"\tif _, err := w.Write(buf[:2]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:2]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = binary.LittleEndian.Uint16(buf[:2])\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint16(b[%[2]s:], %[1]s)\n",
			PeekTmpl: "\t%[1]s = binary.LittleEndian.Uint16(b[%[2]s:])\n",
			Size:     2,
			Flat:     true,
		}, nil
	case schema.KindInt32:
		return Info{
			Spelling: "int32",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint32(buf[:4], uint32(%[1]s))\n" +
				"\tif _, err := w.Write(buf[:4]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = int32(binary.LittleEndian.Uint32(buf[:4]))\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint32(b[%[2]s:], uint32(%[1]s))\n",
			PeekTmpl: "\t%[1]s = int32(binary.LittleEndian.Uint32(b[%[2]s:]))\n",
			Size:     4,
			Flat:     true,
		}, nil
	case schema.KindUint32:
		return Info{
			Spelling: "uint32",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint32(buf[:4], %[1]s)\n" +
				"\tif _, err := w.Write(buf[:4]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = binary.LittleEndian.Uint32(buf[:4])\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint32(b[%[2]s:], %[1]s)\n",
			PeekTmpl: "\t%[1]s = binary.LittleEndian.Uint32(b[%[2]s:])\n",
			Size:     4,
			Flat:     true,
		}, nil
	case schema.KindInt64:
		return Info{
			Spelling: "int64",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint64(buf[:8], uint64(%[1]s))\n" +
				"\tif _, err := w.Write(buf[:8]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:8]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = int64(binary.LittleEndian.Uint64(buf[:8]))\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint64(b[%[2]s:], uint64(%[1]s))\n",
			PeekTmpl: "\t%[1]s = int64(binary.LittleEndian.Uint64(b[%[2]s:]))\n",
			Size:     8,
			Flat:     true,
		}, nil
	case schema.KindUint64:
		return Info{
			Spelling: "uint64",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint64(buf[:8], %[1]s)\n" +
				"\tif _, err := w.Write(buf[:8]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:8]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = binary.LittleEndian.Uint64(buf[:8])\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint64(b[%[2]s:], %[1]s)\n",
			PeekTmpl: "\t%[1]s = binary.LittleEndian.Uint64(b[%[2]s:])\n",
			Size:     8,
			Flat:     true,
		}, nil
	case schema.KindFloat32:
		return Info{
			Spelling: "float32",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint32(buf[:4], math.Float32bits(%[1]s))\n" +
				"\tif _, err := w.Write(buf[:4]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint32(b[%[2]s:], math.Float32bits(%[1]s))\n",
			PeekTmpl: "\t%[1]s = math.Float32frombits(binary.LittleEndian.Uint32(b[%[2]s:]))\n",
			Size:     4,
			Flat:     true,
		}, nil
	case schema.KindFloat64:
		return Info{
			Spelling: "float64",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint64(buf[:8], math.Float64bits(%[1]s))\n" +
				"\tif _, err := w.Write(buf[:8]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:8]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s = math.Float64frombits(binary.LittleEndian.Uint64(buf[:8]))\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint64(b[%[2]s:], math.Float64bits(%[1]s))\n",
			PeekTmpl: "\t%[1]s = math.Float64frombits(binary.LittleEndian.Uint64(b[%[2]s:]))\n",
			Size:     8,
			Flat:     true,
		}, nil
	case schema.KindString:
		return Info{
			Spelling: "string",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint32(buf[:4], uint32(len(%[1]s)))\n" +
				"\tif _, err := w.Write(buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
				"\tif _, err := io.WriteString(w, %[1]s); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:4]); err != nil {\n\t\treturn err\n\t}\n" +
				"\tif n := binary.LittleEndian.Uint32(buf[:4]); n > 0 {\n" +
				"\t\ts := make([]byte, n)\n" +
				"\t\tif _, err := io.ReadFull(r, s); err != nil {\n\t\t\treturn err\n\t\t}\n" +
				"\t\t%[1]s = string(s)\n" +
				"\t} else {\n\t\t%[1]s = \"\"\n\t}\n",
			Size: -1,
			Flat: false,
		}, nil
	case schema.KindTime:
		return Info{
			Spelling: "msg.Time",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint32(buf[:4], %[1]s.Sec)\n" +
				"\tbinary.LittleEndian.PutUint32(buf[4:8], %[1]s.Nsec)\n" +
				"\tif _, err := w.Write(buf[:8]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:8]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s.Sec = binary.LittleEndian.Uint32(buf[:4])\n" +
				"\t%[1]s.Nsec = binary.LittleEndian.Uint32(buf[4:8])\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint32(b[%[2]s:], %[1]s.Sec)\n" +
				"\tbinary.LittleEndian.PutUint32(b[%[2]s+4:], %[1]s.Nsec)\n",
			PeekTmpl: "\t%[1]s.Sec = binary.LittleEndian.Uint32(b[%[2]s:])\n" +
				"\t%[1]s.Nsec = binary.LittleEndian.Uint32(b[%[2]s+4:])\n",
			Size: 8,
			Flat: true,
		}, nil
	case schema.KindDuration:
		return Info{
			Spelling: "msg.Duration",
			EncodeTmpl: "\tbinary.LittleEndian.PutUint32(buf[:4], uint32(%[1]s.Sec))\n" +
				"\tbinary.LittleEndian.PutUint32(buf[4:8], uint32(%[1]s.Nsec))\n" +
				"\tif _, err := w.Write(buf[:8]); err != nil {\n\t\treturn err\n\t}\n",
			DecodeTmpl: "\tif _, err := io.ReadFull(r, buf[:8]); err != nil {\n\t\treturn err\n\t}\n" +
				"\t%[1]s.Sec = int32(binary.LittleEndian.Uint32(buf[:4]))\n" +
				"\t%[1]s.Nsec = int32(binary.LittleEndian.Uint32(buf[4:8]))\n",
			PokeTmpl: "\tbinary.LittleEndian.PutUint32(b[%[2]s:], uint32(%[1]s.Sec))\n" +
				"\tbinary.LittleEndian.PutUint32(b[%[2]s+4:], uint32(%[1]s.Nsec))\n",
			PeekTmpl: "\t%[1]s.Sec = int32(binary.LittleEndian.Uint32(b[%[2]s:]))\n" +
				"\t%[1]s.Nsec = int32(binary.LittleEndian.Uint32(b[%[2]s+4:]))\n",
			Size: 8,
			Flat: true,
		}, nil
	default:
		return Info{}, fmt.Errorf("typeinfo: unknown scalar kind %d", k)
	}
}

// indent shifts every line of a statement block one tab right.
func indent(block string) string {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "\t" + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
