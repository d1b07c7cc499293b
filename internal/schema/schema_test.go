package schema

import "testing"

func TestScalarKind(t *testing.T) {
	tests := []struct {
		spelling string
		kind     Kind
	}{
		{"bool", KindBool},
		{"uint8", KindUint8},
		{"byte", KindByte},
		{"char", KindChar},
		{"int16", KindInt16},
		{"float64", KindFloat64},
		{"string", KindString},
		{"time", KindTime},
		{"duration", KindDuration},
		{"Vector3", KindInvalid},
		{"geometry_msgs/Vector3", KindInvalid},
		{"", KindInvalid},
	}

	for _, tt := range tests {
		if got := ScalarKind(tt.spelling); got != tt.kind {
			t.Errorf("ScalarKind(%q) = %v, want %v", tt.spelling, got, tt.kind)
		}
	}
}

func TestKindString_RoundTrip(t *testing.T) {
	for spelling, kind := range scalarKinds {
		if kind.String() != spelling {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, kind.String(), spelling)
		}
	}
}

func TestFieldTypeString(t *testing.T) {
	tests := []struct {
		typ  FieldType
		want string
	}{
		{Scalar(KindUint16), "uint16"},
		{VarArray(Scalar(KindUint16)), "uint16[]"},
		{FixedArray(Scalar(KindFloat64), 9), "float64[9]"},
		{RecordRef("Vector3"), "Vector3"},
		{RecordRef("geometry_msgs/Vector3"), "geometry_msgs/Vector3"},
		{VarArray(RecordRef("Point32")), "Point32[]"},
		{FixedArray(VarArray(Scalar(KindUint8)), 4), "uint8[][4]"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIsHeader(t *testing.T) {
	if !RecordRef("Header").IsHeader() {
		t.Error("bare Header should be the canonical header")
	}
	if !RecordRef("std_msgs/Header").IsHeader() {
		t.Error("qualified std_msgs/Header should be the canonical header")
	}
	if RecordRef("my_pkg/Header").IsHeader() {
		t.Error("Header in a foreign package is not canonical")
	}
	if Scalar(KindString).IsHeader() {
		t.Error("scalar is never a header")
	}
	if VarArray(RecordRef("Header")).IsHeader() {
		t.Error("array of Header is not itself a header")
	}
}

func TestHeaderFirst(t *testing.T) {
	withHeader := Schema{
		Pkg:  "sensor_msgs",
		Name: "Imu",
		Fields: []Field{
			{Name: "header", Type: RecordRef("Header")},
			{Name: "orientation", Type: RecordRef("geometry_msgs/Quaternion")},
		},
	}
	if !withHeader.HeaderFirst() {
		t.Error("schema with leading Header field should be header-first")
	}

	headerLater := Schema{
		Pkg:  "sensor_msgs",
		Name: "Odd",
		Fields: []Field{
			{Name: "count", Type: Scalar(KindUint32)},
			{Name: "header", Type: RecordRef("Header")},
		},
	}
	if headerLater.HeaderFirst() {
		t.Error("header not in first position should not count")
	}

	empty := Schema{Pkg: "std_msgs", Name: "Empty"}
	if empty.HeaderFirst() {
		t.Error("empty schema is not header-first")
	}
}

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref, pkg, name string
	}{
		{"geometry_msgs/Vector3", "geometry_msgs", "Vector3"},
		{"Vector3", "", "Vector3"},
		{"a/b/C", "a/b", "C"},
	}

	for _, tt := range tests {
		pkg, name := SplitRef(tt.ref)
		if pkg != tt.pkg || name != tt.name {
			t.Errorf("SplitRef(%q) = (%q, %q), want (%q, %q)", tt.ref, pkg, name, tt.pkg, tt.name)
		}
	}
}
