package schema

import "testing"

func testRegistry() *Registry {
	r := NewRegistry()
	r.Add(Schema{Pkg: "geometry_msgs", Name: "Vector3", Fields: []Field{
		{Name: "x", Type: Scalar(KindFloat64)},
		{Name: "y", Type: Scalar(KindFloat64)},
		{Name: "z", Type: Scalar(KindFloat64)},
	}})
	r.Add(Schema{Pkg: "geometry_msgs", Name: "Twist", Fields: []Field{
		{Name: "linear", Type: RecordRef("Vector3")},
		{Name: "angular", Type: RecordRef("Vector3")},
	}})
	r.Add(Schema{Pkg: "std_msgs", Name: "Header", Fields: []Field{
		{Name: "seq", Type: Scalar(KindUint32)},
		{Name: "stamp", Type: Scalar(KindTime)},
		{Name: "frame_id", Type: Scalar(KindString)},
	}})
	return r
}

func TestRegistry_GetHas(t *testing.T) {
	r := testRegistry()

	if _, ok := r.Get("geometry_msgs", "Vector3"); !ok {
		t.Fatal("expected Vector3 to be registered")
	}
	if r.Has("geometry_msgs", "Header") {
		t.Error("Header is not declared by geometry_msgs")
	}
	if !r.Has("std_msgs", "Header") {
		t.Error("Header should be declared by std_msgs")
	}
}

func TestRegistry_ResolveBare(t *testing.T) {
	r := testRegistry()

	pkg, ok := r.ResolveBare("Header")
	if !ok || pkg != "std_msgs" {
		t.Errorf("ResolveBare(Header) = (%q, %v), want (std_msgs, true)", pkg, ok)
	}

	// Ambiguous once a second package declares the same name.
	r.Add(Schema{Pkg: "other_msgs", Name: "Header"})
	if _, ok := r.ResolveBare("Header"); ok {
		t.Error("ambiguous bare name should not resolve")
	}

	if _, ok := r.ResolveBare("NoSuch"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := testRegistry()

	// Sibling wins for bare references.
	s, ok := r.Lookup("Vector3", "geometry_msgs")
	if !ok || s.Pkg != "geometry_msgs" {
		t.Fatalf("sibling lookup failed: %+v %v", s, ok)
	}

	// Qualified reference ignores the requesting package.
	s, ok = r.Lookup("std_msgs/Header", "geometry_msgs")
	if !ok || s.Name != "Header" {
		t.Fatalf("qualified lookup failed: %+v %v", s, ok)
	}

	// Bare non-sibling resolves across packages when unambiguous.
	s, ok = r.Lookup("Header", "geometry_msgs")
	if !ok || s.Pkg != "std_msgs" {
		t.Fatalf("cross-package bare lookup failed: %+v %v", s, ok)
	}

	if _, ok := r.Lookup("Missing", "geometry_msgs"); ok {
		t.Error("unknown reference should not resolve")
	}
}

func TestRegistry_SchemasDeterministicOrder(t *testing.T) {
	r := testRegistry()

	first := r.Schemas()
	second := r.Schemas()
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 schemas, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].FullName() != second[i].FullName() {
			t.Errorf("order not stable at %d: %s vs %s", i, first[i].FullName(), second[i].FullName())
		}
	}
	if first[0].FullName() != "geometry_msgs/Twist" {
		t.Errorf("expected lexicographic order, got %s first", first[0].FullName())
	}
}

func TestRegistry_AddReplaces(t *testing.T) {
	r := testRegistry()
	r.Add(Schema{Pkg: "geometry_msgs", Name: "Vector3", Fields: []Field{
		{Name: "x", Type: Scalar(KindFloat32)},
	}})

	s, _ := r.Get("geometry_msgs", "Vector3")
	if len(s.Fields) != 1 {
		t.Errorf("re-add should replace, got %d fields", len(s.Fields))
	}
	if r.Len() != 3 {
		t.Errorf("re-add should not grow the registry, len=%d", r.Len())
	}

	// The bare-name index must not double-count either.
	if pkg, ok := r.ResolveBare("Vector3"); !ok || pkg != "geometry_msgs" {
		t.Errorf("ResolveBare after replace = (%q, %v)", pkg, ok)
	}
}
