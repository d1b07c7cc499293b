package fingerprint

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msgforge/msgforge/internal/schema"
)

func vector3() schema.Schema {
	return schema.Schema{
		Pkg:  "geometry_msgs",
		Name: "Vector3",
		Fields: []schema.Field{
			{Name: "x", Type: schema.Scalar(schema.KindFloat64)},
			{Name: "y", Type: schema.Scalar(schema.KindFloat64)},
			{Name: "z", Type: schema.Scalar(schema.KindFloat64)},
		},
	}
}

func twist() schema.Schema {
	return schema.Schema{
		Pkg:  "geometry_msgs",
		Name: "Twist",
		Fields: []schema.Field{
			{Name: "linear", Type: schema.RecordRef("Vector3")},
			{Name: "angular", Type: schema.RecordRef("Vector3")},
		},
	}
}

func TestFingerprintShape(t *testing.T) {
	fp, err := Fingerprint(context.Background(), vector3(), schema.NewRegistry())
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if len(fp) != 32 {
		t.Fatalf("fingerprint %q: want 32 hex chars", fp)
	}
	for _, c := range fp {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("fingerprint %q: unexpected char %q", fp, c)
		}
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	reg := schema.NewRegistry()
	first, err := Fingerprint(context.Background(), vector3(), reg)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	second, err := Fingerprint(context.Background(), vector3(), reg)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if first != second {
		t.Fatalf("fingerprints differ across runs: %q vs %q", first, second)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	reg := schema.NewRegistry()
	base, err := Fingerprint(context.Background(), vector3(), reg)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	mutations := map[string]func(*schema.Schema){
		"renamed field": func(s *schema.Schema) {
			s.Fields[2].Name = "w"
		},
		"swapped field order": func(s *schema.Schema) {
			s.Fields[0], s.Fields[1] = s.Fields[1], s.Fields[0]
		},
		"changed field type": func(s *schema.Schema) {
			s.Fields[2].Type = schema.Scalar(schema.KindFloat32)
		},
		"added constant": func(s *schema.Schema) {
			s.Constants = append(s.Constants, schema.Constant{
				Name: "DIM", Type: schema.Scalar(schema.KindUint8), Value: "3",
			})
		},
		"field became array": func(s *schema.Schema) {
			s.Fields[2].Type = schema.FixedArray(schema.Scalar(schema.KindFloat64), 3)
		},
	}

	for name, mutate := range mutations {
		s := vector3()
		mutate(&s)
		fp, err := Fingerprint(context.Background(), s, reg)
		if err != nil {
			t.Fatalf("%s: Fingerprint: %v", name, err)
		}
		if fp == base {
			t.Errorf("%s: fingerprint unchanged", name)
		}
	}
}

func TestFingerprintConstantValueMatters(t *testing.T) {
	reg := schema.NewRegistry()
	s := schema.Schema{
		Pkg:  "power_msgs",
		Name: "BatteryState",
		Constants: []schema.Constant{
			{Name: "STATUS_OK", Type: schema.Scalar(schema.KindUint8), Value: "0"},
		},
	}
	first, err := Fingerprint(context.Background(), s, reg)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	s.Constants[0].Value = "1"
	second, err := Fingerprint(context.Background(), s, reg)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if first == second {
		t.Fatal("constant value change did not change the fingerprint")
	}
}

func TestFingerprintFollowsReferences(t *testing.T) {
	regA := schema.NewRegistry()
	regA.Add(vector3())
	first, err := Fingerprint(context.Background(), twist(), regA)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	// Same Twist definition over a changed Vector3 hashes differently.
	changed := vector3()
	changed.Fields[2].Name = "w"
	regB := schema.NewRegistry()
	regB.Add(changed)
	second, err := Fingerprint(context.Background(), twist(), regB)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	if first == second {
		t.Fatal("embedded definition change did not change the fingerprint")
	}
}

func TestFingerprintUnresolvedReferenceFails(t *testing.T) {
	_, err := Fingerprint(context.Background(), twist(), schema.NewRegistry())
	if err == nil {
		t.Fatal("expected error for unresolved reference")
	}
	if !strings.Contains(err.Error(), "unresolved reference") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "geometry_msgs/Twist") {
		t.Fatalf("error does not name the definition: %v", err)
	}
}

func TestFingerprintReferenceCycleFails(t *testing.T) {
	loop := schema.Schema{
		Pkg:    "my_msgs",
		Name:   "Loop",
		Fields: []schema.Field{{Name: "next", Type: schema.RecordRef("Loop")}},
	}
	reg := schema.NewRegistry()
	reg.Add(loop)

	_, err := Fingerprint(context.Background(), loop, reg)
	if err == nil {
		t.Fatal("expected error for reference cycle")
	}
	if !strings.Contains(err.Error(), "nest deeper") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFingerprintCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fingerprint(ctx, vector3(), schema.NewRegistry())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestFingerprintInvalidKindFails(t *testing.T) {
	s := schema.Schema{
		Pkg:    "x_msgs",
		Name:   "Broken",
		Fields: []schema.Field{{Name: "bad", Type: schema.FieldType{}}},
	}
	_, err := Fingerprint(context.Background(), s, schema.NewRegistry())
	if err == nil || !strings.Contains(err.Error(), "invalid scalar kind") {
		t.Fatalf("unexpected error: %v", err)
	}
}
