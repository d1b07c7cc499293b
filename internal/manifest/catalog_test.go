package manifest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()

	catalog, err := NewCatalog(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func testRecord(pkg, name, fingerprint string) *Record {
	return &Record{
		Pkg:         pkg,
		Name:        name,
		Fingerprint: fingerprint,
		SourcePath:  pkg + "/msg/" + name + ".msg",
		SourceHash:  "hash-" + fingerprint,
		OutputPath:  pkg + "/" + name + ".go",
		SizeBytes:   2048,
		Imports:     []string{"encoding/binary", "io"},
		Generator:   "1",
		GeneratedAt: time.Now(),
	}
}

func TestCatalog_UpsertAndLookup(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	rec := testRecord("geometry_msgs", "Vector3", "2a4c7d9e0f1b3a5c7e9d0b2f4a6c8e0d")
	if err := catalog.Upsert(ctx, rec); err != nil {
		t.Fatalf("failed to upsert module: %v", err)
	}

	got, err := catalog.Lookup(ctx, "geometry_msgs", "Vector3")
	if err != nil {
		t.Fatalf("failed to look up module: %v", err)
	}

	if got.FullName() != "geometry_msgs/Vector3" {
		t.Errorf("full name mismatch: got %s", got.FullName())
	}
	if got.Fingerprint != rec.Fingerprint {
		t.Errorf("fingerprint mismatch: got %s, want %s", got.Fingerprint, rec.Fingerprint)
	}
	if got.SourcePath != rec.SourcePath {
		t.Errorf("source_path mismatch: got %s, want %s", got.SourcePath, rec.SourcePath)
	}
	if got.SourceHash != rec.SourceHash {
		t.Errorf("source_hash mismatch: got %s, want %s", got.SourceHash, rec.SourceHash)
	}
	if got.SizeBytes != rec.SizeBytes {
		t.Errorf("size_bytes mismatch: got %d, want %d", got.SizeBytes, rec.SizeBytes)
	}
	if len(got.Imports) != 2 || got.Imports[0] != "encoding/binary" || got.Imports[1] != "io" {
		t.Errorf("imports mismatch: got %v", got.Imports)
	}
	if got.Generator != rec.Generator {
		t.Errorf("generator mismatch: got %s, want %s", got.Generator, rec.Generator)
	}
	// Stored at second precision.
	if got.GeneratedAt.Unix() != rec.GeneratedAt.Unix() {
		t.Errorf("generated_at mismatch: got %v, want %v", got.GeneratedAt, rec.GeneratedAt)
	}
}

func TestCatalog_UpsertReplaces(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	if err := catalog.Upsert(ctx, testRecord("geometry_msgs", "Vector3", "aaaa")); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := catalog.Upsert(ctx, testRecord("geometry_msgs", "Vector3", "bbbb")); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := catalog.Lookup(ctx, "geometry_msgs", "Vector3")
	if err != nil {
		t.Fatalf("failed to look up module: %v", err)
	}
	if got.Fingerprint != "bbbb" {
		t.Errorf("fingerprint mismatch: got %s, want bbbb", got.Fingerprint)
	}

	count, err := catalog.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count modules: %v", err)
	}
	if count != 1 {
		t.Errorf("count mismatch: got %d, want 1", count)
	}
}

func TestCatalog_LookupMissing(t *testing.T) {
	catalog := newTestCatalog(t)

	_, err := catalog.Lookup(context.Background(), "geometry_msgs", "Nothing")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestCatalog_ListPackage(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	for _, rec := range []*Record{
		testRecord("geometry_msgs", "Vector3", "v3"),
		testRecord("geometry_msgs", "Twist", "tw"),
		testRecord("sensor_msgs", "Imu", "imu"),
	} {
		if err := catalog.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	records, err := catalog.ListPackage(ctx, "geometry_msgs")
	if err != nil {
		t.Fatalf("ListPackage failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Name != "Twist" || records[1].Name != "Vector3" {
		t.Errorf("records out of order: %s, %s", records[0].Name, records[1].Name)
	}
}

func TestCatalog_ListAll(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	for _, rec := range []*Record{
		testRecord("sensor_msgs", "Imu", "imu"),
		testRecord("geometry_msgs", "Vector3", "v3"),
	} {
		if err := catalog.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	records, err := catalog.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].FullName() != "geometry_msgs/Vector3" || records[1].FullName() != "sensor_msgs/Imu" {
		t.Errorf("records out of order: %s, %s", records[0].FullName(), records[1].FullName())
	}
}

func TestCatalog_Delete(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	if err := catalog.Upsert(ctx, testRecord("geometry_msgs", "Vector3", "v3")); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := catalog.Delete(ctx, "geometry_msgs", "Vector3"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := catalog.Lookup(ctx, "geometry_msgs", "Vector3"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("expected ErrModuleNotFound after delete, got %v", err)
	}

	// Deleting a missing row is not an error.
	if err := catalog.Delete(ctx, "geometry_msgs", "Vector3"); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestCatalog_Stale(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	unchanged := testRecord("geometry_msgs", "Vector3", "v3")
	changed := testRecord("geometry_msgs", "Twist", "tw")
	for _, rec := range []*Record{unchanged, changed} {
		if err := catalog.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	sources := map[string]string{
		"geometry_msgs/Vector3": unchanged.SourceHash, // same hash
		"geometry_msgs/Twist":   "edited",             // content changed
		"sensor_msgs/Imu":       "brand-new",          // never recorded
	}

	stale, err := catalog.Stale(ctx, sources)
	if err != nil {
		t.Fatalf("Stale failed: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 stale modules, got %d: %v", len(stale), stale)
	}
	if stale[0] != "geometry_msgs/Twist" || stale[1] != "sensor_msgs/Imu" {
		t.Errorf("stale mismatch: %v", stale)
	}
}

func TestCatalog_Orphans(t *testing.T) {
	catalog := newTestCatalog(t)
	ctx := context.Background()

	kept := testRecord("geometry_msgs", "Vector3", "v3")
	removed := testRecord("nav_msgs", "Odometry", "odo")
	for _, rec := range []*Record{kept, removed} {
		if err := catalog.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	sources := map[string]string{"geometry_msgs/Vector3": kept.SourceHash}

	orphans, err := catalog.Orphans(ctx, sources)
	if err != nil {
		t.Fatalf("Orphans failed: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("expected 1 orphan, got %d", len(orphans))
	}
	if orphans[0].FullName() != "nav_msgs/Odometry" {
		t.Errorf("orphan mismatch: %s", orphans[0].FullName())
	}
}

func TestCatalog_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")

	catalog, err := NewCatalog(dbPath)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}

	ctx := context.Background()
	if err := catalog.Upsert(ctx, testRecord("geometry_msgs", "Vector3", "v3")); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := catalog.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopening migrates again (a no-op) and sees the same rows.
	reopened, err := NewCatalog(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen catalog: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Lookup(ctx, "geometry_msgs", "Vector3")
	if err != nil {
		t.Fatalf("lookup after reopen failed: %v", err)
	}
	if got.Fingerprint != "v3" {
		t.Errorf("fingerprint mismatch after reopen: got %s", got.Fingerprint)
	}
}
