package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func seedRemote(t *testing.T, store *LocalStore, objects map[string]string) {
	t.Helper()
	src := t.TempDir()
	for object, content := range objects {
		local := filepath.Join(src, filepath.Base(object))
		if err := os.WriteFile(local, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", object, err)
		}
		if err := store.Upload(context.Background(), local, object); err != nil {
			t.Fatalf("upload %s: %v", object, err)
		}
	}
}

func TestSourceFetcher_Fetch(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	seedRemote(t, store, map[string]string{
		"sources/geometry_msgs/msg/Vector3.msg": "float64 x\nfloat64 y\nfloat64 z\n",
		"sources/geometry_msgs/msg/Twist.msg":   "Vector3 linear\nVector3 angular\n",
		"sources/std_msgs/msg/Bool.msg":         "bool data\n",
		"sources/README":                        "not a definition\n",
	})

	dest := t.TempDir()
	fetcher := NewSourceFetcher(store, 4)
	result, err := fetcher.Fetch(context.Background(), "sources/", dest)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Fetched) != 3 {
		t.Errorf("expected 3 fetched, got %d", len(result.Fetched))
	}

	data, err := os.ReadFile(filepath.Join(dest, "geometry_msgs", "msg", "Vector3.msg"))
	if err != nil {
		t.Fatalf("fetched file missing: %v", err)
	}
	if string(data) != "float64 x\nfloat64 y\nfloat64 z\n" {
		t.Errorf("unexpected content %q", data)
	}

	// Non-definition objects stay remote.
	if _, err := os.Stat(filepath.Join(dest, "README")); !os.IsNotExist(err) {
		t.Error("README should not have been fetched")
	}
}

func TestSourceFetcher_OverwritesStaleLocal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	seedRemote(t, store, map[string]string{
		"sources/std_msgs/msg/Bool.msg": "bool data\n",
	})

	dest := t.TempDir()
	stale := filepath.Join(dest, "std_msgs", "msg", "Bool.msg")
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("int8 data\n"), 0644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	fetcher := NewSourceFetcher(store, 2)
	result, err := fetcher.Fetch(context.Background(), "sources", dest)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	data, err := os.ReadFile(stale)
	if err != nil {
		t.Fatalf("read fetched file: %v", err)
	}
	if string(data) != "bool data\n" {
		t.Errorf("stale local file not overwritten, got %q", data)
	}
}

func TestSourceFetcher_EmptyPrefix(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	fetcher := NewSourceFetcher(store, 2)
	result, err := fetcher.Fetch(context.Background(), "sources/", t.TempDir())
	if err != nil {
		t.Fatalf("fetch of missing prefix should not error: %v", err)
	}
	if len(result.Fetched) != 0 || len(result.Errors) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
