package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SourceDir != "./msgs" {
		t.Errorf("SourceDir = %q, want ./msgs", cfg.SourceDir)
	}
	if cfg.Generate.Jobs != 4 {
		t.Errorf("Generate.Jobs = %d, want 4", cfg.Generate.Jobs)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}
	if cfg.Storage.Type != "local" {
		t.Errorf("Storage.Type = %q, want local", cfg.Storage.Type)
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate after Resolve: %v", err)
	}
}

func TestResolve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/msgforge"
	cfg.Resolve()

	if cfg.Cache.Dir != filepath.Join("/var/lib/msgforge", "cache") {
		t.Errorf("Cache.Dir = %q", cfg.Cache.Dir)
	}
	if cfg.Manifest.Path != filepath.Join("/var/lib/msgforge", "manifest.db") {
		t.Errorf("Manifest.Path = %q", cfg.Manifest.Path)
	}
	if cfg.Storage.Path != filepath.Join("/var/lib/msgforge", "published") {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
}

func TestResolveKeepsExplicitPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = "/fast/cache"
	cfg.Manifest.Path = "/elsewhere/m.db"
	cfg.Resolve()

	if cfg.Cache.Dir != "/fast/cache" {
		t.Errorf("Cache.Dir = %q, want /fast/cache", cfg.Cache.Dir)
	}
	if cfg.Manifest.Path != "/elsewhere/m.db" {
		t.Errorf("Manifest.Path = %q, want /elsewhere/m.db", cfg.Manifest.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source dir", func(c *Config) { c.SourceDir = "" }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"empty import root", func(c *Config) { c.Generate.ImportRoot = "" }},
		{"zero jobs", func(c *Config) { c.Generate.Jobs = 0 }},
		{"too many jobs", func(c *Config) { c.Generate.Jobs = 65 }},
		{"cache enabled without budget", func(c *Config) { c.Cache.MaxBytes = 0 }},
		{"bad storage type", func(c *Config) { c.Storage.Type = "tape" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }},
		{"zero debounce", func(c *Config) { c.Watch.Debounce = 0 }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Resolve()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate returned nil, want error", tt.name)
		}
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forge.yaml")
	body := `
source_dir: /defs
output_dir: /out
generate:
  import_root: example.com/gen/msgs
  jobs: 8
storage:
  type: s3
  s3:
    bucket: schemas
    region: eu-west-1
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.SourceDir != "/defs" {
		t.Errorf("SourceDir = %q, want /defs", cfg.SourceDir)
	}
	if cfg.Generate.ImportRoot != "example.com/gen/msgs" {
		t.Errorf("ImportRoot = %q", cfg.Generate.ImportRoot)
	}
	if cfg.Generate.Jobs != 8 {
		t.Errorf("Jobs = %d, want 8", cfg.Generate.Jobs)
	}
	if cfg.Storage.S3.Bucket != "schemas" {
		t.Errorf("S3.Bucket = %q, want schemas", cfg.Storage.S3.Bucket)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forge.json")
	body := `{"source_dir": "/defs", "generate": {"jobs": 2}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.SourceDir != "/defs" {
		t.Errorf("SourceDir = %q, want /defs", cfg.SourceDir)
	}
	if cfg.Generate.Jobs != 2 {
		t.Errorf("Jobs = %d, want 2", cfg.Generate.Jobs)
	}
}

func TestLoadFromFileUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forge.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile accepted .toml, want error")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MSGFORGE_SOURCE_DIR", "/env/msgs")
	t.Setenv("MSGFORGE_JOBS", "16")
	t.Setenv("MSGFORGE_PACKAGES", "geometry_msgs,sensor_msgs")
	t.Setenv("MSGFORGE_CACHE_ENABLED", "false")
	t.Setenv("MSGFORGE_STORAGE_TYPE", "s3")
	t.Setenv("MSGFORGE_S3_BUCKET", "release-schemas")
	t.Setenv("MSGFORGE_SOURCE_PREFIX", "defs/v2")
	t.Setenv("MSGFORGE_WATCH_DEBOUNCE", "750ms")
	t.Setenv("MSGFORGE_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.SourceDir != "/env/msgs" {
		t.Errorf("SourceDir = %q", cfg.SourceDir)
	}
	if cfg.Generate.Jobs != 16 {
		t.Errorf("Jobs = %d, want 16", cfg.Generate.Jobs)
	}
	if len(cfg.Generate.Packages) != 2 || cfg.Generate.Packages[0] != "geometry_msgs" {
		t.Errorf("Packages = %v", cfg.Generate.Packages)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
	if cfg.Storage.Type != "s3" || cfg.Storage.S3.Bucket != "release-schemas" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.SourcePrefix != "defs/v2" {
		t.Errorf("SourcePrefix = %q, want defs/v2", cfg.Storage.SourcePrefix)
	}
	if cfg.Watch.Debounce != 750*time.Millisecond {
		t.Errorf("Debounce = %v, want 750ms", cfg.Watch.Debounce)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.SourceDir = filepath.Join(base, "msgs")
	cfg.OutputDir = filepath.Join(base, "gen")
	cfg.DataDir = filepath.Join(base, "data")
	cfg.Resolve()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	for _, dir := range []string{cfg.OutputDir, cfg.DataDir, cfg.Cache.Dir, cfg.Storage.Path} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("stat %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}
