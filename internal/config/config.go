// Package config provides unified configuration for the msgforge compiler.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the unified configuration for a msgforge run.
type Config struct {
	// SourceDir is the root of the .msg definition tree
	SourceDir string `json:"source_dir" yaml:"source_dir"`

	// OutputDir is the root the generated Go tree is written under
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DataDir is the base directory for compiler state (manifest, cache)
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Generate holds code generation settings
	Generate GenerateConfig `json:"generate" yaml:"generate"`

	// Cache holds generation blob cache settings
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Manifest holds generation manifest settings
	Manifest ManifestConfig `json:"manifest" yaml:"manifest"`

	// Storage holds artifact publishing configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Watch holds rebuild-on-change settings
	Watch WatchConfig `json:"watch" yaml:"watch"`

	// Log holds logging configuration
	Log LogConfig `json:"log" yaml:"log"`
}

// GenerateConfig holds code generation settings.
type GenerateConfig struct {
	// ImportRoot anchors cross-package imports in generated files
	ImportRoot string `json:"import_root" yaml:"import_root"`

	// Packages restricts generation to the named packages (empty = all)
	Packages []string `json:"packages" yaml:"packages"`

	// Jobs is the number of parallel generation workers (1-64)
	Jobs int `json:"jobs" yaml:"jobs"`
}

// CacheConfig holds generation blob cache settings.
type CacheConfig struct {
	// Enabled controls whether generated blobs are cached between runs
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the cache directory
	Dir string `json:"dir" yaml:"dir"`

	// MaxBytes caps the on-disk cache size
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// ManifestConfig holds generation manifest settings.
type ManifestConfig struct {
	// Path is the manifest database file
	Path string `json:"path" yaml:"path"`
}

// StorageConfig holds artifact publishing configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// Prefix is prepended to every published object path
	Prefix string `json:"prefix" yaml:"prefix"`

	// SourcePrefix is where remote definition sources live in the store
	SourcePrefix string `json:"source_prefix" yaml:"source_prefix"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// WatchConfig holds rebuild-on-change settings.
type WatchConfig struct {
	// Enabled controls whether the driver stays up and rebuilds on change
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Debounce is how long the watcher coalesces filesystem events
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the minimum level: trace, debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format is the output format: json, console
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		SourceDir: "./msgs",
		OutputDir: "./gen",
		DataDir:   "./data/msgforge",
		Generate: GenerateConfig{
			ImportRoot: "github.com/msgforge/msgs",
			Jobs:       4,
		},
		Cache: CacheConfig{
			Enabled:  true,
			MaxBytes: 256 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Type:         "local",
			SourcePrefix: "sources",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/msgforge"
	}

	if c.Cache.Dir == "" {
		c.Cache.Dir = filepath.Join(c.DataDir, "cache")
	}

	if c.Manifest.Path == "" {
		c.Manifest.Path = filepath.Join(c.DataDir, "manifest.db")
	}

	if c.Storage.Type == "local" && c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "published")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Generate.ImportRoot == "" {
		return fmt.Errorf("generate.import_root is required")
	}
	if c.Generate.Jobs < 1 || c.Generate.Jobs > 64 {
		return fmt.Errorf("generate.jobs must be between 1 and 64, got %d", c.Generate.Jobs)
	}

	if c.Cache.Enabled && c.Cache.MaxBytes <= 0 {
		return fmt.Errorf("cache.max_bytes must be positive when the cache is enabled, got %d", c.Cache.MaxBytes)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %v", c.Watch.Debounce)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the MSGFORGE_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("MSGFORGE_SOURCE_DIR"); v != "" {
		cfg.SourceDir = v
	}
	if v := os.Getenv("MSGFORGE_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("MSGFORGE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Generation configuration
	if v := os.Getenv("MSGFORGE_IMPORT_ROOT"); v != "" {
		cfg.Generate.ImportRoot = v
	}
	if v := os.Getenv("MSGFORGE_PACKAGES"); v != "" {
		cfg.Generate.Packages = strings.Split(v, ",")
	}
	if v := os.Getenv("MSGFORGE_JOBS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Generate.Jobs)
	}

	// Cache configuration
	if v := os.Getenv("MSGFORGE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("MSGFORGE_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("MSGFORGE_CACHE_MAX_BYTES"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Cache.MaxBytes)
	}

	// Manifest configuration
	if v := os.Getenv("MSGFORGE_MANIFEST_PATH"); v != "" {
		cfg.Manifest.Path = v
	}

	// Storage configuration
	if v := os.Getenv("MSGFORGE_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("MSGFORGE_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("MSGFORGE_STORAGE_PREFIX"); v != "" {
		cfg.Storage.Prefix = v
	}
	if v := os.Getenv("MSGFORGE_SOURCE_PREFIX"); v != "" {
		cfg.Storage.SourcePrefix = v
	}
	if v := os.Getenv("MSGFORGE_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("MSGFORGE_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("MSGFORGE_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}

	// Watch configuration
	if v := os.Getenv("MSGFORGE_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.Debounce = d
		}
	}

	// Log configuration
	if v := os.Getenv("MSGFORGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MSGFORGE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.OutputDir,
	}
	if c.Cache.Enabled {
		dirs = append(dirs, c.Cache.Dir)
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
