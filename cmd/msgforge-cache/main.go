// Package main implements the msgforge-cache admin binary for inspecting
// and maintaining the generated module cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/msgforge/msgforge/internal/cache"
	"github.com/msgforge/msgforge/internal/config"
	"github.com/msgforge/msgforge/internal/gen"
	"github.com/msgforge/msgforge/internal/manifest"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "stats":
		err = runStats(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "evict":
		err = runEvict(os.Args[2:])
	case "prune":
		err = runPrune(os.Args[2:])
	case "help", "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "msgforge-cache: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "msgforge-cache: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "msgforge-cache - generated module cache maintenance\n\n")
	fmt.Fprintf(os.Stderr, "Usage: msgforge-cache <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  stats    Print entry count, size, and usage\n")
	fmt.Fprintf(os.Stderr, "  verify   Decode every entry and drop the corrupt ones\n")
	fmt.Fprintf(os.Stderr, "  evict    Evict entries down to a target size\n")
	fmt.Fprintf(os.Stderr, "  prune    Drop entries from other generator versions\n\n")
	fmt.Fprintf(os.Stderr, "Common options:\n")
	fmt.Fprintf(os.Stderr, "  -config PATH     Configuration file (YAML or JSON)\n")
	fmt.Fprintf(os.Stderr, "  -data-dir PATH   Directory holding the cache\n")
}

// cacheFlags registers the options every subcommand shares.
func cacheFlags(fs *flag.FlagSet) (configFile, dataDir *string) {
	configFile = fs.String("config", "", "Path to configuration file (YAML or JSON)")
	dataDir = fs.String("data-dir", "", "Directory holding the cache")
	return configFile, dataDir
}

// loadConfig resolves configuration the same way the compiler does.
func loadConfig(configFile, dataDir string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	cfg.Resolve()
	return cfg, nil
}

// openCache opens the blob cache the compiler would use.
func openCache(configFile, dataDir string) (*cache.BlobCache, *config.Config, error) {
	cfg, err := loadConfig(configFile, dataDir)
	if err != nil {
		return nil, nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	c, err := cache.NewBlobCache(cfg.Cache.Dir, cfg.Cache.MaxBytes, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configFile, dataDir := cacheFlags(fs)
	fs.Parse(args)

	c, cfg, err := openCache(*configFile, *dataDir)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("entries:  %d\n", c.Count())
	fmt.Printf("size:     %s\n", humanBytes(c.Size()))
	fmt.Printf("capacity: %s\n", humanBytes(c.Capacity()))
	fmt.Printf("usage:    %.1f%%\n", c.Usage()*100)

	// The manifest sits beside the cache; a missing one just means no
	// build has run yet.
	if _, err := os.Stat(cfg.Manifest.Path); err == nil {
		catalog, err := manifest.NewCatalog(cfg.Manifest.Path)
		if err != nil {
			return err
		}
		defer catalog.Close()
		count, err := catalog.Count(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("modules:  %d\n", count)
	}
	return nil
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	configFile, dataDir := cacheFlags(fs)
	fs.Parse(args)

	c, _, err := openCache(*configFile, *dataDir)
	if err != nil {
		return err
	}
	defer c.Close()

	checked, dropped := c.Verify()
	fmt.Printf("checked %d entries, dropped %d corrupt\n", checked, dropped)
	return nil
}

func runEvict(args []string) error {
	fs := flag.NewFlagSet("evict", flag.ExitOnError)
	configFile, dataDir := cacheFlags(fs)
	target := fs.Int64("target-bytes", -1, "Size to evict the cache down to (default the configured capacity)")
	fs.Parse(args)

	c, _, err := openCache(*configFile, *dataDir)
	if err != nil {
		return err
	}
	defer c.Close()

	size := *target
	if size < 0 {
		size = c.Capacity()
	}
	evicted := c.TrimTo(size)
	fmt.Printf("evicted %d entries, %s in use\n", evicted, humanBytes(c.Size()))
	return nil
}

func runPrune(args []string) error {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	configFile, dataDir := cacheFlags(fs)
	fs.Parse(args)

	c, _, err := openCache(*configFile, *dataDir)
	if err != nil {
		return err
	}
	defer c.Close()

	// Entries from older generator versions can never hit again.
	suffix := "-g" + gen.Version
	removed := c.Prune(func(key string) bool {
		return strings.HasSuffix(key, suffix)
	})
	fmt.Printf("pruned %d entries from other generator versions\n", removed)
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
