// Package main implements the msgforge binary: a batch compiler from
// message definition trees to Go source, with optional watch and publish
// modes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/msgforge/msgforge/internal/app"
	"github.com/msgforge/msgforge/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// A .env next to the binary is a convenience for local runs.
	_ = godotenv.Load()

	var (
		configFile  string
		sourceDir   string
		outputDir   string
		dataDir     string
		importRoot  string
		packages    string
		jobs        int
		watch       bool
		publish     bool
		fetch       bool
		noCache     bool
		verbose     bool
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&sourceDir, "src", "", "Root of the message definition tree")
	flag.StringVar(&outputDir, "out", "", "Root for generated Go source")
	flag.StringVar(&dataDir, "data-dir", "", "Directory for the manifest and blob cache")
	flag.StringVar(&importRoot, "import-root", "", "Go import path anchoring generated packages")
	flag.StringVar(&packages, "packages", "", "Comma-separated list of packages to generate (default all)")
	flag.IntVar(&jobs, "jobs", 0, "Number of parallel generation workers")
	flag.BoolVar(&watch, "watch", false, "Rebuild whenever the source tree changes")
	flag.BoolVar(&publish, "publish", false, "Upload generated source to the object store after the build")
	flag.BoolVar(&fetch, "fetch", false, "Mirror remote definition sources into the source tree before the build")
	flag.BoolVar(&noCache, "no-cache", false, "Disable the generated module cache")
	flag.BoolVar(&verbose, "verbose", false, "Log at debug level")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "msgforge - message definition compiler for Go\n\n")
		fmt.Fprintf(os.Stderr, "Usage: msgforge [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  msgforge -src ./msgs -out ./gen\n")
		fmt.Fprintf(os.Stderr, "  msgforge -src ./msgs -out ./gen -watch\n")
		fmt.Fprintf(os.Stderr, "  msgforge -config /etc/msgforge/config.yaml -publish\n")
		fmt.Fprintf(os.Stderr, "  msgforge -packages geometry_msgs,sensor_msgs -jobs 8\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MSGFORGE_SOURCE_DIR    Root of the message definition tree\n")
		fmt.Fprintf(os.Stderr, "  MSGFORGE_OUTPUT_DIR    Root for generated Go source\n")
		fmt.Fprintf(os.Stderr, "  MSGFORGE_DATA_DIR      Directory for the manifest and blob cache\n")
		fmt.Fprintf(os.Stderr, "  MSGFORGE_IMPORT_ROOT   Go import path anchoring generated packages\n")
		fmt.Fprintf(os.Stderr, "  MSGFORGE_JOBS          Number of parallel generation workers\n")
		fmt.Fprintf(os.Stderr, "  MSGFORGE_STORAGE_TYPE  Publish target type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  MSGFORGE_LOG_LEVEL     trace, debug, info, warn, error\n")
		fmt.Fprintf(os.Stderr, "  MSGFORGE_LOG_FORMAT    json or console\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("msgforge version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, sourceDir, outputDir, dataDir, importRoot, packages, jobs, watch, noCache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "msgforge: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger := setupLogger(cfg)
	logger.Info().
		Str("version", version).
		Str("src", cfg.SourceDir).
		Str("out", cfg.OutputDir).
		Int("jobs", cfg.Generate.Jobs).
		Bool("cache", cfg.Cache.Enabled).
		Msg("msgforge starting")

	if watch && publish {
		logger.Fatal().Msg("-watch and -publish cannot be combined")
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if fetch {
		if _, err := application.Fetch(ctx); err != nil {
			logger.Fatal().Err(err).Msg("fetch failed")
		}
	}

	if watch {
		if err := application.Watch(ctx); err != nil {
			logger.Fatal().Err(err).Msg("watch failed")
		}
		return
	}

	report, err := application.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("build failed")
	}

	if publish {
		if _, err := application.Publish(ctx); err != nil {
			logger.Fatal().Err(err).Msg("publish failed")
		}
	}

	fmt.Printf("msgforge: %d parsed, %d generated, %d cached, %d unchanged, %d removed in %v\n",
		report.Parsed, report.Generated, report.Cached, report.Unchanged, report.Removed,
		report.Duration.Round(time.Millisecond))
}

// loadConfig layers configuration: file, then environment, then flags.
func loadConfig(configFile, sourceDir, outputDir, dataDir, importRoot, packages string, jobs int, watch, noCache bool) (*config.Config, error) {
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

	if sourceDir != "" {
		cfg.SourceDir = sourceDir
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if importRoot != "" {
		cfg.Generate.ImportRoot = importRoot
	}
	if packages != "" {
		cfg.Generate.Packages = strings.Split(packages, ",")
	}
	if jobs > 0 {
		cfg.Generate.Jobs = jobs
	}
	if watch {
		cfg.Watch.Enabled = true
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	return cfg, nil
}

// setupLogger builds the root logger from the log section of the config.
func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
