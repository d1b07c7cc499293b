// Package app wires the compiler pipeline end to end: parse the source
// tree, plan against the manifest, generate or restore modules, write
// outputs atomically, and record the results.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/msgforge/msgforge/internal/cache"
	"github.com/msgforge/msgforge/internal/config"
	forgeerr "github.com/msgforge/msgforge/internal/errors"
	"github.com/msgforge/msgforge/internal/fingerprint"
	"github.com/msgforge/msgforge/internal/gen"
	"github.com/msgforge/msgforge/internal/manifest"
	"github.com/msgforge/msgforge/internal/parser"
	"github.com/msgforge/msgforge/internal/schema"
	"github.com/msgforge/msgforge/internal/storage"
	"github.com/msgforge/msgforge/pkg/stdmsgs"
)

// App holds the shared resources of a compiler run: configuration, the
// generation manifest, the blob cache, and the publish store. One App may
// serve many Run calls; Watch reuses it across rebuilds.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	catalog manifest.Catalog
	blobs   *cache.BlobCache // nil when the cache is disabled
	store   storage.ObjectStore

	closeOnce sync.Once
}

// BuildReport summarizes one pipeline run.
type BuildReport struct {
	Parsed    int // definitions parsed from the source tree
	Generated int // modules rendered from scratch
	Cached    int // modules restored from the blob cache
	Unchanged int // modules already current on disk
	Removed   int // orphaned outputs deleted
	Duration  time.Duration
}

// New creates an App from cfg. Paths are resolved, validated, and created
// before any resource opens.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, forgeerr.NewConfigError(err.Error())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	a := &App{cfg: cfg, log: logger}
	if err := a.initSharedResources(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// initSharedResources opens the publish store, the manifest, and the blob
// cache, in that order.
func (a *App) initSharedResources() error {
	var err error

	switch a.cfg.Storage.Type {
	case "local":
		a.store, err = storage.NewLocalStore(a.cfg.Storage.Path)
	case "s3":
		opts := storage.S3Options{
			Region:   a.cfg.Storage.S3.Region,
			Endpoint: a.cfg.Storage.S3.Endpoint,
		}
		a.store, err = storage.NewS3Store(context.Background(), a.cfg.Storage.S3.Bucket, opts)
	default:
		return forgeerr.NewConfigError(fmt.Sprintf("unsupported storage type: %s", a.cfg.Storage.Type))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.log.Debug().Str("type", a.cfg.Storage.Type).Msg("storage initialized")

	a.catalog, err = manifest.NewCatalog(a.cfg.Manifest.Path)
	if err != nil {
		return forgeerr.NewManifestError(forgeerr.CodeOpenFailed, "failed to open manifest", err)
	}
	a.log.Debug().Str("path", a.cfg.Manifest.Path).Msg("manifest opened")

	if a.cfg.Cache.Enabled {
		cacheLog := a.log.With().Str("component", "cache").Logger()
		a.blobs, err = cache.NewBlobCache(a.cfg.Cache.Dir, a.cfg.Cache.MaxBytes, cacheLog)
		if err != nil {
			return forgeerr.NewCacheError(forgeerr.CodeOpenFailed, "failed to open blob cache", err)
		}
		a.log.Debug().Str("dir", a.cfg.Cache.Dir).Int64("max_bytes", a.cfg.Cache.MaxBytes).Msg("cache opened")
	}

	return nil
}

// Store returns the object store publishes go to.
func (a *App) Store() storage.ObjectStore {
	return a.store
}

// Close releases the App's resources. Safe to call more than once and on
// a partially initialized App.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.blobs != nil {
			a.blobs.Close()
		}
		if a.catalog != nil {
			if err := a.catalog.Close(); err != nil {
				a.log.Warn().Err(err).Msg("manifest close failed")
			}
		}
	})
}

// unit carries one message definition through the pipeline. Workers fill
// in the fingerprint and module; the write phase consumes them in input
// order so output and manifest updates are deterministic.
type unit struct {
	src         parser.SourceFile
	hash        string // hex sha256 of src.Data
	fingerprint string
	rec         *manifest.Record // existing row, nil if never recorded
	module      gen.Module
	fromCache   bool
	skip        bool // output already current, nothing to write
}

// Run executes one full pipeline pass and reports what happened.
func (a *App) Run(ctx context.Context) (*BuildReport, error) {
	start := time.Now()
	report := &BuildReport{}

	files, reg, err := parser.ParseTree(a.cfg.SourceDir)
	if err != nil {
		return nil, forgeerr.NewParseError(forgeerr.CodeSyntax, "failed to load definition tree", err)
	}
	report.Parsed = len(files)

	// Header resolves even in trees that never declare it themselves.
	if !reg.Has("std_msgs", "Header") {
		reg.Add(stdmsgs.HeaderSchema())
	}

	targets := a.filterTargets(files)

	// The source map spans every parsed file, not just the targets, so a
	// package filter never makes untouched rows look orphaned.
	sources := make(map[string]string, len(files))
	for i := range files {
		sum := sha256.Sum256(files[i].Data)
		sources[files[i].Schema.FullName()] = hex.EncodeToString(sum[:])
	}

	if err := a.removeOrphans(ctx, sources, report); err != nil {
		return nil, err
	}

	stale, err := a.catalog.Stale(ctx, sources)
	if err != nil {
		return nil, err
	}
	staleSet := make(map[string]bool, len(stale))
	for _, name := range stale {
		staleSet[name] = true
	}

	records, err := a.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*manifest.Record, len(records))
	for _, rec := range records {
		byName[rec.FullName()] = rec
	}

	units := make([]unit, len(targets))
	for i := range targets {
		full := targets[i].Schema.FullName()
		sum := sha256.Sum256(targets[i].Data)
		units[i] = unit{
			src:  targets[i],
			hash: hex.EncodeToString(sum[:]),
			rec:  byName[full],
		}
	}

	generator := gen.New(reg, a.cfg.Generate.ImportRoot)
	if err := a.buildAll(ctx, units, reg, generator, staleSet); err != nil {
		return nil, err
	}

	if err := a.writeAll(ctx, units, report); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	ev := a.log.Info().
		Int("parsed", report.Parsed).
		Int("generated", report.Generated).
		Int("cached", report.Cached).
		Int("unchanged", report.Unchanged).
		Int("removed", report.Removed).
		Dur("duration", report.Duration)
	if a.blobs != nil {
		ev = ev.Float64("cache_hit_rate", a.blobs.HitRate())
	}
	ev.Msg("build complete")

	return report, nil
}

// filterTargets applies the configured package filter. The registry keeps
// every parsed schema either way; the filter narrows what gets generated,
// not what resolves.
func (a *App) filterTargets(files []parser.SourceFile) []parser.SourceFile {
	if len(a.cfg.Generate.Packages) == 0 {
		return files
	}
	allowed := make(map[string]bool, len(a.cfg.Generate.Packages))
	for _, pkg := range a.cfg.Generate.Packages {
		allowed[pkg] = true
	}
	var kept []parser.SourceFile
	for _, f := range files {
		if allowed[f.Schema.Pkg] {
			kept = append(kept, f)
		}
	}
	return kept
}

// removeOrphans deletes outputs and manifest rows for definitions that no
// longer exist in the source tree.
func (a *App) removeOrphans(ctx context.Context, sources map[string]string, report *BuildReport) error {
	orphans, err := a.catalog.Orphans(ctx, sources)
	if err != nil {
		return err
	}
	for _, rec := range orphans {
		outPath := filepath.Join(a.cfg.OutputDir, filepath.FromSlash(rec.OutputPath))
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			return forgeerr.NewGenerateError(forgeerr.CodeWriteFailed,
				fmt.Sprintf("cannot remove orphaned output %s", rec.OutputPath), err)
		}
		if err := a.catalog.Delete(ctx, rec.Pkg, rec.Name); err != nil {
			return err
		}
		report.Removed++
		a.log.Info().Str("module", rec.FullName()).Str("output", rec.OutputPath).Msg("removed orphaned output")
	}
	return nil
}

// buildAll fingerprints and renders every unit on a bounded worker pool.
// Units are independent once the registry is sealed, so order within the
// pool does not matter; the write phase restores input order.
func (a *App) buildAll(ctx context.Context, units []unit, reg *schema.Registry, generator *gen.Generator, stale map[string]bool) error {
	jobs := make(chan int)
	errs := make([]error, len(units))

	workers := a.cfg.Generate.Jobs
	if workers > len(units) && len(units) > 0 {
		workers = len(units)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = a.buildUnit(ctx, &units[i], reg, generator, stale)
			}
		}()
	}
	for i := range units {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Report the first failure in input order, independent of worker
	// scheduling.
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// buildUnit decides whether one module needs work and produces it, from
// the cache when possible.
func (a *App) buildUnit(ctx context.Context, u *unit, reg *schema.Registry, generator *gen.Generator, stale map[string]bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := u.src.Schema
	full := s.FullName()

	fp, err := fingerprint.Fingerprint(ctx, s, reg)
	if err != nil {
		return forgeerr.NewResolveError(forgeerr.CodeUnknownReference,
			fmt.Sprintf("cannot fingerprint %s", full), err)
	}
	u.fingerprint = fp

	// A module is current when the source hash, the recursive fingerprint,
	// and the generator version all match the manifest row and the output
	// file is still intact. A changed dependency shifts the fingerprint
	// even though this source file did not change.
	if u.rec != nil && !stale[full] &&
		u.rec.Fingerprint == fp &&
		u.rec.Generator == gen.Version &&
		a.outputIntact(u.rec) {
		u.skip = true
		return nil
	}

	key := cache.Key(fp, gen.Version)
	if a.blobs != nil {
		if payload, ok := a.blobs.Get(key); ok {
			var mod gen.Module
			if err := json.Unmarshal(payload, &mod); err == nil {
				u.module = mod
				u.fromCache = true
				return nil
			}
			// The blob decompressed but does not hold a module envelope.
			a.blobs.Remove(key)
			a.log.Warn().Str("key", key).Msg("dropping unreadable cache envelope")
		}
	}

	mod, err := generator.Generate(s, fp)
	if err != nil {
		return forgeerr.NewGenerateError(forgeerr.CodeEmitFailed,
			fmt.Sprintf("cannot render %s", full), err)
	}
	u.module = mod

	if a.blobs != nil {
		payload, err := json.Marshal(mod)
		if err != nil {
			return forgeerr.NewInternalError(fmt.Sprintf("cannot encode cache envelope for %s", full), err)
		}
		if err := a.blobs.Put(key, payload); err != nil {
			a.log.Warn().Err(err).Str("module", full).Msg("cache store failed")
		}
	}
	return nil
}

// outputIntact reports whether a recorded output file still exists with
// its recorded size.
func (a *App) outputIntact(rec *manifest.Record) bool {
	info, err := os.Stat(filepath.Join(a.cfg.OutputDir, filepath.FromSlash(rec.OutputPath)))
	return err == nil && info.Size() == rec.SizeBytes
}

// writeAll lands generated modules on disk and records them, in input
// order.
func (a *App) writeAll(ctx context.Context, units []unit, report *BuildReport) error {
	for i := range units {
		u := &units[i]
		if u.skip {
			report.Unchanged++
			// The content did not move but the file may have. Keep the
			// recorded source path honest.
			if u.rec.SourcePath != u.src.Path {
				refreshed := *u.rec
				refreshed.SourcePath = u.src.Path
				if err := a.upsert(ctx, &refreshed); err != nil {
					return err
				}
			}
			continue
		}

		outPath := filepath.Join(a.cfg.OutputDir, filepath.FromSlash(u.module.Path))
		if err := writeFileAtomic(outPath, u.module.Source); err != nil {
			return forgeerr.NewGenerateError(forgeerr.CodeWriteFailed,
				fmt.Sprintf("cannot write %s", u.module.Path), err)
		}

		rec := &manifest.Record{
			Pkg:         u.src.Schema.Pkg,
			Name:        u.src.Schema.Name,
			Fingerprint: u.fingerprint,
			SourcePath:  u.src.Path,
			SourceHash:  u.hash,
			OutputPath:  u.module.Path,
			SizeBytes:   int64(len(u.module.Source)),
			Imports:     u.module.Imports,
			Generator:   gen.Version,
			GeneratedAt: time.Now(),
		}
		if err := a.upsert(ctx, rec); err != nil {
			return err
		}

		if u.fromCache {
			report.Cached++
		} else {
			report.Generated++
		}
		a.log.Debug().
			Str("module", u.src.Schema.FullName()).
			Str("output", u.module.Path).
			Bool("from_cache", u.fromCache).
			Msg("module written")
	}
	return nil
}

func (a *App) upsert(ctx context.Context, rec *manifest.Record) error {
	if err := a.catalog.Upsert(ctx, rec); err != nil {
		return forgeerr.NewManifestError(forgeerr.CodeWriteConflict,
			fmt.Sprintf("failed to record %s", rec.FullName()), err)
	}
	return nil
}

// writeFileAtomic writes data via a salted temp file and rename, so a
// crashed run never leaves a truncated module behind.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString()[:8])
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
