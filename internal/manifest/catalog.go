package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrModuleNotFound is returned by Lookup when no row exists for the module.
var ErrModuleNotFound = errors.New("manifest: module not found")

// Record represents one generated module in the manifest.
type Record struct {
	Pkg         string
	Name        string
	Fingerprint string
	SourcePath  string
	SourceHash  string
	OutputPath  string
	SizeBytes   int64
	Imports     []string
	Generator   string
	GeneratedAt time.Time
}

// FullName returns the qualified message name, e.g. "geometry_msgs/Vector3".
func (r *Record) FullName() string {
	return r.Pkg + "/" + r.Name
}

// Catalog records what was generated from which source.
type Catalog interface {
	// Upsert inserts or replaces the row for a module.
	Upsert(ctx context.Context, rec *Record) error

	// Lookup retrieves a single module row.
	// Returns ErrModuleNotFound if the module has never been recorded.
	Lookup(ctx context.Context, pkg, name string) (*Record, error)

	// ListPackage returns all rows for a package, ordered by name.
	ListPackage(ctx context.Context, pkg string) ([]*Record, error)

	// ListAll returns every row, ordered by package then name.
	ListAll(ctx context.Context) ([]*Record, error)

	// Delete removes the row for a module. Deleting a missing row is not an error.
	Delete(ctx context.Context, pkg, name string) error

	// Stale returns the qualified names whose recorded source hash differs
	// from the current one, plus names with no row at all. sources maps
	// qualified names to source content hashes.
	Stale(ctx context.Context, sources map[string]string) ([]string, error)

	// Orphans returns rows whose source no longer exists, ordered by
	// package then name. sources maps qualified names to source content hashes.
	Orphans(ctx context.Context, sources map[string]string) ([]*Record, error)

	// Count returns the total number of recorded modules.
	Count(ctx context.Context) (int64, error)

	// Close closes the manifest database connections.
	Close() error
}

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db     *sql.DB // Write connection (single writer)
	readDB *sql.DB // Read connection pool (concurrent readers)
	dbPath string
	mu     sync.Mutex // Write-only lock (reads don't need this)

	upsertStmt *sql.Stmt
}

// NewCatalog opens (creating and migrating if needed) a SQLite-based manifest.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	// Write connection: single writer with WAL mode
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // Single writer
	db.SetMaxIdleConns(1)

	// Migrate before the read connection opens so a fresh database file
	// exists by the time the read-only pool connects.
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Read connection pool: concurrent readers via read-only mode
	readDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: failed to open read database: %w", err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(5 * time.Minute)

	upsertStmt, err := db.Prepare(`
		INSERT INTO modules (
			pkg, name, fingerprint, source_path, source_hash,
			output_path, size_bytes, imports, generator, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pkg, name) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			source_path = excluded.source_path,
			source_hash = excluded.source_hash,
			output_path = excluded.output_path,
			size_bytes = excluded.size_bytes,
			imports = excluded.imports,
			generator = excluded.generator,
			generated_at = excluded.generated_at`)
	if err != nil {
		readDB.Close()
		db.Close()
		return nil, fmt.Errorf("manifest: failed to prepare upsert statement: %w", err)
	}

	return &SQLiteCatalog{
		db:         db,
		readDB:     readDB,
		dbPath:     dbPath,
		upsertStmt: upsertStmt,
	}, nil
}

// Upsert inserts or replaces the row for a module.
func (c *SQLiteCatalog) Upsert(ctx context.Context, rec *Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	imports, err := json.Marshal(rec.Imports)
	if err != nil {
		return fmt.Errorf("manifest: failed to marshal imports: %w", err)
	}

	_, err = c.upsertStmt.ExecContext(ctx,
		rec.Pkg, rec.Name, rec.Fingerprint, rec.SourcePath, rec.SourceHash,
		rec.OutputPath, rec.SizeBytes, string(imports), rec.Generator, rec.GeneratedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("manifest: failed to upsert module %s/%s: %w", rec.Pkg, rec.Name, err)
	}

	return nil
}

const selectColumns = `pkg, name, fingerprint, source_path, source_hash,
	output_path, size_bytes, imports, generator, generated_at`

// Lookup retrieves a single module row.
func (c *SQLiteCatalog) Lookup(ctx context.Context, pkg, name string) (*Record, error) {
	row := c.readDB.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM modules WHERE pkg = ? AND name = ?`,
		pkg, name,
	)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrModuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to scan module: %w", err)
	}
	return rec, nil
}

// ListPackage returns all rows for a package, ordered by name.
func (c *SQLiteCatalog) ListPackage(ctx context.Context, pkg string) ([]*Record, error) {
	rows, err := c.readDB.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM modules WHERE pkg = ? ORDER BY name ASC`,
		pkg,
	)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to query package %s: %w", pkg, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListAll returns every row, ordered by package then name.
func (c *SQLiteCatalog) ListAll(ctx context.Context) ([]*Record, error) {
	rows, err := c.readDB.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM modules ORDER BY pkg ASC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to query modules: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Delete removes the row for a module.
func (c *SQLiteCatalog) Delete(ctx context.Context, pkg, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		"DELETE FROM modules WHERE pkg = ? AND name = ?",
		pkg, name,
	)
	if err != nil {
		return fmt.Errorf("manifest: failed to delete module %s/%s: %w", pkg, name, err)
	}
	return nil
}

// Stale returns the qualified names needing regeneration because their
// source content changed or they were never recorded.
func (c *SQLiteCatalog) Stale(ctx context.Context, sources map[string]string) ([]string, error) {
	records, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Record, len(records))
	for _, rec := range records {
		byName[rec.FullName()] = rec
	}

	var stale []string
	for name, hash := range sources {
		rec, ok := byName[name]
		if !ok || rec.SourceHash != hash {
			stale = append(stale, name)
		}
	}

	sort.Strings(stale)
	return stale, nil
}

// Orphans returns rows whose source no longer exists.
func (c *SQLiteCatalog) Orphans(ctx context.Context, sources map[string]string) ([]*Record, error) {
	records, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var orphans []*Record
	for _, rec := range records {
		if _, ok := sources[rec.FullName()]; !ok {
			orphans = append(orphans, rec)
		}
	}
	return orphans, nil
}

// Count returns the total number of recorded modules.
func (c *SQLiteCatalog) Count(ctx context.Context) (int64, error) {
	var count int64
	err := c.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM modules").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("manifest: failed to count modules: %w", err)
	}
	return count, nil
}

// Close closes the manifest database connections.
func (c *SQLiteCatalog) Close() error {
	if c.upsertStmt != nil {
		c.upsertStmt.Close()
	}

	// Close read connection first, then write connection
	if err := c.readDB.Close(); err != nil {
		c.db.Close()
		return err
	}
	return c.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans one row into a Record.
func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var importsJSON string
	var generatedAtUnix int64

	err := row.Scan(
		&rec.Pkg, &rec.Name, &rec.Fingerprint, &rec.SourcePath, &rec.SourceHash,
		&rec.OutputPath, &rec.SizeBytes, &importsJSON, &rec.Generator, &generatedAtUnix,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(importsJSON), &rec.Imports); err != nil {
		return nil, fmt.Errorf("corrupt imports column for %s/%s: %w", rec.Pkg, rec.Name, err)
	}

	rec.GeneratedAt = time.Unix(generatedAtUnix, 0)
	return &rec, nil
}

// collectRecords drains rows into records.
func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("manifest: failed to scan module: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifest: error iterating modules: %w", err)
	}

	return records, nil
}
