// Package manifest provides the generation manifest for tracking module metadata.
package manifest

// Schema contains the SQL schema definitions for the manifest (manifest.db).
// The manifest is a SQLite database that records, for every generated module,
// what was generated from which source and when.

// CreateModulesTableSQL creates the core modules table.
// One row per generated module, keyed by package and message name.
const CreateModulesTableSQL = `
CREATE TABLE IF NOT EXISTS modules (
    pkg TEXT NOT NULL,
    name TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    source_path TEXT NOT NULL,
    source_hash TEXT NOT NULL,
    output_path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    imports TEXT NOT NULL,
    generator TEXT NOT NULL,
    generated_at INTEGER NOT NULL,
    PRIMARY KEY (pkg, name)
)`

// CreateModulesIndexesSQL creates indexes for the common lookup patterns.
var CreateModulesIndexesSQL = []string{
	// Index for per-package listings
	`CREATE INDEX IF NOT EXISTS idx_modules_pkg ON modules(pkg)`,

	// Index for fingerprint lookups (cache verification, publish audits)
	`CREATE INDEX IF NOT EXISTS idx_modules_fingerprint ON modules(fingerprint)`,

	// Index for age-ordered listings
	`CREATE INDEX IF NOT EXISTS idx_modules_generated ON modules(generated_at)`,
}

// CreateMetaTableSQL creates the meta table.
// It holds the manifest format version and other single-value state.
const CreateMetaTableSQL = `
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// AllSchemaSQL returns all SQL statements needed to initialize the manifest.
func AllSchemaSQL() []string {
	statements := []string{
		CreateModulesTableSQL,
		CreateMetaTableSQL,
	}
	statements = append(statements, CreateModulesIndexesSQL...)
	return statements
}
