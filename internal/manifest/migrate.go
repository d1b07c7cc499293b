package manifest

import (
	"database/sql"
	"fmt"
	"strconv"
)

// CurrentSchemaVersion is the manifest format version this build reads and writes.
// Bump it together with a new entry in migrations.
const CurrentSchemaVersion = 1

// migration is one manifest format upgrade step. Steps run in order inside
// a single transaction and the meta version is updated only when all of
// them succeed.
type migration struct {
	version int
	apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{
		version: 1,
		apply: func(tx *sql.Tx) error {
			for _, stmt := range AllSchemaSQL() {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("failed to execute schema statement: %w", err)
				}
			}
			return nil
		},
	},
}

// migrate brings the manifest database up to CurrentSchemaVersion.
// A database written by a newer build is refused rather than modified.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(CreateMetaTableSQL); err != nil {
		return fmt.Errorf("manifest: failed to create meta table: %w", err)
	}

	version, err := storedSchemaVersion(db)
	if err != nil {
		return err
	}

	if version > CurrentSchemaVersion {
		return fmt.Errorf("manifest: database schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}
	if version == CurrentSchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("manifest: failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := m.apply(tx); err != nil {
			return fmt.Errorf("manifest: migration to version %d failed: %w", m.version, err)
		}
	}

	_, err = tx.Exec(
		"INSERT INTO meta (key, value) VALUES ('schema_version', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		strconv.Itoa(CurrentSchemaVersion),
	)
	if err != nil {
		return fmt.Errorf("manifest: failed to record schema version: %w", err)
	}

	return tx.Commit()
}

// storedSchemaVersion reads the manifest format version from the meta table.
// Returns 0 for a fresh database.
func storedSchemaVersion(db *sql.DB) (int, error) {
	var value string
	err := db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("manifest: failed to read schema version: %w", err)
	}

	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("manifest: corrupt schema version %q: %w", value, err)
	}
	return version, nil
}
