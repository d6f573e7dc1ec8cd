package storage

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createLedgerTables(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Info("Ledger schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		db.logger.Debug("Ledger schema is up to date", "version", version)
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("ledger schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running ledger migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	// Version 0 is a file without tables, e.g. left behind by a crash
	// during creation.
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createLedgerTables(tx); err != nil {
			return err
		}
		return setSchemaVersion(tx, currentSchemaVersion)
	})
}

func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createLedgerTables creates the run, artifact and dependency tables.
// An artifact row always reflects the last run that wrote it.
func createLedgerTables(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			tool_version TEXT NOT NULL,
			status TEXT NOT NULL,
			seed_count INTEGER NOT NULL,
			artifact_count INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)
	`); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS artifacts (
			location TEXT NOT NULL,
			binary_name TEXT NOT NULL,
			package TEXT NOT NULL,
			file TEXT NOT NULL,
			sha256 TEXT NOT NULL,
			size INTEGER NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			written_at TEXT NOT NULL,
			PRIMARY KEY (location, binary_name)
		)
	`); err != nil {
		return fmt.Errorf("failed to create artifacts table: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS artifact_dependencies (
			location TEXT NOT NULL,
			binary_name TEXT NOT NULL,
			seed TEXT NOT NULL,
			PRIMARY KEY (location, binary_name, seed),
			FOREIGN KEY (location, binary_name)
				REFERENCES artifacts(location, binary_name) ON DELETE CASCADE
		)
	`); err != nil {
		return fmt.Errorf("failed to create artifact_dependencies table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_artifact_dependencies_seed ON artifact_dependencies(seed)",
		"CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create ledger index: %w", err)
		}
	}
	return nil
}
