package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// migrations[i] upgrades the schema from version i to i+1.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at    TEXT NOT NULL,
			command     TEXT NOT NULL,
			version     TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS repo_scores (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id     INTEGER NOT NULL REFERENCES snapshots(id),
			repository      TEXT NOT NULL,
			url             TEXT,
			stars           INTEGER NOT NULL,
			forks           INTEGER NOT NULL,
			open_issues     INTEGER NOT NULL,
			score           INTEGER NOT NULL,
			readme_words    INTEGER NOT NULL,
			comment_ratio   REAL NOT NULL,
			markdown_files  INTEGER NOT NULL,
			has_docs_folder BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
			repository  TEXT NOT NULL,
			criterion   TEXT NOT NULL,
			issue       TEXT NOT NULL,
			suggestion  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS aggregate_metrics (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id  INTEGER NOT NULL REFERENCES snapshots(id),
			metric_name  TEXT NOT NULL,
			metric_value REAL NOT NULL,
			detail       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_repo_scores_snapshot ON repo_scores(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_repo_scores_repository ON repo_scores(repository)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_snapshot ON findings(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_aggregate_snapshot ON aggregate_metrics(snapshot_id)`,
	},
}

// SchemaVersion is the schema version after all migrations have run.
func SchemaVersion() int {
	return len(migrations)
}

// Migrate applies any migrations newer than the stored schema version.
// Each migration runs in its own transaction together with the version bump.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version, err := db.schemaVersion()
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this reposcout (%d)", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		err := db.withTx(func(tx *sql.Tx) error {
			for _, stmt := range migrations[v] {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v+1)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration v%d: %w", v+1, err)
		}
	}
	return nil
}

func (db *DB) schemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
