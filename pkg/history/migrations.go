package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
)

type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "init_runs",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id TEXT PRIMARY KEY,
				command TEXT NOT NULL,
				started_at TEXT NOT NULL,
				finished_at TEXT NOT NULL,
				host TEXT,
				kernel TEXT,
				machine TEXT,
				ssid TEXT,
				ip TEXT,
				connected INTEGER NOT NULL DEFAULT 0,
				error TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		},
	},
	{
		version: 2,
		name:    "add_run_checks",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS run_checks (
				run_id TEXT NOT NULL,
				seq INTEGER NOT NULL,
				name TEXT NOT NULL,
				status TEXT NOT NULL,
				detail TEXT,
				PRIMARY KEY (run_id, seq),
				FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
			)`,
		},
	},
}

// Migrate applies pending migrations. Each migration commits in its own
// transaction and is recorded in schema_migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return cerr.New("db is nil")
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return cerr.Wrap(err, "enable foreign keys")
	}
	if err := validateMigrations(); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return cerr.Wrap(err, "create schema_migrations")
	}

	applied, err := loadAppliedVersions(ctx, db)
	if err != nil {
		return err
	}
	for version := range applied {
		if !knownVersion(version) {
			return cerr.WithHint(
				cerr.Newf("unknown schema migration version %d", version),
				"the history database was written by a newer pirescue; move it aside")
		}
	}
	for _, m := range migrations {
		if _, ok := applied[m.version]; ok {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func loadAppliedVersions(ctx context.Context, db *sql.DB) (map[int]struct{}, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, cerr.Wrap(err, "list schema_migrations")
	}
	defer rows.Close()

	applied := make(map[int]struct{})
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, cerr.Wrap(err, "scan schema_migrations")
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.Wrap(err, "iterate schema_migrations")
	}
	return applied, nil
}

func knownVersion(version int) bool {
	for _, m := range migrations {
		if m.version == version {
			return true
		}
	}
	return false
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return cerr.Wrapf(err, "begin migration %d", m.version)
	}
	for _, stmt := range m.statements {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, trimmed); err != nil {
			_ = tx.Rollback()
			return cerr.Wrapf(err, "exec migration %d", m.version)
		}
	}
	appliedAt := time.Now().UTC().Format(timeLayout)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, appliedAt); err != nil {
		_ = tx.Rollback()
		return cerr.Wrapf(err, "record migration %d", m.version)
	}
	if err := tx.Commit(); err != nil {
		return cerr.Wrapf(err, "commit migration %d", m.version)
	}
	return nil
}

func validateMigrations() error {
	prev := 0
	for _, m := range migrations {
		if m.version <= prev {
			return cerr.AssertionFailedf("migration %d is out of order or duplicated", m.version)
		}
		if m.name == "" || len(m.statements) == 0 {
			return cerr.AssertionFailedf("migration %d is incomplete", m.version)
		}
		prev = m.version
	}
	return nil
}
