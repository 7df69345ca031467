// Package history persists one row per pirescue invocation in SQLite so an
// operator can see what was attempted on a box that was unreachable at the
// time.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/shared"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle.
type Store struct {
	Path string
	DB   *sql.DB
}

// Open creates the parent directory, applies pragmas and runs migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, cerr.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), shared.RuntimeDirPerms); err != nil {
		return nil, cerr.Wrapf(err, "create history dir %s", filepath.Dir(path))
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cerr.Wrapf(err, "open sqlite %s", path)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, cerr.Wrapf(err, "ping sqlite %s", path)
	}
	if err := Migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	otelzap.Ctx(ctx).Debug("History store ready", zap.String("path", path))
	return &Store{Path: path, DB: conn}, nil
}

// Close is safe on a nil Store.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return cerr.Wrapf(err, "apply pragma %q", pragma)
		}
	}
	return nil
}
