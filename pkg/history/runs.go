package history

import (
	"context"
	"database/sql"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const timeLayout = time.RFC3339Nano

// Check is one diagnostic line as recorded.
type Check struct {
	Name   string
	Status string
	Detail string
}

// Run is one recorded invocation.
type Run struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	Host       string
	Kernel     string
	Machine    string
	SSID       string
	IPAddress  string
	Connected  bool
	Error      string
	Checks     []Check
}

// NewRun stamps a run with a fresh ID, the start time and host facts.
func NewRun(command string) *Run {
	facts := LocalHost()
	return &Run{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: time.Now().UTC(),
		Host:      facts.Hostname,
		Kernel:    facts.Kernel,
		Machine:   facts.Machine,
	}
}

// Finish records the end time and, if err is non-nil, its message.
func (r *Run) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is zero for unfinished runs.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Record stores r and its checks in one transaction.
func (s *Store) Record(ctx context.Context, r *Run) error {
	if s == nil || s.DB == nil {
		return cerr.New("history store is nil")
	}
	if r == nil || strings.TrimSpace(r.ID) == "" {
		return cerr.AssertionFailedf("run id is required")
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return cerr.Wrap(err, "begin record run")
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, command, started_at, finished_at, host, kernel, machine, ssid, ip, connected, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Command,
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
		r.Host, r.Kernel, r.Machine, r.SSID, r.IPAddress, boolToInt(r.Connected), nullString(r.Error))
	if err != nil {
		_ = tx.Rollback()
		return cerr.Wrapf(err, "insert run %s", r.ID)
	}
	for i, c := range r.Checks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_checks (run_id, seq, name, status, detail) VALUES (?, ?, ?, ?, ?)`,
			r.ID, i, c.Name, c.Status, c.Detail); err != nil {
			_ = tx.Rollback()
			return cerr.Wrapf(err, "insert check %q", c.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return cerr.Wrap(err, "commit record run")
	}

	otelzap.Ctx(ctx).Debug("Run recorded",
		zap.String("run_id", r.ID),
		zap.String("command", r.Command),
		zap.Int("checks", len(r.Checks)))
	return nil
}

// List returns up to limit runs, newest first, with their checks.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.DB == nil {
		return nil, cerr.New("history store is nil")
	}
	if limit <= 0 {
		return nil, cerr.Newf("limit must be positive, got %d", limit)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, command, started_at, finished_at, host, kernel,
		machine, ssid, ip, connected, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, cerr.Wrap(err, "list runs")
	}
	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, cerr.Wrap(err, "iterate runs")
	}
	_ = rows.Close()

	// Single connection: checks are loaded after the runs cursor is closed.
	for i := range out {
		checks, err := s.checks(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Checks = checks
	}
	return out, nil
}

// Get returns one run by ID, or sql.ErrNoRows wrapped.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	if s == nil || s.DB == nil {
		return Run{}, cerr.New("history store is nil")
	}
	row := s.DB.QueryRowContext(ctx, `SELECT id, command, started_at, finished_at, host, kernel,
		machine, ssid, ip, connected, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, err
	}
	run.Checks, err = s.checks(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) checks(ctx context.Context, runID string) ([]Check, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT name, status, detail FROM run_checks WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, cerr.Wrapf(err, "list checks for %s", runID)
	}
	defer rows.Close()

	var out []Check
	for rows.Next() {
		var c Check
		var detail sql.NullString
		if err := rows.Scan(&c.Name, &c.Status, &detail); err != nil {
			return nil, cerr.Wrap(err, "scan check")
		}
		c.Detail = detail.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.Wrap(err, "iterate checks")
	}
	return out, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		r                           Run
		started, finished           string
		host, kernel, machine, ssid sql.NullString
		ip, runErr                  sql.NullString
		connected                   int
	)
	if err := scanner.Scan(&r.ID, &r.Command, &started, &finished, &host, &kernel,
		&machine, &ssid, &ip, &connected, &runErr); err != nil {
		return Run{}, cerr.Wrap(err, "scan run")
	}
	var err error
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, cerr.Wrapf(err, "parse started_at for %s", r.ID)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, cerr.Wrapf(err, "parse finished_at for %s", r.ID)
	}
	r.Host = host.String
	r.Kernel = kernel.String
	r.Machine = machine.String
	r.SSID = ssid.String
	r.IPAddress = ip.String
	r.Connected = connected != 0
	r.Error = runErr.String
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
