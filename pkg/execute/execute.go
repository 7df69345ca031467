// pkg/execute/execute.go

package execute

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Options describes one external command.
type Options struct {
	Command string
	Args    []string
	// Sudo prefixes the command with sudo when the process is not root.
	Sudo bool
	// ReadOnly commands only query state and still run in dry-run mode.
	ReadOnly bool
	Timeout  time.Duration
	Retries  int
	Delay    time.Duration
	Logger   *zap.Logger
}

// CommandLine renders the command without any privilege prefix.
func (o Options) CommandLine() string {
	return buildCommandString(o.Command, o.Args...)
}

// Runner executes external commands and returns their combined output.
type Runner interface {
	Run(ctx context.Context, opts Options) (string, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	DryRun bool
	Logger *zap.Logger
	// Geteuid is swapped in tests.
	Geteuid func() int
}

// NewRunner returns an ExecRunner logging to logger.
func NewRunner(logger *zap.Logger, dryRun bool) *ExecRunner {
	return &ExecRunner{DryRun: dryRun, Logger: logger, Geteuid: os.Geteuid}
}

// Run executes a command with structured logging and bounded retries.
func (r *ExecRunner) Run(ctx context.Context, opts Options) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	name, args := r.resolve(opts)
	cmdStr := buildCommandString(name, args...)

	ctx, span := telemetry.Start(ctx, "execute.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("command", opts.Command),
		attribute.String("args", strings.Join(opts.Args, " ")),
		attribute.Bool("sudo", name == "sudo"),
		attribute.Bool("read_only", opts.ReadOnly),
	)

	if r.DryRun && !opts.ReadOnly {
		logger.Info("Dry run mode - command not executed", zap.String("command", cmdStr))
		return "", nil
	}

	logger.Debug("Starting execution", zap.String("command", cmdStr))

	var (
		output string
		err    error
	)
	attempts := max(1, opts.Retries)
	for i := 1; i <= attempts; i++ {
		output, err = runOnce(ctx, defaultTimeout(opts.Timeout), name, args)
		if err == nil {
			logger.Debug("Execution succeeded", zap.String("command", cmdStr))
			return output, nil
		}

		span.RecordError(err)
		logger.Debug("Execution failed",
			zap.Int("attempt", i),
			zap.String("command", cmdStr),
			zap.String("summary", rescue_err.ExtractSummary(output, 2)),
			zap.Error(err),
		)

		if i < attempts {
			select {
			case <-ctx.Done():
				return output, cerr.Wrapf(ctx.Err(), "%s interrupted", cmdStr)
			case <-time.After(opts.Delay):
			}
		}
	}

	if attempts > 1 {
		return output, cerr.Wrapf(err, "%s failed after %d attempts", cmdStr, attempts)
	}
	return output, cerr.Wrapf(err, "%s failed", cmdStr)
}

func (r *ExecRunner) resolve(opts Options) (string, []string) {
	geteuid := r.Geteuid
	if geteuid == nil {
		geteuid = os.Geteuid
	}
	if opts.Sudo && geteuid() != 0 {
		return "sudo", append([]string{"-n", opts.Command}, opts.Args...)
	}
	return opts.Command, opts.Args
}

func runOnce(ctx context.Context, timeout time.Duration, name string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = cerr.Wrapf(ctx.Err(), "timed out after %s", timeout)
	}
	return buf.String(), err
}

// ExitCode extracts the process exit status from err, or -1 when there is none.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// IsNotFound reports whether err means the executable is missing from PATH.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
