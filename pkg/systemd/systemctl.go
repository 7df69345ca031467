// pkg/systemd/systemctl.go

package systemd

import (
	"context"
	"fmt"
	"strings"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Systemctl exit codes, see systemctl(1).
const (
	ExitSuccess     = 0
	ExitGenericFail = 1
	ExitInactive    = 3
	ExitUnknown     = 4
	ExitNotLoaded   = 5
)

// SystemctlCommand represents a systemctl subcommand.
type SystemctlCommand string

const (
	CmdIsActive  SystemctlCommand = "is-active"
	CmdIsEnabled SystemctlCommand = "is-enabled"
	CmdStart     SystemctlCommand = "start"
	CmdRestart   SystemctlCommand = "restart"
	CmdEnable    SystemctlCommand = "enable"
)

// InterpretExitCode turns a systemctl exit status into a readable state.
func InterpretExitCode(cmd SystemctlCommand, exitCode int) string {
	switch cmd {
	case CmdIsActive:
		switch exitCode {
		case ExitSuccess:
			return "active"
		case ExitInactive:
			return "inactive"
		case ExitUnknown:
			return "unknown"
		case ExitNotLoaded:
			return "not loaded"
		}
	case CmdIsEnabled:
		switch exitCode {
		case ExitSuccess:
			return "enabled"
		case ExitGenericFail:
			return "disabled"
		}
	default:
		if exitCode == ExitSuccess {
			return "success"
		}
	}
	return fmt.Sprintf("exit code %d", exitCode)
}

// Manager drives systemctl through a command runner.
type Manager struct {
	runner execute.Runner
}

func NewManager(runner execute.Runner) *Manager {
	return &Manager{runner: runner}
}

// Enable marks unit to start at boot.
func (m *Manager) Enable(ctx context.Context, unit string) error {
	return m.do(ctx, CmdEnable, unit)
}

// Start starts unit now.
func (m *Manager) Start(ctx context.Context, unit string) error {
	return m.do(ctx, CmdStart, unit)
}

// Restart restarts unit.
func (m *Manager) Restart(ctx context.Context, unit string) error {
	return m.do(ctx, CmdRestart, unit)
}

// EnableAndStart enables unit and starts it; both steps are attempted.
func (m *Manager) EnableAndStart(ctx context.Context, unit string) error {
	enableErr := m.Enable(ctx, unit)
	startErr := m.Start(ctx, unit)
	return cerr.CombineErrors(enableErr, startErr)
}

// State returns the first line systemctl is-active prints, e.g. "active" or "failed".
func (m *Manager) State(ctx context.Context, unit string) string {
	out, err := m.runner.Run(ctx, execute.Options{
		Command:  "systemctl",
		Args:     []string{string(CmdIsActive), unit},
		ReadOnly: true,
	})
	if state := firstLine(out); state != "" {
		return state
	}
	if err != nil {
		return InterpretExitCode(CmdIsActive, execute.ExitCode(err))
	}
	return "unknown"
}

// IsActive reports whether unit is running.
func (m *Manager) IsActive(ctx context.Context, unit string) bool {
	active := m.State(ctx, unit) == "active"
	otelzap.Ctx(ctx).Debug("Service state checked", zap.String("unit", unit), zap.Bool("active", active))
	return active
}

func (m *Manager) do(ctx context.Context, cmd SystemctlCommand, unit string) error {
	logger := otelzap.Ctx(ctx)
	logger.Debug("Running systemctl", zap.String("action", string(cmd)), zap.String("unit", unit))

	_, err := m.runner.Run(ctx, execute.Options{
		Command: "systemctl",
		Args:    []string{string(cmd), unit},
		Sudo:    true,
	})
	if err != nil {
		logger.Debug("systemctl failed",
			zap.String("action", string(cmd)),
			zap.String("unit", unit),
			zap.String("result", InterpretExitCode(cmd, execute.ExitCode(err))),
			zap.Error(err))
		return cerr.Wrapf(err, "systemctl %s %s", cmd, unit)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
