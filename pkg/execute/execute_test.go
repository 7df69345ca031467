package execute

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func skipUnlessUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX userland")
	}
}

func TestOptions_CommandLine(t *testing.T) {
	assert.Equal(t, "systemctl is-active ssh", Options{Command: "systemctl", Args: []string{"is-active", "ssh"}}.CommandLine())
	assert.Equal(t, "iwgetid", Options{Command: "iwgetid"}.CommandLine())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		euid     int
		sudo     bool
		wantName string
		wantArgs []string
	}{
		{name: "root skips sudo", euid: 0, sudo: true, wantName: "ip", wantArgs: []string{"link", "set", "wlan0", "up"}},
		{name: "user gets sudo", euid: 1000, sudo: true, wantName: "sudo", wantArgs: []string{"-n", "ip", "link", "set", "wlan0", "up"}},
		{name: "no sudo requested", euid: 1000, sudo: false, wantName: "ip", wantArgs: []string{"link", "set", "wlan0", "up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ExecRunner{Geteuid: func() int { return tt.euid }}
			name, args := r.resolve(Options{Command: "ip", Args: []string{"link", "set", "wlan0", "up"}, Sudo: tt.sudo})
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestExecRunner_Run(t *testing.T) {
	skipUnlessUnix(t)
	r := NewRunner(zaptest.NewLogger(t), false)

	out, err := r.Run(context.Background(), Options{Command: "echo", Args: []string{"hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	out, err = r.Run(context.Background(), Options{Command: "sh", Args: []string{"-c", "echo oops >&2; exit 3"}})
	require.Error(t, err)
	assert.Equal(t, "oops\n", out)
	assert.Equal(t, 3, ExitCode(err))
}

func TestExecRunner_Retries(t *testing.T) {
	skipUnlessUnix(t)
	r := NewRunner(zaptest.NewLogger(t), false)

	_, err := r.Run(context.Background(), Options{Command: "false", Retries: 2, Delay: time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
}

func TestExecRunner_Timeout(t *testing.T) {
	skipUnlessUnix(t)
	r := NewRunner(zaptest.NewLogger(t), false)

	_, err := r.Run(context.Background(), Options{Command: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestExecRunner_DryRun(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t), true)
	out, err := r.Run(context.Background(), Options{Command: "systemctl", Args: []string{"restart", "dhcpcd"}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExecRunner_DryRunStillQueries(t *testing.T) {
	skipUnlessUnix(t)
	r := NewRunner(zaptest.NewLogger(t), true)

	out, err := r.Run(context.Background(), Options{Command: "echo", Args: []string{"active"}, ReadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "active\n", out)

	out, err = r.Run(context.Background(), Options{Command: "echo", Args: []string{"changed"}})
	require.NoError(t, err)
	assert.Empty(t, out, "mutating commands are skipped")
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t), false)
	_, err := r.Run(context.Background(), Options{Command: "definitely-not-a-real-binary-pirescue"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, -1, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, -1, ExitCode(errors.New("plain")))
}
