package systemd

import (
	"context"
	"testing"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretExitCode(t *testing.T) {
	tests := []struct {
		cmd  SystemctlCommand
		code int
		want string
	}{
		{CmdIsActive, 0, "active"},
		{CmdIsActive, 3, "inactive"},
		{CmdIsActive, 4, "unknown"},
		{CmdIsActive, 5, "not loaded"},
		{CmdIsActive, 9, "exit code 9"},
		{CmdIsEnabled, 0, "enabled"},
		{CmdIsEnabled, 1, "disabled"},
		{CmdRestart, 0, "success"},
		{CmdRestart, 1, "exit code 1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InterpretExitCode(tt.cmd, tt.code), "%s/%d", tt.cmd, tt.code)
	}
}

func TestManager_State(t *testing.T) {
	ctx := context.Background()
	runner := testutil.NewFakeRunner().
		OnOutput("systemctl is-active ssh", "active\n").
		OnFail("systemctl is-active vncserver-x11-serviced", "inactive\n").
		OnFail("systemctl is-active ghost", "")

	m := NewManager(runner)
	assert.Equal(t, "active", m.State(ctx, "ssh"))
	assert.True(t, m.IsActive(ctx, "ssh"))
	assert.True(t, runner.ReadOnly("systemctl is-active ssh"), "state queries run during dry runs")
	assert.False(t, runner.Sudoed("systemctl is-active ssh"))

	assert.Equal(t, "inactive", m.State(ctx, "vncserver-x11-serviced"))
	assert.False(t, m.IsActive(ctx, "vncserver-x11-serviced"))

	// fake errors carry no exit status
	assert.Equal(t, "exit code -1", m.State(ctx, "ghost"))

	// unscripted command: success with no output
	assert.Equal(t, "unknown", m.State(ctx, "quiet"))
}

func TestManager_Actions(t *testing.T) {
	ctx := context.Background()
	runner := testutil.NewFakeRunner().
		OnFail("systemctl enable vncserver-x11-serviced", "Failed to enable unit: Unit file does not exist.")

	m := NewManager(runner)
	require.NoError(t, m.Restart(ctx, "dhcpcd"))
	assert.True(t, runner.Sudoed("systemctl restart dhcpcd"))
	assert.False(t, runner.ReadOnly("systemctl restart dhcpcd"))

	err := m.EnableAndStart(ctx, "vncserver-x11-serviced")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "systemctl enable vncserver-x11-serviced")
	assert.Equal(t, 1, runner.Count("systemctl start vncserver-x11-serviced"), "start still attempted after enable fails")

	require.NoError(t, m.EnableAndStart(ctx, "ssh"))
	assert.Equal(t, []string{
		"systemctl restart dhcpcd",
		"systemctl enable vncserver-x11-serviced",
		"systemctl start vncserver-x11-serviced",
		"systemctl enable ssh",
		"systemctl start ssh",
	}, runner.Calls())
}
