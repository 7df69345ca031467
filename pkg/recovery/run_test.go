package recovery

import (
	"context"
	"strings"
	"testing"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const confirmPrompt = "Would you like to configure WiFi now?"

func TestRun_NonInteractiveSkipsSetup(t *testing.T) {
	f := newFixture(t)
	f.prompt.On("Interactive").Return(false).Once()

	report, err := f.rescuer.Run(f.rc, RunOptions{})
	require.NoError(t, err)

	assert.Nil(t, report.Setup)
	assert.Len(t, report.Checks, 5)
	assert.False(t, report.Final.Connected())
	f.prompt.AssertNotCalled(t, "Confirm", confirmPrompt, false)

	out := f.out.String()
	assert.Contains(t, out, "skipping interactive WiFi setup")
	for _, banner := range []string{"IMMEDIATE FIXES", "DIAGNOSING ISSUES", "FINAL STATUS"} {
		assert.Contains(t, out, banner)
	}
	assert.NotContains(t, out, "WIFI SETUP")
	assert.Contains(t, out, "Emergency recovery complete.\n")
}

func TestRun_PhaseOrder(t *testing.T) {
	f := newFixture(t).healthy()
	f.seedConfig(t, twoNetworks)

	_, err := f.rescuer.Run(f.rc, RunOptions{SkipWiFiSetup: true})
	require.NoError(t, err)

	out := f.out.String()
	fixes := strings.Index(out, "IMMEDIATE FIXES")
	diag := strings.Index(out, "DIAGNOSING ISSUES")
	final := strings.Index(out, "FINAL STATUS")
	assert.True(t, fixes < diag && diag < final, "phases out of order:\n%s", out)
	f.prompt.AssertNotCalled(t, "Interactive")
}

func TestRun_Declined(t *testing.T) {
	f := newFixture(t)
	f.prompt.On("Interactive").Return(true).Once()
	f.prompt.On("Confirm", confirmPrompt, false).Return(false, nil).Once()

	report, err := f.rescuer.Run(f.rc, RunOptions{})
	require.NoError(t, err)
	assert.Nil(t, report.Setup)
	assert.Empty(t, f.runner.CallsWithPrefix("iwlist"))
}

func TestRun_SetupAbortStillFinishes(t *testing.T) {
	f := newFixture(t)
	f.prompt.On("Interactive").Return(true).Once()
	f.prompt.On("Confirm", confirmPrompt, false).Return(true, nil).Once()
	f.prompt.On("Input", ssidLabel).Return("", nil).Once()

	report, err := f.rescuer.Run(f.rc, RunOptions{})
	require.NoError(t, err)
	assert.Nil(t, report.Setup)
	assert.Contains(t, f.out.String(), "✗ SSID cannot be empty")
	assert.Contains(t, f.out.String(), "Emergency recovery complete.")
}

func TestRun_FixFailuresAreReportedNotReturned(t *testing.T) {
	f := newFixture(t)
	f.runner.OnFail("ip link set wlan0 up", "RTNETLINK answers: Operation not possible due to RF-kill")

	report, err := f.rescuer.Run(f.rc, RunOptions{SkipWiFiSetup: true})
	require.NoError(t, err)
	require.Error(t, report.FixErr)
	assert.Contains(t, report.FixErr.Error(), "1 error occurred")
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(f.rc.Ctx)
	cancel()
	f.rc.Ctx = ctx

	_, err := f.rescuer.Run(f.rc, RunOptions{})
	require.Error(t, err)
	assert.True(t, rescue_err.IsExpectedUserError(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, f.out.String(), "Emergency recovery complete.")
}

func TestRun_InterruptAtConfirm(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(f.rc.Ctx)
	defer cancel()
	f.rc.Ctx = ctx
	f.prompt.On("Interactive").Return(true).Once()
	f.prompt.On("Confirm", confirmPrompt, false).
		Run(func(mock.Arguments) { cancel() }).
		Return(false, rescue_err.NewExpectedError(context.Canceled)).Once()

	_, err := f.rescuer.Run(f.rc, RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, rescue_err.IsExpectedUserError(err))
	assert.NotContains(t, f.out.String(), "WIFI SETUP")
	assert.NotContains(t, f.out.String(), "Emergency recovery complete.")
}
