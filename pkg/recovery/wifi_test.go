package recovery

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/testutil"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/wpa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	ssidLabel     = "Enter WiFi network name (SSID)"
	passwordLabel = "Enter WiFi password"
	scanCmd       = "iwlist wlan0 scan"
	scanOutput    = `wlan0     Scan completed :
          Cell 01 - Address: AA:BB:CC:DD:EE:01
                    ESSID:"HomeNet"
          Cell 02 - Address: AA:BB:CC:DD:EE:02
                    ESSID:"HomeNet"
          Cell 03 - Address: AA:BB:CC:DD:EE:03
                    ESSID:"Cafe Guest"
`
)

func (f *fixture) seedConfig(t *testing.T, body string) {
	t.Helper()
	testutil.CreateTestFile(t, filepath.Dir(f.wpaPath), filepath.Base(f.wpaPath), body, 0o600)
}

func TestSetupWiFi_Success(t *testing.T) {
	f := newFixture(t)
	f.seedConfig(t, twoNetworks)
	f.runner.
		OnOutput(scanCmd, scanOutput).
		OnFunc(iwgetid, func(call int) testutil.Response {
			if call >= 3 {
				return testutil.Response{Output: "HomeNet\n"}
			}
			return testutil.Response{Err: testutil.ErrCommandFailed}
		}).
		OnOutput(ipAddr, "    inet 192.168.1.42/24 scope global wlan0\n")
	f.prompt.On("Input", ssidLabel).Return("HomeNet", nil).Once()
	f.prompt.On("Secret", passwordLabel).Return("correct horse", nil).Once()

	res, err := f.rescuer.SetupWiFi(f.rc)
	require.NoError(t, err)

	block := wpa.Network{SSID: "HomeNet", Passphrase: "correct horse"}.Block()
	assert.Equal(t, twoNetworks+block, testutil.ReadFile(t, f.wpaPath), "exactly one block appended")
	assert.Equal(t, twoNetworks, testutil.ReadFile(t, f.wpaPath+".emergency_backup"))

	count, err := f.rescuer.ConfigFile().CountNetworks()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.Equal(t, &SetupResult{
		SSID:       "HomeNet",
		BackupPath: f.wpaPath + ".emergency_backup",
		Associated: true,
		Attempts:   3,
		IPAddress:  "192.168.1.42",
	}, res)
	assert.Equal(t, []time.Duration{time.Second, time.Second, 5 * time.Second}, f.sleeps)
	assert.Equal(t, 1, f.runner.Count("systemctl restart dhcpcd"))
	assert.Equal(t, 1, f.runner.Count("systemctl restart wpa_supplicant"))
	assert.Zero(t, f.runner.Count("systemctl restart networking"))

	out := f.out.String()
	assert.Contains(t, out, "  - HomeNet\n  - Cafe Guest\n")
	assert.Contains(t, out, "✓ Connected to HomeNet")
	assert.Contains(t, out, "✓ IP address: 192.168.1.42")
	assert.NotContains(t, out, "correct horse")
}

func TestSetupWiFi_EmptyAnswersAbort(t *testing.T) {
	tests := []struct {
		name     string
		ssid     string
		password string
		sentinel error
	}{
		{name: "empty ssid", ssid: "", sentinel: rescue_err.ErrEmptySSID},
		{name: "blank ssid", ssid: "   ", sentinel: rescue_err.ErrEmptySSID},
		{name: "empty password", ssid: "HomeNet", password: "", sentinel: rescue_err.ErrEmptyPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedConfig(t, twoNetworks)
			f.prompt.On("Input", ssidLabel).Return(tt.ssid, nil).Once()
			if strings.TrimSpace(tt.ssid) != "" {
				f.prompt.On("Secret", passwordLabel).Return(tt.password, nil).Once()
			}

			res, err := f.rescuer.SetupWiFi(f.rc)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, rescue_err.IsExpectedUserError(err))

			assert.Equal(t, twoNetworks, testutil.ReadFile(t, f.wpaPath))
			testutil.AssertFileNotExists(t, f.wpaPath+".emergency_backup")
			assert.Empty(t, f.runner.CallsWithPrefix("systemctl"))
		})
	}
}

func TestSetupWiFi_RejectsUnusablePassphrase(t *testing.T) {
	f := newFixture(t)
	f.seedConfig(t, twoNetworks)
	f.prompt.On("Input", ssidLabel).Return("HomeNet", nil).Once()
	f.prompt.On("Secret", passwordLabel).Return("short", nil).Once()

	_, err := f.rescuer.SetupWiFi(f.rc)
	require.Error(t, err)
	assert.True(t, rescue_err.IsExpectedUserError(err))
	assert.Equal(t, twoNetworks, testutil.ReadFile(t, f.wpaPath))
	testutil.AssertFileNotExists(t, f.wpaPath+".emergency_backup")
}

func TestSetupWiFi_PollTimesOut(t *testing.T) {
	f := newFixture(t)
	f.seedConfig(t, twoNetworks)
	f.runner.OnOutput(iwgetid, "Neighbour\n")
	f.prompt.On("Input", ssidLabel).Return("HomeNet", nil).Once()
	f.prompt.On("Secret", passwordLabel).Return("correct horse", nil).Once()

	res, err := f.rescuer.SetupWiFi(f.rc)
	require.NoError(t, err)

	assert.False(t, res.Associated)
	assert.Equal(t, 30, res.Attempts)
	assert.Equal(t, 30, f.runner.Count(iwgetid), "polling stops after 30 checks")
	assert.Len(t, f.sleeps, 29)
	assert.Zero(t, f.runner.Count(ipAddr))
	assert.Contains(t, f.out.String(), "✗ Could not connect to HomeNet after 30 attempts")
	assert.Contains(t, f.out.String(), "Troubleshooting:")

	count, err := f.rescuer.ConfigFile().CountNetworks()
	require.NoError(t, err)
	assert.Equal(t, 3, count, "no rollback on timeout")
}

func TestSetupWiFi_CreatesMissingConfig(t *testing.T) {
	f := newFixture(t)
	f.runner.OnOutput(iwgetid, "HomeNet\n")
	f.prompt.On("Input", ssidLabel).Return("HomeNet", nil).Once()
	f.prompt.On("Secret", passwordLabel).Return("correct horse", nil).Once()

	res, err := f.rescuer.SetupWiFi(f.rc)
	require.NoError(t, err)
	assert.True(t, res.Associated)
	assert.Equal(t, 1, res.Attempts)

	base := wpa.DefaultContent("US")
	assert.Equal(t, base, testutil.ReadFile(t, f.wpaPath+".emergency_backup"))
	assert.True(t, strings.HasPrefix(testutil.ReadFile(t, f.wpaPath), base))
	assert.Contains(t, f.out.String(), "Connected but no IP address yet")
}

func TestSetupWiFi_ScanFailureStillPrompts(t *testing.T) {
	f := newFixture(t)
	f.seedConfig(t, twoNetworks)
	f.runner.OnFail(scanCmd, "wlan0     Interface doesn't support scanning.")
	f.prompt.On("Input", ssidLabel).Return("", nil).Once()

	_, err := f.rescuer.SetupWiFi(f.rc)
	require.ErrorIs(t, err, rescue_err.ErrEmptySSID)
	assert.Contains(t, f.out.String(), "⚠ Scan failed")
}

func TestSetupWiFi_CancelDuringPoll(t *testing.T) {
	f := newFixture(t)
	f.seedConfig(t, twoNetworks)
	ctx, cancel := context.WithCancel(f.rc.Ctx)
	defer cancel()
	f.rc.Ctx = ctx
	f.rescuer.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	f.prompt.On("Input", ssidLabel).Return("HomeNet", nil).Once()
	f.prompt.On("Secret", passwordLabel).Return("correct horse", nil).Once()

	res, err := f.rescuer.SetupWiFi(f.rc)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, rescue_err.IsExpectedUserError(err))
	assert.Equal(t, 1, res.Attempts)
}

func TestSetupWiFi_InterruptAtPasswordLeavesConfig(t *testing.T) {
	f := newFixture(t)
	f.seedConfig(t, twoNetworks)
	ctx, cancel := context.WithCancel(f.rc.Ctx)
	defer cancel()
	f.rc.Ctx = ctx
	f.prompt.On("Input", ssidLabel).Return("HomeNet", nil).Once()
	f.prompt.On("Secret", passwordLabel).
		Run(func(mock.Arguments) { cancel() }).
		Return("correct horse", nil).Once()

	res, err := f.rescuer.SetupWiFi(f.rc)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, rescue_err.IsExpectedUserError(err))

	assert.Equal(t, twoNetworks, testutil.ReadFile(t, f.wpaPath))
	testutil.AssertFileNotExists(t, f.wpaPath+".emergency_backup")
	assert.Empty(t, f.runner.CallsWithPrefix("systemctl restart"))
	assert.Zero(t, f.runner.Count(iwgetid))
	assert.Contains(t, f.out.String(), "Interrupted, "+f.wpaPath+" left unchanged")
}
