package recovery

import (
	"strings"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/output"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/telemetry"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/wpa"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SetupResult describes what an interactive WiFi setup did.
type SetupResult struct {
	SSID       string
	BackupPath string
	Associated bool
	Attempts   int
	IPAddress  string
}

// SetupWiFi scans, asks for credentials, appends one network block after
// backing up the config, restarts the network services and polls for
// association. An empty or invalid answer aborts before the file is touched.
func (r *Rescuer) SetupWiFi(rc *rescue_io.RuntimeContext) (*SetupResult, error) {
	ctx, span := telemetry.Start(rc.Ctx, "recovery.setup_wifi")
	defer span.End()
	logger := otelzap.Ctx(ctx)

	r.out.Banner("WIFI SETUP")

	// ASSESS
	r.out.Step("Scanning for networks on %s", r.wifi.Interface())
	ssids, err := r.wifi.Scan(ctx)
	switch {
	case err != nil:
		logger.Warn("WiFi scan failed", zap.Error(err))
		r.out.Check(output.StatusWarn, "Scan failed, enter the network name manually")
	case len(ssids) == 0:
		r.out.Check(output.StatusWarn, "No networks found")
	default:
		r.out.Line("Available networks:")
		for _, s := range ssids {
			r.out.Line("  - %s", s)
		}
	}
	r.out.Blank()

	ssid, err := r.prompt.Input(ctx, "Enter WiFi network name (SSID)")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ssid) == "" {
		r.out.Check(output.StatusFail, "SSID cannot be empty")
		return nil, rescue_err.NewExpectedError(rescue_err.ErrEmptySSID)
	}
	passphrase, err := r.prompt.Secret(ctx, "Enter WiFi password")
	if err != nil {
		return nil, err
	}
	if passphrase == "" {
		r.out.Check(output.StatusFail, "Password cannot be empty")
		return nil, rescue_err.NewExpectedError(rescue_err.ErrEmptyPassword)
	}

	n := wpa.Network{SSID: ssid, Passphrase: passphrase}
	if err := n.Validate(); err != nil {
		r.out.Check(output.StatusFail, "%v", err)
		return nil, err
	}
	// Nothing below may run once the operator has interrupted.
	if err := ctx.Err(); err != nil {
		r.out.Check(output.StatusWarn, "Interrupted, %s left unchanged", r.wpa.Path)
		return nil, rescue_err.NewExpectedError(cerr.Wrap(err, "WiFi setup interrupted"))
	}

	// INTERVENE
	logger.Info("=== INTERVENE PHASE: Writing WiFi network ===", zap.String("ssid", ssid))
	result := &SetupResult{SSID: ssid}

	if !r.wpa.Exists() {
		if err := r.CreateBasicWiFiConfig(rc); err != nil {
			return nil, err
		}
	}
	if result.BackupPath, err = r.wpa.Backup(); err != nil {
		r.out.Check(output.StatusFail, "Could not back up %s", r.wpa.Path)
		return nil, err
	}
	r.out.Check(output.StatusPass, "Backed up config to %s", result.BackupPath)

	if err := r.wpa.AppendNetwork(n); err != nil {
		r.out.Check(output.StatusFail, "Could not write network to %s", r.wpa.Path)
		return result, err
	}
	r.out.Check(output.StatusPass, "Added network %s", ssid)

	for _, unit := range r.cfg.Services.Network {
		r.out.Step("Restarting %s", unit)
		if err := r.services.Restart(ctx, unit); err != nil {
			logger.Warn("Restart failed", zap.String("unit", unit), zap.Error(err))
			r.out.Check(output.StatusWarn, "Could not restart %s", unit)
		}
	}

	// EVALUATE
	r.out.Step("Waiting for connection to %s", ssid)
	if err := r.waitForAssociation(rc, result); err != nil {
		return result, err
	}
	span.SetAttributes(
		attribute.Bool("associated", result.Associated),
		attribute.Int("attempts", result.Attempts))

	if !result.Associated {
		r.out.Check(output.StatusFail, "Could not connect to %s after %d attempts", ssid, result.Attempts)
		r.out.Line("Troubleshooting:")
		r.out.Line("  - Check that the password is correct")
		r.out.Line("  - Make sure the network is in range and 2.4GHz if this Pi has no 5GHz radio")
		r.out.Line("  - Check the country code in %s", r.wpa.Path)
		r.out.Line("  - Look at: journalctl -u wpa_supplicant -u dhcpcd")
		logger.Warn("WiFi association timed out", zap.String("ssid", ssid), zap.Int("attempts", result.Attempts))
		return result, nil
	}

	r.out.Check(output.StatusPass, "Connected to %s", ssid)
	r.out.Step("Waiting for an IP address")
	if err := r.sleep(ctx, r.cfg.Poll.DHCPWait); err != nil {
		return result, rescue_err.NewExpectedError(cerr.Wrap(err, "DHCP wait interrupted"))
	}
	result.IPAddress = r.wifi.IPv4(ctx)
	if result.IPAddress != "" {
		r.out.Check(output.StatusPass, "IP address: %s", result.IPAddress)
	} else {
		r.out.Check(output.StatusWarn, "Connected but no IP address yet, DHCP may still be running")
	}
	logger.Info("WiFi setup finished",
		zap.String("ssid", ssid),
		zap.String("ip", result.IPAddress),
		zap.Int("attempts", result.Attempts))
	return result, nil
}

// waitForAssociation polls the current SSID up to Poll.Attempts times.
func (r *Rescuer) waitForAssociation(rc *rescue_io.RuntimeContext, result *SetupResult) error {
	ctx := rc.Ctx
	attempts := r.cfg.Poll.Attempts
	for i := 1; i <= attempts; i++ {
		result.Attempts = i
		if r.wifi.CurrentSSID(ctx) == result.SSID {
			result.Associated = true
			return nil
		}
		if i == attempts {
			break
		}
		if err := r.sleep(ctx, r.cfg.Poll.Interval); err != nil {
			return rescue_err.NewExpectedError(cerr.Wrap(err, "connection poll interrupted"))
		}
	}
	return nil
}
