package recovery

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/output"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Check names, stable across releases since they key history rows and metrics.
const (
	CheckVNC       = "vnc"
	CheckInterface = "interface"
	CheckConfig    = "wifi_config"
	CheckSSID      = "ssid"
	CheckIP        = "ip"
)

// Diagnose prints one line per check. A missing WiFi config is recreated and
// a stopped VNC service is started; nothing else is changed.
func (r *Rescuer) Diagnose(rc *rescue_io.RuntimeContext) ([]CheckResult, error) {
	ctx, span := telemetry.Start(rc.Ctx, "recovery.diagnose")
	defer span.End()
	logger := otelzap.Ctx(ctx)

	r.out.Banner("DIAGNOSING ISSUES")
	logger.Info("=== ASSESS PHASE: Diagnosing services and WiFi ===")

	var results []CheckResult
	add := func(name string, status output.Status, format string, args ...any) {
		res := CheckResult{Name: name, Status: status, Detail: fmt.Sprintf(format, args...)}
		r.out.Check(status, "%s", res.Detail)
		results = append(results, res)
	}

	vnc := r.cfg.Services.VNC
	if r.services.IsActive(ctx, vnc) {
		add(CheckVNC, output.StatusPass, "VNC service is running")
	} else {
		r.out.Check(output.StatusFail, "VNC service is not running")
		r.out.Step("Starting %s", vnc)
		if err := r.services.Start(ctx, vnc); err != nil {
			logger.Warn("VNC service did not start", zap.String("unit", vnc), zap.Error(err))
			add(CheckVNC, output.StatusFail, "VNC service could not be started")
		} else {
			add(CheckVNC, output.StatusWarn, "VNC service was stopped and has been started")
		}
	}

	iface := r.wifi.Interface()
	link := r.wifi.Link(ctx)
	switch {
	case !link.Present:
		add(CheckInterface, output.StatusFail, "WiFi interface %s not found", iface)
	case link.Up:
		add(CheckInterface, output.StatusPass, "WiFi interface %s is up", iface)
	case link.OperState != "":
		add(CheckInterface, output.StatusWarn, "WiFi interface %s exists but is down (state %s)", iface, link.OperState)
	default:
		add(CheckInterface, output.StatusWarn, "WiFi interface %s exists but is down", iface)
	}

	if r.wpa.Exists() {
		count, err := r.wpa.CountNetworks()
		switch {
		case err != nil:
			logger.Warn("Could not read WiFi config", zap.String("path", r.wpa.Path), zap.Error(err))
			add(CheckConfig, output.StatusFail, "WiFi config %s is unreadable", r.wpa.Path)
		case count == 0:
			add(CheckConfig, output.StatusWarn, "WiFi config found but has no networks")
		default:
			add(CheckConfig, output.StatusPass, "WiFi config found with %d network(s)", count)
		}
	} else {
		r.out.Check(output.StatusFail, "WiFi config file missing: %s", r.wpa.Path)
		if err := r.CreateBasicWiFiConfig(rc); err != nil {
			add(CheckConfig, output.StatusFail, "Could not create WiFi config: %v", err)
		} else {
			add(CheckConfig, output.StatusWarn, "Created basic WiFi config with no networks")
		}
	}

	if ssid := r.wifi.CurrentSSID(ctx); ssid != "" {
		add(CheckSSID, output.StatusPass, "Connected to WiFi: %s", ssid)
	} else {
		add(CheckSSID, output.StatusFail, "Not connected to any WiFi network")
	}

	if ip := r.wifi.IPv4(ctx); ip != "" {
		add(CheckIP, output.StatusPass, "IP address: %s", ip)
	} else {
		add(CheckIP, output.StatusWarn, "No IP address on %s", iface)
	}

	failed := 0
	for _, res := range results {
		if res.Status == output.StatusFail {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("checks", len(results)), attribute.Int("failed", failed))
	logger.Info("=== EVALUATE PHASE: Diagnosis complete ===",
		zap.Int("checks", len(results)), zap.Int("failed", failed))

	if err := ctx.Err(); err != nil {
		return results, cerr.Wrap(err, "diagnosis interrupted")
	}
	return results, nil
}

// CreateBasicWiFiConfig overwrites the WiFi config with the three default lines.
func (r *Rescuer) CreateBasicWiFiConfig(rc *rescue_io.RuntimeContext) error {
	logger := otelzap.Ctx(rc.Ctx)
	r.out.Step("Creating basic WiFi config")
	if err := r.wpa.WriteDefault(); err != nil {
		logger.Error("Failed to create WiFi config", zap.String("path", r.wpa.Path), zap.Error(err))
		return err
	}
	logger.Info("Created basic WiFi config",
		zap.String("path", r.wpa.Path),
		zap.String("country", r.wpa.Country))
	return nil
}
