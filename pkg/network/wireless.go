// pkg/network/wireless.go

package network

import (
	"context"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const scanTimeout = 20 * time.Second

// Wireless queries and controls one wireless interface.
type Wireless struct {
	runner execute.Runner
	iface  string
}

func NewWireless(runner execute.Runner, iface string) *Wireless {
	return &Wireless{runner: runner, iface: iface}
}

// Interface returns the interface name, e.g. wlan0.
func (w *Wireless) Interface() string {
	return w.iface
}

// Link reports presence and flags. A failing query means the interface is absent.
func (w *Wireless) Link(ctx context.Context) LinkState {
	out, err := w.runner.Run(ctx, execute.Options{
		Command:  "ip",
		Args:     []string{"link", "show", w.iface},
		ReadOnly: true,
	})
	if err != nil {
		otelzap.Ctx(ctx).Debug("Interface query failed", zap.String("interface", w.iface), zap.Error(err))
		return LinkState{}
	}
	return ParseLinkShow(out)
}

// Up brings the interface administratively up.
func (w *Wireless) Up(ctx context.Context) error {
	_, err := w.runner.Run(ctx, execute.Options{
		Command: "ip",
		Args:    []string{"link", "set", w.iface, "up"},
		Sudo:    true,
	})
	return rescue_err.WrapCommandError(err, "ip")
}

// Scan lists visible SSIDs, deduplicated.
func (w *Wireless) Scan(ctx context.Context) ([]string, error) {
	out, err := w.runner.Run(ctx, execute.Options{
		Command:  "iwlist",
		Args:     []string{w.iface, "scan"},
		Sudo:     true,
		ReadOnly: true,
		Timeout:  scanTimeout,
	})
	if err != nil {
		return nil, rescue_err.WrapCommandError(err, "iwlist")
	}
	ssids := ParseScan(out)
	otelzap.Ctx(ctx).Debug("📡 Scan complete", zap.String("interface", w.iface), zap.Int("networks", len(ssids)))
	return ssids, nil
}

// CurrentSSID returns the associated network, or "" when not associated.
// iwgetid is preferred; iwconfig is the fallback.
func (w *Wireless) CurrentSSID(ctx context.Context) string {
	out, err := w.runner.Run(ctx, execute.Options{
		Command:  "iwgetid",
		Args:     []string{w.iface, "-r"},
		ReadOnly: true,
	})
	if err == nil {
		return strings.TrimSpace(out)
	}
	if execute.IsNotFound(err) {
		out, err = w.runner.Run(ctx, execute.Options{
			Command:  "iwconfig",
			Args:     []string{w.iface},
			ReadOnly: true,
		})
		if err == nil {
			return ParseIwconfigESSID(out)
		}
	}
	otelzap.Ctx(ctx).Debug("No association", zap.String("interface", w.iface), zap.Error(err))
	return ""
}

// IPv4 returns the address bound to the interface, or "".
func (w *Wireless) IPv4(ctx context.Context) string {
	out, err := w.runner.Run(ctx, execute.Options{
		Command:  "ip",
		Args:     []string{"-4", "addr", "show", w.iface},
		ReadOnly: true,
	})
	if err != nil {
		return ""
	}
	return ParseIPv4(out)
}
