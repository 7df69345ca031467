package recovery

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/output"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// NotConnected is printed in place of an address.
const NotConnected = "NOT CONNECTED"

// Status queries services, link and config without changing anything.
// NetworkCount is -1 when the config file is absent or unreadable.
func (r *Rescuer) Status(ctx context.Context) Snapshot {
	link := r.wifi.Link(ctx)
	s := Snapshot{
		VNCActive:        r.services.IsActive(ctx, r.cfg.Services.VNC),
		SSHActive:        r.services.IsActive(ctx, r.cfg.Services.SSH),
		InterfacePresent: link.Present,
		InterfaceUp:      link.Up,
		ConfigPresent:    r.wpa.Exists(),
		NetworkCount:     -1,
		SSID:             r.wifi.CurrentSSID(ctx),
		IPAddress:        r.wifi.IPv4(ctx),
	}
	if s.ConfigPresent {
		if n, err := r.wpa.CountNetworks(); err == nil {
			s.NetworkCount = n
		}
	}
	return s
}

// ShowFinalStatus prints the summary and next steps.
func (r *Rescuer) ShowFinalStatus(rc *rescue_io.RuntimeContext) Snapshot {
	ctx, span := telemetry.Start(rc.Ctx, "recovery.final_status")
	defer span.End()

	s := r.Status(ctx)
	span.SetAttributes(
		attribute.Bool("connected", s.Connected()),
		attribute.Bool("vnc_active", s.VNCActive),
		attribute.Bool("ssh_active", s.SSHActive))

	r.out.Banner("FINAL STATUS")
	r.out.Check(statusOf(s.VNCActive), "VNC: %s", activeText(s.VNCActive))
	r.out.Check(statusOf(s.SSHActive), "SSH: %s", activeText(s.SSHActive))
	if s.SSID != "" {
		r.out.Check(output.StatusPass, "WiFi: %s", s.SSID)
	} else {
		r.out.Check(output.StatusFail, "WiFi: not associated")
	}

	ip := s.IPAddress
	if ip == "" {
		ip = NotConnected
	}
	r.out.Line("IP address: %s", ip)
	r.out.Blank()

	if s.Connected() {
		r.out.Line("Next steps:")
		if s.VNCActive {
			r.out.Line("  - Connect with VNC Viewer to %s:5900", s.IPAddress)
		}
		if s.SSHActive {
			r.out.Line("  - Connect with: ssh pi@%s", s.IPAddress)
		}
		if !s.VNCActive || !s.SSHActive {
			r.out.Line("  - A service is still down, rerun: sudo pirescue fix")
		}
	} else {
		r.out.Line("Troubleshooting:")
		r.out.Line("  - Plug in an Ethernet cable and check the router for the Pi's address")
		r.out.Line("  - Configure WiFi with: sudo pirescue setup wifi")
		r.out.Line("  - Attach a keyboard and monitor and run: sudo raspi-config")
	}

	otelzap.Ctx(ctx).Info("Final status",
		zap.Bool("vnc", s.VNCActive),
		zap.Bool("ssh", s.SSHActive),
		zap.String("ssid", s.SSID),
		zap.String("ip", s.IPAddress))
	return s
}

func statusOf(ok bool) output.Status {
	if ok {
		return output.StatusPass
	}
	return output.StatusFail
}

func activeText(ok bool) string {
	if ok {
		return "running"
	}
	return "NOT running"
}
