// pkg/recovery/recovery.go
// Emergency recovery for a Raspberry Pi that lost SSH, VNC or WiFi, following
// the Assess → Intervene → Evaluate pattern per phase.

package recovery

import (
	"context"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/config"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/interaction"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/network"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/output"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/systemd"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/wpa"
)

// CheckResult is one diagnostic line.
type CheckResult struct {
	Name   string
	Status output.Status
	Detail string
}

// Snapshot is the observed state of the services and the wireless link.
type Snapshot struct {
	VNCActive        bool
	SSHActive        bool
	InterfacePresent bool
	InterfaceUp      bool
	ConfigPresent    bool
	NetworkCount     int
	SSID             string
	IPAddress        string
}

// Connected reports whether an IPv4 address is bound.
func (s Snapshot) Connected() bool {
	return s.IPAddress != ""
}

// Rescuer runs the recovery phases against one Pi.
type Rescuer struct {
	cfg      *config.Config
	services *systemd.Manager
	wifi     *network.Wireless
	wpa      *wpa.File
	runner   execute.Runner
	prompt   interaction.Prompter
	out      *output.Reporter

	sleep     func(ctx context.Context, d time.Duration) error
	available func(name string) bool
}

func New(cfg *config.Config, runner execute.Runner, prompt interaction.Prompter, out *output.Reporter) *Rescuer {
	return &Rescuer{
		cfg:       cfg,
		services:  systemd.NewManager(runner),
		wifi:      network.NewWireless(runner, cfg.Interface),
		wpa:       wpa.NewFile(cfg.WPAConfig, cfg.Country),
		runner:    runner,
		prompt:    prompt,
		out:       out,
		sleep:     sleepContext,
		available: execute.Available,
	}
}

// ConfigFile exposes the WiFi configuration file being managed.
func (r *Rescuer) ConfigFile() *wpa.File {
	return r.wpa
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
