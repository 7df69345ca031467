// cmd/fix/fix.go

package fix

import (
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/recovery"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_cli"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const flagSkipWiFiSetup = "skip-wifi-setup"

// FixCmd runs every recovery phase.
var FixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Restore SSH, VNC and WiFi on this Pi",
	Long: `Run the full emergency recovery:

1. Immediate fixes: enable and start SSH and VNC, bring up the wireless
   interface, restart dhcpcd, wpa_supplicant and networking.
2. Diagnose: check VNC, the interface, the WiFi config, association and
   the IP address. A missing WiFi config is recreated.
3. WiFi setup: offered when stdin is a terminal.
4. Final status and next steps.

EXAMPLES:
  # Full recovery
  sudo pirescue fix

  # Unattended, no WiFi prompts
  sudo pirescue fix --skip-wifi-setup

  # Rehearse against a scratch config without touching services
  pirescue fix --dry-run --wpa-config /tmp/wpa.conf`,

	RunE: rescue_cli.Wrap(RunFix),
}

func init() {
	AddFlags(FixCmd.Flags())
}

// AddFlags registers the fix flags; the root command shares them.
func AddFlags(flags *pflag.FlagSet) {
	flags.Bool(flagSkipWiFiSetup, false, "Do not offer interactive WiFi setup")
}

// RunFix is also the root command's action.
func RunFix(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) (err error) {
	s, err := cmd_helpers.NewSession(rc, cmd)
	if err != nil {
		return err
	}
	if err := s.RequireRoot(); err != nil {
		return err
	}
	defer func() { s.Finish(rc, err) }()

	skip, _ := cmd.Flags().GetBool(flagSkipWiFiSetup)
	otelzap.Ctx(rc.Ctx).Info("Starting emergency recovery",
		zap.String("interface", s.Config.Interface),
		zap.Bool("skip_wifi_setup", skip),
		zap.Bool("dry_run", s.DryRun))

	report, err := s.Rescuer.Run(rc, recovery.RunOptions{SkipWiFiSetup: skip})
	if report != nil {
		recovery.RecordChecks(s.Run, report.Checks)
		recovery.RecordSnapshot(s.Run, report.Final)
		if report.Setup != nil {
			s.Run.SSID = report.Setup.SSID
		}
	}
	return err
}
