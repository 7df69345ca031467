// cmd/diagnose/diagnose.go

package diagnose

import (
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/recovery"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_cli"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/spf13/cobra"
)

var DiagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Check VNC, the wireless interface and the WiFi config",
	Long: `Print one line per check: VNC service, wireless interface, WiFi config
and network count, current association and IP address.

A missing WiFi config is recreated with the default country, control
interface and update_config lines, and a stopped VNC service is started.
Nothing else is changed.`,
	Args: cobra.NoArgs,
	RunE: rescue_cli.Wrap(runDiagnose),
}

func runDiagnose(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) (err error) {
	s, err := cmd_helpers.NewSession(rc, cmd)
	if err != nil {
		return err
	}
	defer func() { s.Finish(rc, err) }()

	checks, err := s.Rescuer.Diagnose(rc)
	recovery.RecordChecks(s.Run, checks)
	if err != nil {
		return err
	}
	recovery.RecordSnapshot(s.Run, s.Rescuer.Status(rc.Ctx))
	return nil
}
