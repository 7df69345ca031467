// cmd/status/status.go

package status

import (
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/recovery"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_cli"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/spf13/cobra"
)

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show VNC, SSH and WiFi state with next steps",
	Args:  cobra.NoArgs,
	RunE: rescue_cli.Wrap(func(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) (err error) {
		s, err := cmd_helpers.NewSession(rc, cmd)
		if err != nil {
			return err
		}
		defer func() { s.Finish(rc, err) }()

		recovery.RecordSnapshot(s.Run, s.Rescuer.ShowFinalStatus(rc))
		return nil
	}),
}
