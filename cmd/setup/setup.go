// cmd/setup/setup.go
package setup

import (
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_cli"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/spf13/cobra"
)

// SetupCmd groups interactive configuration commands.
var SetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration",
	Long: `Setup walks through configuration that needs operator input.

Examples:
  sudo pirescue setup wifi      # Add a WiFi network and connect to it`,

	RunE: rescue_cli.Wrap(func(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}),
}

func init() {
	SetupCmd.AddCommand(wifiCmd)
}
