// cmd/config/config.go

package config

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_cli"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/spf13/cobra"
)

// ConfigCmd inspects pirescue's own configuration.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect pirescue configuration",
	Long: `Configuration is layered: built-in defaults, /etc/pirescue/config.yaml
(or --config), PIRESCUE_* environment variables (also read from
/etc/default/pirescue), then command-line flags.

Examples:
  pirescue config show
  PIRESCUE_INTERFACE=wlan1 pirescue config show`,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: rescue_cli.Wrap(func(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		cfg, err := cmd_helpers.LoadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		out, err := cfg.Render()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}),
}

func init() {
	ConfigCmd.AddCommand(showCmd)
}
