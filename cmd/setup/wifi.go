// cmd/setup/wifi.go

package setup

import (
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_cli"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Add a WiFi network and wait for the connection",
	Long: `Scan for networks, ask for the SSID and password, back up the WiFi
config to <config>.emergency_backup, append the network, restart dhcpcd and
wpa_supplicant, then wait for the Pi to join the network.

An empty SSID or password aborts without touching the config.

EXAMPLES:
  sudo pirescue setup wifi
  sudo pirescue setup wifi --interface wlan1 --country GB`,
	Args: cobra.NoArgs,
	RunE: rescue_cli.Wrap(runSetupWiFi),
}

func runSetupWiFi(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) (err error) {
	s, err := cmd_helpers.NewSession(rc, cmd)
	if err != nil {
		return err
	}
	if err := s.RequireRoot(); err != nil {
		return err
	}
	if !s.Prompt.Interactive() {
		return rescue_err.NewExpectedError(cerr.WithHint(rescue_err.ErrNotInteractive,
			"run this from a console or an SSH session with a terminal"))
	}
	defer func() { s.Finish(rc, err) }()

	res, err := s.Rescuer.SetupWiFi(rc)
	if res != nil {
		s.Run.SSID = res.SSID
		s.Run.IPAddress = res.IPAddress
		s.Run.Connected = res.IPAddress != ""
	}
	return err
}
