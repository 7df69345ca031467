/* cmd/root.go */

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/cmd_helpers"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_cli"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Subcommands
	"github.com/CodeMonkeyCybersecurity/pirescue/cmd/config"
	"github.com/CodeMonkeyCybersecurity/pirescue/cmd/diagnose"
	"github.com/CodeMonkeyCybersecurity/pirescue/cmd/fix"
	"github.com/CodeMonkeyCybersecurity/pirescue/cmd/history"
	"github.com/CodeMonkeyCybersecurity/pirescue/cmd/setup"
	"github.com/CodeMonkeyCybersecurity/pirescue/cmd/status"
)

// RootCmd runs the full recovery when no subcommand is given.
var RootCmd = &cobra.Command{
	Use:   shared.AppName,
	Short: "Emergency recovery for a Raspberry Pi that lost SSH, VNC or WiFi",
	Long: `pirescue re-enables SSH and VNC, brings the wireless interface back up,
checks the WiFi configuration and, when run from a terminal, walks through
adding a WiFi network.

Run it from a keyboard and monitor, or over a serial console:

  sudo pirescue`,
	Version:       shared.Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          rescue_cli.Wrap(fix.RunFix),
}

// HelpCmd wraps help so that it can be invoked like a normal command.
var HelpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	RunE: rescue_cli.Wrap(func(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return RootCmd.Help()
		}
		c, _, err := RootCmd.Find(args)
		if err != nil || c == nil {
			return rescue_err.NewExpectedError(cerr.Newf("command not found: %s", strings.Join(args, " ")))
		}
		return c.Help()
	}),
}

var registered bool

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	if registered {
		return
	}
	registered = true

	cmd_helpers.AddGlobalFlags(RootCmd.PersistentFlags())
	fix.AddFlags(RootCmd.Flags())
	RootCmd.SetHelpCommand(HelpCmd)

	for _, subCmd := range []*cobra.Command{
		fix.FixCmd,
		diagnose.DiagnoseCmd,
		setup.SetupCmd,
		status.StatusCmd,
		history.HistoryCmd,
		config.ConfigCmd,
	} {
		RootCmd.AddCommand(subCmd)
	}
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so polling and external commands stop promptly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.GetLogger().Debug("Telemetry shutdown failed", zap.Error(err))
		}
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to flush logs: %v\n", err)
		}
	}()

	logger.GetLogger().Debug("pirescue starting", zap.String("version", shared.Version))

	RegisterCommands()
	RootCmd.SetArgs(args)

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		if rescue_err.IsExpectedUserError(err) {
			rescue_err.PrintError(os.Stderr, "pirescue stopped", err)
			return 0
		}
		rescue_err.PrintError(os.Stderr, "pirescue failed", err)
		return 1
	}
	return 0
}
