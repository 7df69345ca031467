// cmd/history/history.go

package history

import (
	"fmt"
	"os"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/cmd_helpers"
	runhistory "github.com/CodeMonkeyCybersecurity/pirescue/pkg/history"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/output"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_cli"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const timeFormat = "2006-01-02 15:04:05"

var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous recovery runs",
	Long: `List the newest recorded runs, or every check of one run with --id.

EXAMPLES:
  pirescue history
  pirescue history --limit 50
  pirescue history --id 3f0c2a9e-...`,
	Args: cobra.NoArgs,
	RunE: rescue_cli.Wrap(runHistory),
}

func init() {
	HistoryCmd.Flags().Int("limit", 10, "Number of runs to show")
	HistoryCmd.Flags().String("id", "", "Show the checks recorded for one run")
}

func runHistory(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) error {
	logger := otelzap.Ctx(rc.Ctx)
	cfg, err := cmd_helpers.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return rescue_err.NewExpectedError(cerr.WithHint(
			cerr.New("run history is disabled"), "set history.path in /etc/pirescue/config.yaml"))
	}

	store, err := runhistory.Open(rc.Ctx, cfg.History.Path)
	if err != nil {
		return cerr.WithHint(err, "history is written by root; try sudo")
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("Failed to close history store", zap.Error(closeErr))
		}
	}()

	if id, _ := cmd.Flags().GetString("id"); id != "" {
		run, err := store.Get(rc.Ctx, id)
		if err != nil {
			return rescue_err.NewExpectedError(cerr.Wrapf(err, "run %s", id))
		}
		return printRun(run)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return rescue_err.NewExpectedError(cerr.Newf("--limit must be positive, got %d", limit))
	}
	runs, err := store.List(rc.Ctx, limit)
	if err != nil {
		return err
	}
	logger.Debug("History listed", zap.Int("runs", len(runs)), zap.String("path", cfg.History.Path))
	return printRuns(runs)
}

func printRuns(runs []runhistory.Run) error {
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	table := output.NewTableTo(os.Stdout).
		WithHeaders("RUN", "STARTED", "COMMAND", "SSID", "IP", "RESULT")
	for _, r := range runs {
		table.AddRow(shortID(r.ID), r.StartedAt.Local().Format(timeFormat), r.Command,
			orDash(r.SSID), orDash(r.IPAddress), result(r))
	}
	return table.Render()
}

func printRun(r runhistory.Run) error {
	rep := output.NewReporter(os.Stdout)
	rep.Line("Run:      %s", r.ID)
	rep.Line("Command:  %s", r.Command)
	rep.Line("Started:  %s (%s)", r.StartedAt.Local().Format(timeFormat), r.Duration().Round(time.Millisecond))
	rep.Line("Host:     %s %s %s", r.Host, r.Kernel, r.Machine)
	rep.Line("WiFi:     %s", orDash(r.SSID))
	rep.Line("IP:       %s", orDash(r.IPAddress))
	if r.Error != "" {
		rep.Line("Error:    %s", r.Error)
	}
	if len(r.Checks) > 0 {
		rep.Blank()
	}
	for _, c := range r.Checks {
		rep.Check(output.Status(c.Status), "%s", c.Detail)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func result(r runhistory.Run) string {
	switch {
	case r.Error != "":
		return "error"
	case r.Connected:
		return "connected"
	default:
		return "offline"
	}
}
