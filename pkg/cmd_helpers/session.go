// Package cmd_helpers wires configuration, the command runner, prompts and
// run recording for the pirescue commands.
package cmd_helpers

import (
	"context"
	"os"
	"strconv"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/config"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/history"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/interaction"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/metrics"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/output"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/recovery"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Flag names shared by every command.
const (
	FlagConfig    = "config"
	FlagInterface = "interface"
	FlagWPAConfig = "wpa-config"
	FlagCountry   = "country"
	FlagDryRun    = "dry-run"
	FlagYes       = "yes"
)

// AddGlobalFlags registers the persistent flags on the root command.
func AddGlobalFlags(flags *pflag.FlagSet) {
	flags.String(FlagConfig, "", "Config file (default /etc/pirescue/config.yaml)")
	flags.String(FlagInterface, "", "Wireless interface (default wlan0)")
	flags.String(FlagWPAConfig, "", "wpa_supplicant config file")
	flags.String(FlagCountry, "", "Two-letter WiFi country code")
	flags.Bool(FlagDryRun, false, "Log external commands instead of running them")
	flags.BoolP(FlagYes, "y", false, "Answer yes to the WiFi setup confirmation")
}

// LoadConfig resolves the effective configuration for the parsed flags.
func LoadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	path, _ := flags.GetString(FlagConfig)
	v := viper.New()
	if err := config.BindFlags(v, flags); err != nil {
		return nil, cerr.Wrap(err, "bind flags")
	}
	return config.Load(v, path)
}

// Session is everything one command invocation needs.
type Session struct {
	Config  *config.Config
	Rescuer *recovery.Rescuer
	Out     *output.Reporter
	Prompt  interaction.Prompter
	DryRun  bool
	Run     *history.Run

	geteuid func() int
}

// NewSession loads configuration and builds the rescuer for cmd.
func NewSession(rc *rescue_io.RuntimeContext, cmd *cobra.Command) (*Session, error) {
	flags := cmd.Flags()
	dryRun, _ := flags.GetBool(FlagDryRun)
	yes, _ := flags.GetBool(FlagYes)

	cfg, err := LoadConfig(flags)
	if err != nil {
		return nil, err
	}

	out := output.NewReporter(os.Stdout)
	runner := execute.NewRunner(rc.Log, dryRun)
	prompt := interaction.NewTerminalPrompter(yes)

	run := history.NewRun(rc.Command)
	run.ID = rc.RunID
	run.StartedAt = rc.Timestamp.UTC()

	rc.Attributes["interface"] = cfg.Interface
	rc.Attributes["dry_run"] = strconv.FormatBool(dryRun)

	otelzap.Ctx(rc.Ctx).Debug("Session ready",
		zap.String("interface", cfg.Interface),
		zap.String("wpa_config", cfg.WPAConfig),
		zap.Bool("dry_run", dryRun))

	return &Session{
		Config:  cfg,
		Rescuer: recovery.New(cfg, runner, prompt, out),
		Out:     out,
		Prompt:  prompt,
		DryRun:  dryRun,
		Run:     run,
		geteuid: unix.Geteuid,
	}, nil
}

// RequireRoot refuses to mutate the system without root, unless dry-running.
func (s *Session) RequireRoot() error {
	if s.DryRun || s.geteuid() == 0 {
		return nil
	}
	return rescue_err.NewExpectedError(
		cerr.WithHint(rescue_err.ErrNotRoot, "rerun with sudo, or pass --dry-run to rehearse"))
}

// Finish stamps the run and, outside dry-run, records it in the history
// store and the metrics textfile. Recording problems are logged only.
func (s *Session) Finish(rc *rescue_io.RuntimeContext, runErr error) {
	logger := otelzap.Ctx(rc.Ctx)
	s.Run.Finish(runErr)
	if s.DryRun {
		logger.Debug("Dry run, not recording", zap.String("run_id", s.Run.ID))
		return
	}

	if path := s.Config.History.Path; path != "" {
		if err := recordHistory(context.WithoutCancel(rc.Ctx), path, s.Run); err != nil {
			logger.Warn("Could not record run history", zap.String("path", path), zap.Error(err))
		}
	}

	if dir := s.Config.Metrics.TextfileDir; dir != "" {
		networks := -1
		if f := s.Rescuer.ConfigFile(); f.Exists() {
			if n, err := f.CountNetworks(); err == nil {
				networks = n
			}
		}
		m := metrics.New()
		m.ObserveRun(s.Run, networks)
		if path, err := m.WriteTextfile(dir); err != nil {
			logger.Warn("Could not write metrics textfile", zap.String("dir", dir), zap.Error(err))
		} else {
			logger.Debug("Metrics textfile written", zap.String("path", path))
		}
	}
}

// recordHistory ignores cancellation so an interrupted run is still recorded.
func recordHistory(ctx context.Context, path string, run *history.Run) error {
	store, err := history.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Record(ctx, run)
}
