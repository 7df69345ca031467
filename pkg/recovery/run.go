package recovery

import (
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type RunOptions struct {
	SkipWiFiSetup bool
}

// Report collects what a full run observed.
type Report struct {
	FixErr error
	Checks []CheckResult
	Setup  *SetupResult
	Final  Snapshot
}

// Run executes fixes, diagnosis, the optional WiFi setup and the final status
// in that order. Only cancellation stops it early; every other failure is
// reported and the run continues to the closing message.
func (r *Rescuer) Run(rc *rescue_io.RuntimeContext, opts RunOptions) (*Report, error) {
	logger := otelzap.Ctx(rc.Ctx)
	report := &Report{}

	report.FixErr = r.ImmediateFixes(rc)
	if err := rc.Ctx.Err(); err != nil {
		return report, interrupted(err)
	}

	checks, err := r.Diagnose(rc)
	report.Checks = checks
	if err != nil {
		return report, interrupted(err)
	}

	if !opts.SkipWiFiSetup {
		setup, err := r.maybeSetupWiFi(rc)
		report.Setup = setup
		if ctxErr := rc.Ctx.Err(); ctxErr != nil {
			return report, interrupted(ctxErr)
		}
		if err != nil {
			if rescue_err.IsExpectedUserError(err) {
				logger.Warn("WiFi setup aborted", zap.Error(err))
			} else {
				logger.Error("WiFi setup failed", zap.Error(err))
			}
		}
	}

	report.Final = r.ShowFinalStatus(rc)
	r.out.Blank()
	r.out.Line("Emergency recovery complete.")
	return report, nil
}

func (r *Rescuer) maybeSetupWiFi(rc *rescue_io.RuntimeContext) (*SetupResult, error) {
	if !r.prompt.Interactive() {
		r.out.Blank()
		r.out.Line("Not running on a terminal, skipping interactive WiFi setup.")
		r.out.Line("Run 'sudo pirescue setup wifi' from a console to add a network.")
		otelzap.Ctx(rc.Ctx).Info("WiFi setup skipped", zap.Error(rescue_err.ErrNotInteractive))
		return nil, nil
	}

	r.out.Blank()
	ok, err := r.prompt.Confirm(rc.Ctx, "Would you like to configure WiFi now?", false)
	if err != nil {
		return nil, err
	}
	if !ok {
		otelzap.Ctx(rc.Ctx).Info("WiFi setup declined")
		return nil, nil
	}
	return r.SetupWiFi(rc)
}

func interrupted(err error) error {
	return rescue_err.NewExpectedError(cerr.Wrap(err, "recovery interrupted"))
}
