package recovery

import (
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/execute"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/output"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/telemetry"
	"github.com/hashicorp/go-multierror"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const raspiConfig = "raspi-config"

// ImmediateFixes enables SSH and VNC, brings the wireless interface up and
// restarts the network services. Every step is attempted; the returned error
// aggregates the ones that failed and is advisory only.
func (r *Rescuer) ImmediateFixes(rc *rescue_io.RuntimeContext) error {
	ctx, span := telemetry.Start(rc.Ctx, "recovery.immediate_fixes")
	defer span.End()
	logger := otelzap.Ctx(ctx)

	r.out.Banner("IMMEDIATE FIXES")
	logger.Info("=== INTERVENE PHASE: Applying immediate fixes ===",
		zap.String("interface", r.cfg.Interface))

	var result *multierror.Error
	record := func(err error, ok string, format string, args ...any) {
		if err != nil {
			result = multierror.Append(result, err)
			r.out.Check(output.StatusWarn, format, args...)
			return
		}
		r.out.Check(output.StatusPass, "%s", ok)
	}

	if r.available(raspiConfig) {
		for _, item := range []string{"do_ssh", "do_vnc"} {
			_, err := r.runner.Run(ctx, execute.Options{
				Command: raspiConfig,
				Args:    []string{"nonint", item, "0"},
				Sudo:    true,
			})
			record(err, "raspi-config "+item+" applied", "raspi-config %s failed", item)
		}
	} else {
		logger.Debug("raspi-config not on PATH, boot settings left alone")
	}

	for _, unit := range []string{r.cfg.Services.SSH, r.cfg.Services.VNC} {
		r.out.Step("Enabling %s", unit)
		record(r.services.EnableAndStart(ctx, unit), unit+" enabled and started", "Could not enable/start %s", unit)
	}

	r.out.Step("Bringing up %s", r.cfg.Interface)
	record(r.wifi.Up(ctx), r.cfg.Interface+" is up", "Could not bring up %s", r.cfg.Interface)

	for _, unit := range r.cfg.Services.Restart {
		r.out.Step("Restarting %s", unit)
		record(r.services.Restart(ctx, unit), unit+" restarted", "Could not restart %s", unit)
	}

	err := result.ErrorOrNil()
	failed := 0
	if result != nil {
		failed = len(result.Errors)
	}
	span.SetAttributes(attribute.Int("failed_steps", failed))
	if err != nil {
		logger.Warn("Some immediate fixes failed, continuing", zap.Int("failed", failed), zap.Error(err))
	} else {
		logger.Info("Immediate fixes applied")
	}
	return err
}
