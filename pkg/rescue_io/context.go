// pkg/rescue_io/context.go

package rescue_io

import (
	"context"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/shared"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	RunID      string
	Timestamp  time.Time
	Span       trace.Span
	Command    string
	Attributes map[string]string
}

// NewContext sets up tracing and a command-scoped logger.
func NewContext(parent context.Context, cmdName string) *RuntimeContext {
	ctx, span := telemetry.Start(parent, cmdName)
	runID := uuid.NewString()

	logger := zap.L().With(
		zap.String("command", cmdName),
		zap.String("run_id", runID),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	).Named(cmdName)

	return &RuntimeContext{
		Ctx:        ctx,
		Log:        logger,
		RunID:      runID,
		Span:       span,
		Timestamp:  time.Now(),
		Command:    cmdName,
		Attributes: make(map[string]string),
	}
}

// HandlePanic recovers panics, logs them, and converts to an error.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = cerr.AssertionFailedf("panic: %v", r)
		rc.Log.Error("panic recovered", zap.Any("panic", r))
	}
}

// End logs the outcome and closes the command span.
func (rc *RuntimeContext) End(errPtr *error) {
	defer rc.Span.End()

	var err error
	if errPtr != nil {
		err = *errPtr
	}
	duration := time.Since(rc.Timestamp)

	if err == nil {
		rc.Log.Info("Command completed", zap.Duration("duration", duration))
	} else if rescue_err.IsExpectedUserError(err) {
		rc.Log.Warn("Command stopped by operator input", zap.Duration("duration", duration), zap.Error(err))
	} else {
		rc.Log.Error("Command failed", zap.Duration("duration", duration), zap.Error(err))
		rc.Span.RecordError(err)
	}

	rc.Span.SetAttributes(
		attribute.Bool("success", err == nil),
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.String("os", runtime.GOOS),
		attribute.String("args", strings.Join(os.Args[1:], " ")),
		attribute.String("version", shared.Version),
		attribute.String("error_type", classifyError(err)),
	)
	for k, v := range rc.Attributes {
		rc.Span.SetAttributes(attribute.String(k, v))
	}
}

// LogRuntimeExecutionContext records who is running the binary.
func LogRuntimeExecutionContext(rc *RuntimeContext) {
	if u, err := user.Current(); err == nil {
		rc.Log.Debug("🔎 User context",
			zap.String("username", u.Username),
			zap.Int("effective_uid", os.Geteuid()),
			zap.String("home", u.HomeDir),
		)
	} else {
		rc.Log.Debug("⚠️ Failed to get current user", zap.Error(err))
	}
	if exe, err := os.Executable(); err == nil {
		rc.Log.Debug("🗂️ Executing binary", zap.String("path", exe))
	}
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if rescue_err.IsExpectedUserError(err) {
		return "user"
	}
	return "system"
}
