// pkg/telemetry/telemetry.go
package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	mu       sync.RWMutex
	tracer   trace.Tracer
	shutdown = func(context.Context) error { return nil }
)

// Init configures OpenTelemetry; call this early in main().
// Spans are only exported when PIRESCUE_TELEMETRY is "on".
func Init(service string) error {
	if !enabled() {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		setTracer(tp.Tracer(service), nil)
		return nil
	}

	dir := "/var/log/pirescue"
	if err := os.MkdirAll(dir, 0o750); err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".pirescue", "telemetry")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return cerr.Wrap(err, "failed to create telemetry directory")
		}
	}

	file, err := os.OpenFile(filepath.Join(dir, "telemetry.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return cerr.Wrap(err, "failed to open telemetry file")
	}

	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(file),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		_ = file.Close()
		return cerr.Wrap(err, "failed to create file exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(sdkresource.NewSchemaless(
			attribute.String("service.name", service),
			attribute.String("host.name", hostname()),
		)),
	)
	otel.SetTracerProvider(tp)
	setTracer(tp.Tracer(service), func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		_ = file.Close()
		return err
	})
	return nil
}

// Start a telemetry span with optional attributes.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	mu.RLock()
	t := tracer
	mu.RUnlock()
	if t == nil {
		t = otel.Tracer("pirescue")
	}
	return t.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) error {
	mu.RLock()
	fn := shutdown
	mu.RUnlock()
	return fn(ctx)
}

func setTracer(t trace.Tracer, stop func(context.Context) error) {
	mu.Lock()
	defer mu.Unlock()
	tracer = t
	if stop != nil {
		shutdown = stop
	}
}

func enabled() bool {
	return strings.EqualFold(os.Getenv("PIRESCUE_TELEMETRY"), "on")
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
