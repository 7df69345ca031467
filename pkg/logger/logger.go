/* pkg/logger/logger.go */

package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// L returns the process logger, or nil before initialisation.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger installs l as the process logger and as the zap and otelzap globals.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
	zap.ReplaceGlobals(l)
	otelzap.ReplaceGlobals(otelzap.New(l))
}

// GetLogger returns the process logger, installing the console fallback if needed.
func GetLogger() *zap.Logger {
	if l := L(); l != nil {
		return l
	}
	fallback := NewFallbackLogger()
	SetLogger(fallback)
	return fallback
}

// InitializeWithFallback tees a console core (stderr) with a JSON file core.
// When no log path is writable it logs to the console only.
func InitializeWithFallback() {
	level := ParseLogLevel(os.Getenv("LOG_LEVEL"))

	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		consoleLevel(level),
	)

	path, err := FindWritableLogPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "⚠️  No writable log path found. Logging to console only.")
		SetLogger(zap.New(console, zap.AddCaller()))
		return
	}

	writer, err := GetLogFileWriter(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "⚠️  Could not open log file, logging to console only:", err)
		SetLogger(zap.New(console, zap.AddCaller()))
		return
	}

	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	jsonCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		console,
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), writer, level),
	)
	l := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	SetLogger(l)
	l.Debug("Logger initialized", zap.String("log_path", path), zap.String("log_level", level.String()))
}

// NewFallbackLogger logs to stderr only.
func NewFallbackLogger() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()),
		zapcore.AddSync(os.Stderr),
		ParseLogLevel(os.Getenv("LOG_LEVEL")),
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Sync flushes the process logger. Errors from syncing a terminal are ignored.
func Sync() error {
	l := L()
	if l == nil {
		return nil
	}
	if err := l.Sync(); err != nil && !isIgnorableSyncError(err) {
		return err
	}
	return nil
}

func DefaultConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "T"
	cfg.LevelKey = "L"
	cfg.NameKey = "N"
	cfg.CallerKey = ""
	cfg.MessageKey = "M"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// ParseLogLevel maps LOG_LEVEL values onto zap levels, defaulting to info.
func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "TRACE", "DEBUG", "debug":
		return zapcore.DebugLevel
	case "WARN", "warn":
		return zapcore.WarnLevel
	case "ERROR", "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// The console is shared with the operator-facing report, so it only shows
// warnings unless debug logging was asked for.
func consoleLevel(level zapcore.Level) zapcore.Level {
	if level <= zapcore.DebugLevel {
		return level
	}
	return zapcore.WarnLevel
}
