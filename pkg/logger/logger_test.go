package logger

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func prevOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"DEBUG": zapcore.DebugLevel,
		"TRACE": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "input %q", in)
	}
}

func TestConsoleLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, consoleLevel(zapcore.InfoLevel))
	assert.Equal(t, zapcore.DebugLevel, consoleLevel(zapcore.DebugLevel))
	assert.Equal(t, zapcore.ErrorLevel, consoleLevel(zapcore.ErrorLevel))
}

func TestGetLogFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pirescue.log")
	w, err := GetLogFileWriter(path)
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestWritable(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, writable(filepath.Join(dir, "nested", "a.log")))
}

func TestGetLogger_InstallsFallback(t *testing.T) {
	mu.Lock()
	prev := log
	log = nil
	mu.Unlock()
	t.Cleanup(func() { SetLogger(prevOrNop(prev)) })

	l := GetLogger()
	require.NotNil(t, l)
	assert.Same(t, l, L())
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(&os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}))
	assert.False(t, isIgnorableSyncError(os.ErrPermission))
}
