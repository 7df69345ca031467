package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// CreateTestFile writes content under dir and returns its path.
func CreateTestFile(t *testing.T, dir, filename, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// AssertFileNotExists fails if path exists.
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("expected file to not exist: %s", path)
	}
}

// TestContext returns a RuntimeContext whose zap and otelzap globals log to t.
func TestContext(t *testing.T) *rescue_io.RuntimeContext {
	t.Helper()
	logger := zaptest.NewLogger(t)
	zap.ReplaceGlobals(logger)
	otelzap.ReplaceGlobals(otelzap.New(logger))
	return rescue_io.NewContext(context.Background(), t.Name())
}
