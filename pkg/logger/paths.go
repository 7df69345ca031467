/* pkg/logger/paths.go */

package logger

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/shared"
	"go.uber.org/zap/zapcore"
)

// PlatformLogPaths returns candidate log files in order of priority.
func PlatformLogPaths() []string {
	paths := []string{shared.LogFile}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".pirescue", "pirescue.log"))
	}
	return append(paths, shared.LogFilePWD, "/tmp/pirescue/pirescue.log")
}

// FindWritableLogPath returns the first candidate whose directory can be created and written.
func FindWritableLogPath() (string, error) {
	for _, path := range PlatformLogPaths() {
		if writable(path) {
			return path, nil
		}
	}
	return "", errors.New("no writable log path found")
}

// GetLogFileWriter opens path for appending.
func GetLogFileWriter(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, shared.FilePermOwnerReadWrite)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}

func writable(path string) bool {
	if err := os.MkdirAll(filepath.Dir(path), shared.RuntimeDirPerms); err != nil {
		return false
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, shared.FilePermOwnerReadWrite)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// fsync on a tty or pipe returns EINVAL/ENOTTY; nothing was lost.
func isIgnorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF)
}
