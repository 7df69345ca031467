// pkg/rescue_err/util.go

package rescue_err

import (
	"errors"
	"fmt"
	"io"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// NewExpectedError wraps an error for softer UX handling.
func NewExpectedError(err error) error {
	if err == nil {
		return nil
	}
	return &UserError{cause: err}
}

// IsExpectedUserError checks if the error is marked as expected.
func IsExpectedUserError(err error) bool {
	var e *UserError
	return errors.As(err, &e)
}

// WrapCommandError attaches a hint pointing the operator at the failing tool.
func WrapCommandError(err error, tool string) error {
	if err == nil {
		return nil
	}
	return cerr.WithHint(cerr.WithStack(err), fmt.Sprintf("check that %s is installed and you have root privileges", tool))
}

// ExtractSummary extracts a concise error summary from full command output.
func ExtractSummary(output string, maxCandidates int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "No output provided."
	}

	lines := strings.Split(trimmed, "\n")
	var candidates []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") ||
			strings.Contains(lower, "failed") ||
			strings.Contains(lower, "cannot") ||
			strings.Contains(lower, "not found") ||
			strings.Contains(lower, "timeout") {
			candidates = append(candidates, line)
		}
	}

	if len(candidates) > 0 {
		if len(candidates) > maxCandidates {
			candidates = candidates[:maxCandidates]
		}
		return strings.Join(candidates, " - ")
	}
	return strings.TrimSpace(lines[0])
}

// PrintError writes a human-readable error without exiting.
func PrintError(w io.Writer, userMessage string, err error) {
	if err == nil {
		return
	}
	if IsExpectedUserError(err) {
		zap.L().Warn(userMessage, zap.Error(err))
		fmt.Fprintf(w, "⚠️  Notice: %s: %v\n", userMessage, err)
	} else {
		zap.L().Error(userMessage, zap.Error(err))
		fmt.Fprintf(w, "❌ Error: %s: %v\n", userMessage, err)
	}
	if hints := cerr.GetAllHints(err); len(hints) > 0 {
		fmt.Fprintf(w, "👉 Hint: %s\n", strings.Join(hints, "; "))
	}
}
