// pkg/rescue_cli/wrap.go

package rescue_cli

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Wrap ensures panic recovery, telemetry and logging around a command.
func Wrap(fn func(rc *rescue_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		logger.GetLogger()

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}

		rc := rescue_io.NewContext(parent, commandName(cmd))
		defer rc.End(&err)

		defer func() {
			if r := recover(); r != nil {
				err = cerr.AssertionFailedf("panic: %v", r)
				rc.Log.Error("Panic recovered", zap.Any("panic", r))
			}
		}()

		rescue_io.LogRuntimeExecutionContext(rc)

		err = fn(rc, cmd, args)
		if err != nil && !rescue_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}

// commandName joins the path below the root, e.g. "setup wifi".
func commandName(cmd *cobra.Command) string {
	if cmd.HasParent() && cmd.Parent().HasParent() {
		return cmd.Parent().Name() + " " + cmd.Name()
	}
	return cmd.Name()
}
