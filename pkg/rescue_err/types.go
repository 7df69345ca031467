// pkg/rescue_err/types.go

package rescue_err

import "errors"

var (
	// ErrEmptySSID is returned when the operator submits an empty network name.
	ErrEmptySSID = errors.New("SSID cannot be empty")

	// ErrEmptyPassword is returned when the operator submits an empty passphrase.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrNotInteractive means stdin is not a terminal and nothing can be prompted.
	ErrNotInteractive = errors.New("stdin is not a terminal")

	ErrNotRoot = errors.New("this command must be run as root")
)

// UserError marks an error as expected and recoverable by the operator.
type UserError struct {
	cause error
}

func (e *UserError) Error() string {
	return e.cause.Error()
}

func (e *UserError) Unwrap() error {
	return e.cause
}
