// pkg/interaction/prompt.go

package interaction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	DefaultYesPrompt = "Y/n"
	DefaultNoPrompt  = "y/N"
)

// Prompter asks the operator questions.
type Prompter interface {
	Interactive() bool
	Confirm(ctx context.Context, prompt string, defaultYes bool) (bool, error)
	Input(ctx context.Context, label string) (string, error)
	Secret(ctx context.Context, label string) (string, error)
}

// TerminalPrompter reads answers from a terminal. Secrets are read without echo
// when In is a TTY.
type TerminalPrompter struct {
	In        *os.File
	Out       io.Writer
	AssumeYes bool

	reader *bufio.Reader
}

// NewTerminalPrompter prompts on stderr and reads stdin.
func NewTerminalPrompter(assumeYes bool) *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr, AssumeYes: assumeYes}
}

// Interactive reports whether stdin is attached to a terminal.
func (p *TerminalPrompter) Interactive() bool {
	fd := p.In.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Confirm asks a yes/no question, falling back to the default on empty or unknown input.
func (p *TerminalPrompter) Confirm(ctx context.Context, prompt string, defaultYes bool) (bool, error) {
	logger := otelzap.Ctx(ctx)
	if p.AssumeYes {
		logger.Debug("✅ Confirmation assumed", zap.String("prompt", prompt))
		return true, nil
	}

	def := DefaultYesPrompt
	if !defaultYes {
		def = DefaultNoPrompt
	}
	input, err := ReadLine(ctx, p.bufReader(), p.Out, fmt.Sprintf("%s [%s]", prompt, def))
	if err != nil {
		return defaultYes, err
	}
	if answer, ok := NormalizeYesNoInput(input); ok {
		return answer, nil
	}
	logger.Debug("ℹ️ Default applied", zap.String("prompt", prompt), zap.Bool("default_yes", defaultYes))
	return defaultYes, nil
}

// Input reads one trimmed line.
func (p *TerminalPrompter) Input(ctx context.Context, label string) (string, error) {
	return ReadLine(ctx, p.bufReader(), p.Out, label)
}

// Secret reads a line without echo. Non-terminal input is read as a plain line.
// Cancelling ctx restores the terminal and returns an expected error.
func (p *TerminalPrompter) Secret(ctx context.Context, label string) (string, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		otelzap.Ctx(ctx).Debug("Secret prompt on non-terminal input, echo cannot be disabled")
		return ReadLine(ctx, p.bufReader(), p.Out, label)
	}
	if err := ctx.Err(); err != nil {
		return "", promptInterrupted(err)
	}

	state, err := term.GetState(fd)
	if err != nil {
		return "", cerr.Wrap(err, "read terminal state")
	}

	_, _ = fmt.Fprint(p.Out, label+": ")
	done := make(chan readResult, 1)
	go func() {
		secret, err := term.ReadPassword(fd)
		done <- readResult{text: string(secret), err: err}
	}()

	select {
	case <-ctx.Done():
		if err := term.Restore(fd, state); err != nil {
			otelzap.Ctx(ctx).Warn("Could not restore terminal echo", zap.Error(err))
		}
		_, _ = fmt.Fprintln(p.Out)
		return "", promptInterrupted(ctx.Err())
	case res := <-done:
		_, _ = fmt.Fprintln(p.Out)
		if res.err != nil {
			return "", cerr.Wrap(res.err, "read secret input")
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}

func (p *TerminalPrompter) bufReader() *bufio.Reader {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	return p.reader
}

type readResult struct {
	text string
	err  error
}

// ReadLine writes label to out and returns a trimmed line from reader.
// A final line without newline is accepted; EOF before any input is an
// expected error. Cancelling ctx abandons the read and returns an expected
// error wrapping ctx.Err(); reader must not be used again afterwards.
func ReadLine(ctx context.Context, reader *bufio.Reader, out io.Writer, label string) (string, error) {
	logger := otelzap.Ctx(ctx)
	if err := ctx.Err(); err != nil {
		return "", promptInterrupted(err)
	}
	logger.Debug("📝 Prompting user for input", zap.String("label", label))

	_, _ = fmt.Fprint(out, label+": ")

	done := make(chan readResult, 1)
	go func() {
		text, err := reader.ReadString('\n')
		done <- readResult{text: text, err: err}
	}()

	var res readResult
	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(out)
		logger.Info("Prompt cancelled", zap.String("label", label))
		return "", promptInterrupted(ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		if res.err == io.EOF && res.text != "" {
			return strings.TrimSpace(res.text), nil
		}
		if res.err == io.EOF {
			return "", rescue_err.NewExpectedError(cerr.Wrap(res.err, "no input"))
		}
		return "", cerr.Wrap(res.err, "read user input")
	}
	return strings.TrimSpace(res.text), nil
}

func promptInterrupted(err error) error {
	return rescue_err.NewExpectedError(cerr.Wrap(err, "prompt interrupted"))
}

// NormalizeYesNoInput returns (answer, recognised).
func NormalizeYesNoInput(input string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}
