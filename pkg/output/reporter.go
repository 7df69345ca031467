// Package output renders operator-facing recovery text.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Status is the outcome of a single check.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
)

// Symbol returns the check mark printed for s.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusFail:
		return "✗"
	default:
		return "⚠"
	}
}

const bannerWidth = 40

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00c000"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff3030"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00aaff"))
)

// Reporter writes banners and check lines. Colour is only used on a terminal.
type Reporter struct {
	w      io.Writer
	styled bool
}

// NewReporter styles output when w is a terminal.
func NewReporter(w io.Writer) *Reporter {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd())
	}
	return &Reporter{w: w, styled: styled}
}

// NewPlainReporter never styles output.
func NewPlainReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Writer exposes the underlying writer for tables.
func (r *Reporter) Writer() io.Writer {
	return r.w
}

// Banner prints a section header.
func (r *Reporter) Banner(title string) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.style(bannerStyle, rule))
	fmt.Fprintln(r.w, r.style(bannerStyle, title))
	fmt.Fprintln(r.w, r.style(bannerStyle, rule))
}

// Check prints one "✓ message" line.
func (r *Reporter) Check(s Status, format string, args ...any) {
	sym := s.Symbol()
	switch s {
	case StatusPass:
		sym = r.style(passStyle, sym)
	case StatusFail:
		sym = r.style(failStyle, sym)
	default:
		sym = r.style(warnStyle, sym)
	}
	fmt.Fprintf(r.w, "%s %s\n", sym, fmt.Sprintf(format, args...))
}

// Step prints an in-progress action line.
func (r *Reporter) Step(format string, args ...any) {
	fmt.Fprintf(r.w, "→ %s\n", fmt.Sprintf(format, args...))
}

// Line prints plain text.
func (r *Reporter) Line(format string, args ...any) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

// Blank prints an empty line.
func (r *Reporter) Blank() {
	fmt.Fprintln(r.w)
}

func (r *Reporter) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}
