package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/execute"
)

// ErrCommandFailed is the default error for scripted failures.
var ErrCommandFailed = errors.New("exit status 1")

// Response is a scripted command result.
type Response struct {
	Output string
	Err    error
}

// FakeRunner answers commands from a script keyed by command line
// ("systemctl is-active ssh"). Unknown commands succeed with no output.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]Response
	handlers  map[string]func(call int) Response
	calls     []execute.Options
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string][]Response),
		handlers:  make(map[string]func(int) Response),
	}
}

// On queues responses for cmdline. The last one repeats once the queue drains.
func (f *FakeRunner) On(cmdline string, responses ...Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = append(f.responses[cmdline], responses...)
	return f
}

// OnOutput is shorthand for a successful command printing out.
func (f *FakeRunner) OnOutput(cmdline, out string) *FakeRunner {
	return f.On(cmdline, Response{Output: out})
}

// OnFail is shorthand for a command exiting non-zero.
func (f *FakeRunner) OnFail(cmdline, out string) *FakeRunner {
	return f.On(cmdline, Response{Output: out, Err: ErrCommandFailed})
}

// OnFunc answers cmdline with fn, called with the 1-based call count.
func (f *FakeRunner) OnFunc(cmdline string, fn func(call int) Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[cmdline] = fn
	return f
}

func (f *FakeRunner) Run(ctx context.Context, opts execute.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	line := opts.CommandLine()
	f.calls = append(f.calls, opts)

	if fn, ok := f.handlers[line]; ok {
		r := fn(f.countLocked(line))
		return r.Output, r.Err
	}

	queue := f.responses[line]
	switch len(queue) {
	case 0:
		return "", nil
	case 1:
		return queue[0].Output, queue[0].Err
	default:
		f.responses[line] = queue[1:]
		return queue[0].Output, queue[0].Err
	}
}

// Calls returns every command line run so far, in order.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.CommandLine())
	}
	return out
}

// Count returns how many times cmdline ran.
func (f *FakeRunner) Count(cmdline string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(cmdline)
}

// Sudoed reports whether cmdline was requested with privilege escalation.
func (f *FakeRunner) Sudoed(cmdline string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.CommandLine() == cmdline {
			return c.Sudo
		}
	}
	return false
}

// ReadOnly reports whether cmdline was marked as a state query.
func (f *FakeRunner) ReadOnly(cmdline string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.CommandLine() == cmdline {
			return c.ReadOnly
		}
	}
	return false
}

// CallsWithPrefix filters Calls by prefix.
func (f *FakeRunner) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeRunner) countLocked(cmdline string) int {
	n := 0
	for _, c := range f.calls {
		if c.CommandLine() == cmdline {
			n++
		}
	}
	return n
}
