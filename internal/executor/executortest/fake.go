// Package executortest provides a scripted executor.Runner for tests.
package executortest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call is one recorded command invocation.
type Call struct {
	Sudo bool
	Line string // name and args joined by single spaces
}

// Response is the canned result for a command line.
type Response struct {
	Output string
	Err    error
}

// Runner answers commands from a table keyed by the full command line.
// Unknown commands fail, so tests notice queries they did not script.
type Runner struct {
	Responses map[string]Response
	Binaries  map[string]bool

	mu    sync.Mutex
	calls []Call
}

// New returns a Runner with empty response and binary tables.
func New() *Runner {
	return &Runner{
		Responses: map[string]Response{},
		Binaries:  map[string]bool{},
	}
}

// On scripts the output of a command line.
func (r *Runner) On(line, output string) *Runner {
	r.Responses[line] = Response{Output: output}
	return r
}

// Fail scripts a failing command line.
func (r *Runner) Fail(line string, err error) *Runner {
	r.Responses[line] = Response{Err: err}
	return r
}

// WithBinaries marks binaries as present on PATH.
func (r *Runner) WithBinaries(names ...string) *Runner {
	for _, n := range names {
		r.Binaries[n] = true
	}
	return r
}

func (r *Runner) Run(_ context.Context, name string, args ...string) error {
	_, err := r.respond(false, name, args)
	return err
}

func (r *Runner) RunSudo(_ context.Context, name string, args ...string) error {
	_, err := r.respond(true, name, args)
	return err
}

func (r *Runner) Output(_ context.Context, name string, args ...string) (string, error) {
	return r.respond(false, name, args)
}

func (r *Runner) LookPath(name string) bool {
	return r.Binaries[name]
}

// Calls returns every recorded invocation in order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns the command lines of every recorded invocation.
func (r *Runner) Lines() []string {
	var lines []string
	for _, c := range r.Calls() {
		lines = append(lines, c.Line)
	}
	return lines
}

func (r *Runner) respond(sudo bool, name string, args []string) (string, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	r.mu.Lock()
	r.calls = append(r.calls, Call{Sudo: sudo, Line: line})
	r.mu.Unlock()

	resp, ok := r.Responses[line]
	if !ok {
		// Mutating commands succeed silently unless scripted otherwise.
		if sudo {
			return "", nil
		}
		return "", fmt.Errorf("%s: unscripted command", line)
	}
	return resp.Output, resp.Err
}
