// Package executor runs external commands with optional sudo elevation and dry-run support.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"migrator/internal/logging"
)

// Runner is the subset of Executor that backends and repository handlers depend on.
type Runner interface {
	// Run executes a command, streaming its output to the terminal.
	Run(ctx context.Context, name string, args ...string) error

	// RunSudo executes a command as root, using sudo when needed.
	RunSudo(ctx context.Context, name string, args ...string) error

	// Output runs a command and returns its stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)

	// LookPath reports whether a binary is on PATH.
	LookPath(name string) bool
}

// Executor handles command execution with optional sudo elevation.
type Executor struct {
	dryRun  bool
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
}

// New creates a new Executor with the given options.
func New(dryRun, verbose bool) *Executor {
	return &Executor{
		dryRun:  dryRun,
		verbose: verbose,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// DryRun reports whether commands are only logged.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// LookPath reports whether a binary is on PATH.
func (e *Executor) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes a command without sudo.
func (e *Executor) Run(ctx context.Context, name string, args ...string) error {
	if e.dryRun {
		e.logDryRun(name, args, false)
		return nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	e.logExec(name, args, "")
	return cmd.Run()
}

// RunSudo executes a command with sudo if not already root.
func (e *Executor) RunSudo(ctx context.Context, name string, args ...string) error {
	if e.dryRun {
		e.logDryRun(name, args, true)
		return nil
	}

	cmd, err := e.sudoCommand(ctx, name, args)
	if err != nil {
		return err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	return cmd.Run()
}

// Output runs a command and returns its stdout.
// Queries are read-only, so they run even in dry-run mode.
func (e *Executor) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logExec(name, args, "")

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return stdout.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

func (e *Executor) sudoCommand(ctx context.Context, name string, args []string) (*exec.Cmd, error) {
	if isRoot() {
		e.logExec(name, args, "root")
		return exec.CommandContext(ctx, name, args...), nil
	}
	if hasSudo() {
		e.logExec(name, args, "sudo")
		sudoArgs := append([]string{name}, args...)
		return exec.CommandContext(ctx, "sudo", sudoArgs...), nil
	}
	return nil, ErrNoPrivileges
}

func (e *Executor) logExec(name string, args []string, elevation string) {
	logger := logging.GetLogger("executor")
	event := logger.Debug()
	if e.verbose {
		event = logger.Info()
	}
	if elevation != "" {
		event = event.Str("elevation", elevation)
	}
	event.Str("command", name).Strs("args", args).Msg("Executing command")
}

func (e *Executor) logDryRun(name string, args []string, sudo bool) {
	logger := logging.GetLogger("executor")
	logger.Info().
		Bool("sudo", sudo && !isRoot()).
		Str("command", name+" "+strings.Join(args, " ")).
		Msg("[dry-run] would execute")
}
