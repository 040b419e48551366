// Package native implements the distribution package manager backends.
package native

import (
	"context"
	"strings"

	"migrator/internal/executor"
	"migrator/internal/logging"
	"migrator/pkg/manager"
)

// BaseManager provides common functionality for all native package managers.
type BaseManager struct {
	name        string
	displayName string
	binary      string
	managerType manager.ManagerType
	runner      executor.Runner
}

// NewBaseManager creates a new BaseManager with the given parameters.
func NewBaseManager(name, displayName, binary string, runner executor.Runner) *BaseManager {
	return &BaseManager{
		name:        name,
		displayName: displayName,
		binary:      binary,
		managerType: manager.TypeNative,
		runner:      runner,
	}
}

// Name returns the short identifier for this manager.
func (b *BaseManager) Name() string {
	return b.name
}

// DisplayName returns the human-readable name.
func (b *BaseManager) DisplayName() string {
	return b.displayName
}

// Type returns the manager type.
func (b *BaseManager) Type() manager.ManagerType {
	return b.managerType
}

// IsAvailable returns true if this package manager is installed.
func (b *BaseManager) IsAvailable() bool {
	return b.runner.LookPath(b.binary)
}

// Binary returns the primary binary name for this manager.
func (b *BaseManager) Binary() string {
	return b.binary
}

// Runner returns the command runner.
func (b *BaseManager) Runner() executor.Runner {
	return b.runner
}

// SetRunner replaces the command runner.
func (b *BaseManager) SetRunner(runner executor.Runner) {
	b.runner = runner
}

// runSudo runs an elevated command unless opts asks for a dry run.
func (b *BaseManager) runSudo(ctx context.Context, opts manager.InstallOpts, name string, args ...string) error {
	if opts.DryRun {
		logger := logging.GetLogger(b.name)
		logger.Info().
			Str("command", name+" "+strings.Join(args, " ")).
			Msg("[dry-run] would execute")
		return nil
	}
	return b.runner.RunSudo(ctx, name, args...)
}

// lineSet splits command output into a set of non-empty trimmed lines.
func lineSet(output string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = true
		}
	}
	return set
}

// fieldValue returns the value of a "Key : value" line in info-style output.
func fieldValue(output, key string) string {
	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) == key {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
