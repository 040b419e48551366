package cli

import "errors"

var (
	// ErrNoStoredState is returned when a command needs a previous scan.
	ErrNoStoredState = errors.New("no stored system state; run 'migrator scan' first")

	// ErrNoBackup is returned when no backup file was given or found.
	ErrNoBackup = errors.New("no backup found; pass a backup file or run 'migrator backup create'")

	// ErrNoBackends is returned when no package manager is usable on this host.
	ErrNoBackends = errors.New("no supported package manager is available")

	// ErrInvalidOutputFormat is returned for an unknown --format value.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")
)
