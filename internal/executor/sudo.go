package executor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrNoPrivileges is returned when a change needs root and neither root nor sudo is available.
var ErrNoPrivileges = errors.New("root privileges required, but not running as root and sudo is not installed")

// IsRoot reports whether the process runs as root.
func IsRoot() bool {
	return isRoot()
}

// HasSudo reports whether sudo is on PATH.
func HasSudo() bool {
	return hasSudo()
}

// CanElevate reports whether commands can be run as root.
func CanElevate() bool {
	return isRoot() || hasSudo()
}

// CheckPrivileges fails with ErrNoPrivileges when needsRoot is set and
// the process cannot elevate.
func CheckPrivileges(needsRoot bool) error {
	if needsRoot && !CanElevate() {
		return ErrNoPrivileges
	}
	return nil
}

// RequireRoot fails unless the process itself runs as root. Files such as
// /etc/fstab are written directly, so sudo does not help.
func RequireRoot(action string) error {
	if isRoot() {
		return nil
	}
	return fmt.Errorf("%s: %w", action, ErrNoPrivileges)
}

func isRoot() bool {
	return os.Geteuid() == 0
}

func hasSudo() bool {
	_, err := exec.LookPath("sudo")
	return err == nil
}
