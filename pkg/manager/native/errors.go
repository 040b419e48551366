package native

import (
	"errors"
	"regexp"
)

// ErrorKind classifies a failed package manager query.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorPackageNotFound
	ErrorDatabaseLocked
)

// QueryError is a structured error from a package manager command.
type QueryError struct {
	Backend     string
	Kind        ErrorKind
	Packages    []string // Affected packages
	OriginalErr error
	Suggestion  string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return e.OriginalErr.Error()
}

// Unwrap returns the original error.
func (e *QueryError) Unwrap() error {
	return e.OriginalErr
}

// Regular expressions for recognizing package manager failures.
var (
	// apt-cache: "E: No packages found", "N: Unable to locate package foo"
	aptNotFoundPattern = regexp.MustCompile(`(?:No packages found|Unable to locate package\s*(\S*))`)

	// dnf: "Error: No matching Packages to list"
	dnfNotFoundPattern = regexp.MustCompile(`No matching [Pp]ackages`)

	// pacman: "error: package 'foo' was not found", "error: target not found: foo"
	pacmanNotFoundPattern = regexp.MustCompile(`(?:package '([^']+)' was not found|target not found: (\S+))`)

	// apt: "Could not get lock", pacman: "unable to lock database", dnf: "Waiting for process ... to finish"
	lockedPattern = regexp.MustCompile(`(?:Could not get lock|unable to lock database|Waiting for process with pid)`)
)

// ClassifyError inspects a failed command error and returns a QueryError.
// The executor embeds stderr in the error text, which is what gets matched.
func ClassifyError(backend string, err error) *QueryError {
	if err == nil {
		return nil
	}

	qe := &QueryError{
		Backend:     backend,
		Kind:        ErrorUnknown,
		OriginalErr: err,
	}
	msg := err.Error()

	if lockedPattern.MatchString(msg) {
		qe.Kind = ErrorDatabaseLocked
		qe.Suggestion = "Another package manager may be running. Wait for it to finish and retry"
		return qe
	}

	var pattern *regexp.Regexp
	switch backend {
	case "apt":
		pattern = aptNotFoundPattern
	case "dnf":
		pattern = dnfNotFoundPattern
	case "pacman":
		pattern = pacmanNotFoundPattern
	}

	if pattern != nil {
		if matches := pattern.FindAllStringSubmatch(msg, -1); len(matches) > 0 {
			qe.Kind = ErrorPackageNotFound
			for _, m := range matches {
				for _, name := range m[1:] {
					if name != "" {
						qe.Packages = append(qe.Packages, name)
					}
				}
			}
		}
	}

	return qe
}

// IsNotFound reports whether err is a package-not-found QueryError.
func IsNotFound(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == ErrorPackageNotFound
}

// availability turns a query result into the IsPackageAvailable contract:
// not-found is a plain "false", anything else is a failed query.
func availability(backend string, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	qe := ClassifyError(backend, err)
	if qe.Kind == ErrorPackageNotFound {
		return false, nil
	}
	return false, qe
}
