// Package errdefs defines the error kinds surfaced by the data layer.
// Callers match kinds with errors.Is; the concrete cause stays on the
// chain and can be unwrapped as usual.
package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection indicates the log store could not be reached,
	// rejected the credentials, or runs an incompatible version.
	ErrConnection = errors.New("log store connection failed")
	// ErrNotFound indicates a referenced local resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrFormat indicates a local resource exists but has the wrong shape.
	ErrFormat = errors.New("malformed resource")
	// ErrQuery indicates the remote store rejected or failed a query,
	// or the index name is unknown.
	ErrQuery = errors.New("query failed")
	// ErrTimeRange indicates an inverted time range (start after end).
	ErrTimeRange = errors.New("invalid time range")
)

// Wrap attaches a kind to a failure. Both the kind and the cause remain
// matchable with errors.Is.
func Wrap(kind error, cause error, msg string) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", msg, kind)
	}
	return fmt.Errorf("%s: %w: %w", msg, kind, cause)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind error, cause error, format string, args ...interface{}) error {
	return Wrap(kind, cause, fmt.Sprintf(format, args...))
}
