// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrPackageNotFound indicates no package or substitute matches a name
	ErrPackageNotFound = errors.New("package not found")

	// ErrNotInstalled indicates the package has no install metadata
	ErrNotInstalled = errors.New("package not installed")

	// ErrMissingField indicates a required index or metadata field is absent
	ErrMissingField = errors.New("missing required field")

	// ErrUnsatisfied indicates a depends entry matches no package
	ErrUnsatisfied = errors.New("unsatisfied dependency")

	// ErrMalformedMaintainer indicates a maintainer list that does not parse
	ErrMalformedMaintainer = errors.New("malformed maintainer")

	// ErrObsolete indicates the package has unsatisfiable requirements
	ErrObsolete = errors.New("package is obsolete")

	// ErrUserInterrupted indicates the user declined the confirmation prompt
	ErrUserInterrupted = errors.New("operation cancelled by user")
)

// Error wraps an error with additional context
type Error struct {
	Op       string // Operation that failed
	Package  string // Package name if applicable
	Relation string // Relation kind if applicable
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	switch {
	case e.Package != "" && e.Relation != "":
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Package, e.Relation, e.Err)
	case e.Package != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
