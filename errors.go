// errors.go
package nouzen

import (
	"errors"

	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/download"
)

var (
	// ErrPackageNotFound indicates no package or substitute matches a name
	ErrPackageNotFound = core.ErrPackageNotFound

	// ErrNotInstalled indicates the package has no install metadata
	ErrNotInstalled = core.ErrNotInstalled

	// ErrObsolete indicates the package has unsatisfiable requirements
	ErrObsolete = core.ErrObsolete

	// ErrUserInterrupted indicates the user declined the confirmation prompt
	ErrUserInterrupted = core.ErrUserInterrupted

	// ErrNotLoaded indicates an operation ran before Load
	ErrNotLoaded = errors.New("package lists not loaded")
)

// Error wraps an error with additional context
type Error = core.Error

// BatchError reports the download that stopped an install.
type BatchError = download.BatchError
