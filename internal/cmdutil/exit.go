package cmdutil

import (
	"errors"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// Exit codes for the commodore CLI, grounded on the teacher's
// internal/cmd exit-code convention but keyed off commodoreerrors
// sentinels instead of Kubernetes API errors.
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitValidationError  = 2
	ExitConnectivityErr  = 3
	ExitPermissionDenied = 4
	ExitCatalogPushError = 5
	ExitDirtyWorktree    = 6
)

// ExitError wraps an error with the process exit code it should produce.
// Printed marks that the caller already emitted a user-facing message for
// Err, so the top-level runner should not print it again.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit error"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError builds an ExitError for the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError classifies a compile-time error into a process exit
// code by matching it against the commodoreerrors sentinel set. Errors
// that don't match any sentinel default to ExitGeneralError.
func ExitCodeFromError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, commodoreerrors.ErrCatalogPush):
		return ExitCatalogPushError
	case errors.Is(err, commodoreerrors.ErrDirtyWorktree):
		return ExitDirtyWorktree
	case errors.Is(err, commodoreerrors.ErrPermissionDenied):
		return ExitPermissionDenied
	case errors.Is(err, commodoreerrors.ErrUnreachableRemote):
		return ExitConnectivityErr
	case errors.Is(err, commodoreerrors.ErrUnknownDependency),
		errors.Is(err, commodoreerrors.ErrAmbiguousVersion),
		errors.Is(err, commodoreerrors.ErrDuplicateInstance),
		errors.Is(err, commodoreerrors.ErrInstancingNotSup),
		errors.Is(err, commodoreerrors.ErrLibraryPrefix),
		errors.Is(err, commodoreerrors.ErrUnresolvedRevision),
		errors.Is(err, commodoreerrors.ErrConfig):
		return ExitValidationError
	default:
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return ExitGeneralError
	}
}
