// Package commodoreerrors defines the compile-time error kinds a Commodore
// run can fail with (spec §7), plus the deprecation-warning collection used
// by the top-level compile driver.
//
// This package is kept separate from the adapted internal/errors package,
// which continues to carry the CLI's exit-code/ExitError layer.
package commodoreerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors identify the error Kind via errors.Is, mirroring the
// teacher's internal/errors sentinel set (ErrValidation, ErrConnectivity, ...).
var (
	ErrConfig             = errors.New("config error")
	ErrGit                = errors.New("git error")
	ErrDirtyWorktree      = errors.New("dirty worktree")
	ErrRender             = errors.New("render error")
	ErrEngine             = errors.New("engine error")
	ErrFilter             = errors.New("filter error")
	ErrCatalogPush        = errors.New("catalog push error")
	ErrUnknownDependency  = errors.New("unknown dependency")
	ErrAmbiguousVersion   = errors.New("ambiguous version override")
	ErrDuplicateInstance  = errors.New("duplicate instance")
	ErrInstancingNotSup   = errors.New("instancing not supported")
	ErrLibraryPrefix      = errors.New("library prefix conflict")
	ErrUnresolvedRevision = errors.New("unresolved revision")
	ErrUnreachableRemote  = errors.New("unreachable remote")
	ErrPermissionDenied   = errors.New("permission denied")
)

// CompileError carries the location context spec §7 requires every
// component error to report: which instance/component/file was involved.
// Grounded on the teacher's DetailError (internal/errors/errors.go).
type CompileError struct {
	Sentinel  error
	Message   string
	Instance  string
	Component string
	File      string
	Cause     error
}

func (e *CompileError) Error() string {
	msg := e.Message
	if msg == "" && e.Sentinel != nil {
		msg = e.Sentinel.Error()
	}

	loc := ""
	switch {
	case e.Component != "" && e.Instance != "" && e.Instance != e.Component:
		loc = fmt.Sprintf(" [instance=%s component=%s]", e.Instance, e.Component)
	case e.Instance != "":
		loc = fmt.Sprintf(" [instance=%s]", e.Instance)
	case e.Component != "":
		loc = fmt.Sprintf(" [component=%s]", e.Component)
	}
	if e.File != "" {
		loc += fmt.Sprintf(" (%s)", e.File)
	}

	out := msg + loc
	if e.Cause != nil {
		out += ": " + e.Cause.Error()
	}
	return out
}

func (e *CompileError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Sentinel
}

func (e *CompileError) Is(target error) bool {
	return e.Sentinel != nil && errors.Is(e.Sentinel, target)
}

// New builds a CompileError for the given sentinel Kind.
func New(sentinel error, message string) *CompileError {
	return &CompileError{Sentinel: sentinel, Message: message}
}

// Wrap builds a CompileError that carries an underlying cause.
func Wrap(sentinel error, message string, cause error) *CompileError {
	return &CompileError{Sentinel: sentinel, Message: message, Cause: cause}
}

// WithLocation returns a copy of e annotated with instance/component/file
// context, allowing call sites to enrich an error as it propagates upward.
func (e *CompileError) WithLocation(instance, component, file string) *CompileError {
	cp := *e
	if instance != "" {
		cp.Instance = instance
	}
	if component != "" {
		cp.Component = component
	}
	if file != "" {
		cp.File = file
	}
	return &cp
}
