package cmdutil

import (
	"errors"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/output"
)

// PrintCompileError prints a compile-time error in a user-friendly format.
// When the error carries commodoreerrors location context (instance,
// component, file), that context is surfaced alongside the message.
func PrintCompileError(msg string, err error) {
	var compileErr *commodoreerrors.CompileError
	if errors.As(err, &compileErr) {
		kv := []interface{}{"error", compileErr.Error()}
		if compileErr.Instance != "" {
			kv = append(kv, "instance", compileErr.Instance)
		}
		if compileErr.Component != "" {
			kv = append(kv, "component", compileErr.Component)
		}
		if compileErr.File != "" {
			kv = append(kv, "file", compileErr.File)
		}
		output.Error(msg, kv...)
		return
	}
	output.Error(msg, "error", err)
}

// PrintCatalogDiff prints the computed catalog diff, or a short message
// when nothing changed.
func PrintCatalogDiff(diffText string, changed bool) {
	if !changed {
		output.Info("no changes")
		return
	}
	output.Print(diffText)
}
