package cmdutil

import (
	"errors"
	"testing"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

func TestPrintCompileErrorWithLocation(t *testing.T) {
	err := commodoreerrors.New(commodoreerrors.ErrRender, "render failed").
		WithLocation("c-test", "nginx", "class/nginx.yml")

	// PrintCompileError writes to the shared logger; this test only
	// guards against a panic when location fields are populated.
	PrintCompileError("compile failed", err)
}

func TestPrintCompileErrorPlainError(t *testing.T) {
	PrintCompileError("compile failed", errors.New("boom"))
}

func TestPrintCatalogDiffNoChange(t *testing.T) {
	PrintCatalogDiff("", false)
}

func TestPrintCatalogDiffWithChange(t *testing.T) {
	PrintCatalogDiff("some diff text", true)
}
