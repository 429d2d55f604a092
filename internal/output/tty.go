package output

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY reports whether stdout is attached to an interactive terminal,
// gating the spinner and confirmation prompt so a non-interactive shell
// (CI, piped output) never waits on input or animation it cannot render.
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
