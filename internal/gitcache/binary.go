package gitcache

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// binary wraps invocations of the external `git` executable, following the
// same subprocess-oracle idiom as the teacher's internal/cue.Binary: a thin
// wrapper around exec.CommandContext with captured output and typed error
// wrapping distinguishing exit-code failures from exec-layer failures.
type binary struct {
	Path string
}

func newBinary() *binary {
	return &binary{Path: "git"}
}

func (b *binary) path() string {
	if b.Path != "" {
		return b.Path
	}
	return "git"
}

// run executes git in dir, returning combined stdout+stderr on failure for
// diagnostics and the sentinel-wrapped error expected by spec §7.
func (b *binary) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, b.path(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		sentinel := commodoreerrors.ErrGit
		if exitErr, ok := err.(*exec.ExitError); ok {
			return out.String(), commodoreerrors.Wrap(sentinel,
				fmt.Sprintf("git %s failed with exit code %d: %s",
					strings.Join(args, " "), exitErr.ExitCode(), strings.TrimSpace(out.String())),
				err)
		}
		return out.String(), commodoreerrors.Wrap(commodoreerrors.ErrUnreachableRemote,
			fmt.Sprintf("git %s", strings.Join(args, " ")), err)
	}

	return out.String(), nil
}
