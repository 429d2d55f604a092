// Package jsonnetbundler wraps the jsonnet-bundler (jb) binary used to
// resolve vendored Jsonnet libraries referenced by components and packages
// (spec §4.6: "component/package jsonnetfile.json dependencies are
// resolved with the project's standard Jsonnet Bundler before rendering").
//
// Grounded on the same subprocess-oracle idiom as internal/cue.Binary: a
// thin struct wrapping exec.CommandContext with typed error classification.
package jsonnetbundler

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// Bundler wraps the jb binary.
type Bundler struct {
	Path string
}

// NewBundler returns a Bundler invoking "jb" from $PATH.
func NewBundler() *Bundler {
	return &Bundler{Path: "jb"}
}

// Install runs "jb install" in dir, vendoring the dependencies declared in
// dir/jsonnetfile.json into dir/vendor.
func (b *Bundler) Install(ctx context.Context, dir string) error {
	return b.run(ctx, dir, "install")
}

// Update runs "jb update" in dir, refreshing vendored dependencies to the
// versions currently pinned in jsonnetfile.lock.json.
func (b *Bundler) Update(ctx context.Context, dir string) error {
	return b.run(ctx, dir, "update")
}

func (b *Bundler) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, b.Path, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return commodoreerrors.Wrap(commodoreerrors.ErrRender, "jsonnet-bundler: "+stderr.String(), err)
		}
		return commodoreerrors.Wrap(commodoreerrors.ErrRender, "running jsonnet-bundler", err)
	}
	return nil
}
