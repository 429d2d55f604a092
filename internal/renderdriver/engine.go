// Package renderdriver invokes the external Kapitan-compatible templating
// engine (spec §4.6, C6; external interface §6.4), following the same
// subprocess-oracle idiom as the teacher's internal/cue.Binary: a thin
// wrapper with captured stdout/stderr and typed error wrapping.
package renderdriver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/target"
)

// Engine wraps calls to the external templating engine binary.
type Engine struct {
	// Path is the engine executable. If empty, "kapitan" is used from PATH.
	Path string

	// Stdout/Stderr receive the engine's output. If nil, os.Stdout/os.Stderr
	// are used.
	Stdout io.Writer
	Stderr io.Writer
}

// NewEngine creates an Engine using "kapitan" from PATH.
func NewEngine() *Engine {
	return &Engine{Path: "kapitan", Stdout: os.Stdout, Stderr: os.Stderr}
}

func (e *Engine) path() string {
	if e.Path != "" {
		return e.Path
	}
	return "kapitan"
}

// RenderOptions controls a single engine invocation.
type RenderOptions struct {
	// WorkDir is the compile working directory (spec §6.1 layout root).
	WorkDir string
	// InventoryDir is "inventory/classes" relative to WorkDir.
	InventoryDir string
	// TargetsDir is where per-target manifests are written before invoking
	// the engine, relative to WorkDir.
	TargetsDir string
	// CompiledDir is the engine's output root, relative to WorkDir.
	CompiledDir string
	// LibPaths are additional Jsonnet library search paths (e.g.
	// dependencies/lib and each package's class dir).
	LibPaths []string
}

// Render writes one target manifest per Target, then invokes the engine
// once over the whole targets directory (spec §4.6: "Invokes the external
// templating engine once, passing a target manifest containing all
// targets.").
func (e *Engine) Render(ctx context.Context, targets []*target.Target, opts RenderOptions) error {
	targetsDir := filepath.Join(opts.WorkDir, opts.TargetsDir)
	if err := writeTargetManifests(targetsDir, targets); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrEngine, "writing target manifests", err)
	}

	args := []string{
		"compile",
		"--inventory-path", opts.InventoryDir,
		"--targets-path", opts.TargetsDir,
		"--output-path", opts.CompiledDir,
		"--fetch",
	}
	for _, p := range opts.LibPaths {
		args = append(args, "--jsonnet-parser-lib-path", p)
	}

	cmd := exec.CommandContext(ctx, e.path(), args...)
	cmd.Dir = opts.WorkDir

	var stderr bytes.Buffer
	cmd.Stdout = e.stdout()
	cmd.Stderr = io.MultiWriter(e.stderr(), &stderr)

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return commodoreerrors.Wrap(commodoreerrors.ErrEngine,
				fmt.Sprintf("templating engine exited with code %d", exitErr.ExitCode()),
				fmt.Errorf("%s", strings.TrimSpace(stderr.String())))
		}
		return commodoreerrors.Wrap(commodoreerrors.ErrEngine, "invoking templating engine", err)
	}

	return nil
}

// RunFilter invokes the engine's jsonnet filter mode over the files under
// targetDir for one post-processing filter (spec §4.7): the engine
// evaluates filterPath with the Kapitan-compatible component/target
// ext-vars plus filterArgs converted to jsonnet ext-strs, then rewrites
// targetDir in place. Satisfies postprocess.JsonnetRunner.
func (e *Engine) RunFilter(ctx context.Context, instanceName, filterPath, targetDir string, filterArgs map[string]string) error {
	invokeArgs := []string{
		"filter",
		"--target", instanceName,
		"--filter-path", filterPath,
		"--target-path", targetDir,
		"--ext-str", fmt.Sprintf("component=%s", instanceName),
		"--ext-str", fmt.Sprintf("target=%s", instanceName),
	}
	for k, v := range filterArgs {
		invokeArgs = append(invokeArgs, "--ext-str", fmt.Sprintf("%s=%s", k, v))
	}

	cmd := exec.CommandContext(ctx, e.path(), invokeArgs...)

	var stderr bytes.Buffer
	cmd.Stdout = e.stdout()
	cmd.Stderr = io.MultiWriter(e.stderr(), &stderr)

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return commodoreerrors.Wrap(commodoreerrors.ErrFilter,
				fmt.Sprintf("jsonnet filter %s exited with code %d", filterPath, exitErr.ExitCode()),
				fmt.Errorf("%s", strings.TrimSpace(stderr.String())))
		}
		return commodoreerrors.Wrap(commodoreerrors.ErrFilter, fmt.Sprintf("invoking jsonnet filter %s", filterPath), err)
	}

	return nil
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}
