package renderdriver

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/inventory"
	"github.com/projectsyn/commodore/internal/target"
)

func TestNewEngine_DefaultsToKapitanOnPath(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, "kapitan", e.Path)
}

func TestRender_BinaryNotFound(t *testing.T) {
	var stdout, stderr bytes.Buffer
	e := &Engine{Path: "kapitan-does-not-exist", Stdout: &stdout, Stderr: &stderr}

	err := e.Render(context.Background(), nil, RenderOptions{WorkDir: t.TempDir()})
	require.Error(t, err)

	var cerr *commodoreerrors.CompileError
	if assert.ErrorAs(t, err, &cerr) {
		assert.ErrorIs(t, cerr, commodoreerrors.ErrEngine)
	}
}

func TestRender_WritesManifestsBeforeInvokingEngine(t *testing.T) {
	workDir := t.TempDir()
	var stdout, stderr bytes.Buffer
	e := &Engine{Path: "kapitan-does-not-exist", Stdout: &stdout, Stderr: &stderr}

	targets := []*target.Target{{Name: "my-app", Parameters: inventory.MapValue(inventory.NewOrderedMap())}}
	_ = e.Render(context.Background(), targets, RenderOptions{WorkDir: workDir, TargetsDir: "targets"})

	_, err := os.Stat(workDir + "/targets/my-app.yml")
	require.NoError(t, err)
}

func TestRunFilter_BinaryNotFound(t *testing.T) {
	var stdout, stderr bytes.Buffer
	e := &Engine{Path: "kapitan-does-not-exist", Stdout: &stdout, Stderr: &stderr}

	err := e.RunFilter(context.Background(), "my-app", "postprocess/filter.jsonnet", t.TempDir(), nil)
	require.Error(t, err)

	var cerr *commodoreerrors.CompileError
	if assert.ErrorAs(t, err, &cerr) {
		assert.ErrorIs(t, cerr, commodoreerrors.ErrFilter)
	}
}

func TestEngine_Stdout_DefaultsToOsStdout(t *testing.T) {
	e := &Engine{}
	assert.NotNil(t, e.stdout())
}

func TestEngine_Stderr_DefaultsToOsStderr(t *testing.T) {
	e := &Engine{}
	assert.NotNil(t, e.stderr())
}
