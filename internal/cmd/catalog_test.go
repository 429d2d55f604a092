// Package cmd provides CLI command implementations.
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectsyn/commodore/internal/cmdutil"
	"github.com/projectsyn/commodore/internal/config"
)

func assertExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewCatalogCmd(t *testing.T) {
	cmd := NewCatalogCmd()

	assert.Equal(t, "catalog", cmd.Use)

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "compile")
	assert.Contains(t, names, "clean")
	assert.Contains(t, names, "delete")
}

func TestWorkDirFor_DefaultsToCwd(t *testing.T) {
	loadedConfig = nil
	got := workDirFor("c-green-fox-1234")
	assert.Equal(t, filepath.Join(".", "c-green-fox-1234"), got)
}

func TestWorkDirFor_UsesConfiguredBase(t *testing.T) {
	orig := loadedConfig
	defer func() { loadedConfig = orig }()

	loadedConfig = &config.Config{WorkDir: "/tmp/commodore-workdirs"}
	got := workDirFor("c-green-fox-1234")
	assert.Equal(t, filepath.Join("/tmp/commodore-workdirs", "c-green-fox-1234"), got)
}

func TestRunCatalogCompile_RequiresClusterID(t *testing.T) {
	var flags cmdutil.CompileFlags
	cluster := &cmdutil.ClusterSelectorFlags{}

	cmd := newCatalogCompileCmd()
	err := runCatalogCompile(cmd, &flags, cluster)
	require.Error(t, err)

	var exitErr *cmdutil.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cmdutil.ExitValidationError, exitErr.Code)
}

func TestRunCatalogCompile_RejectsOverridesWithPush(t *testing.T) {
	flags := cmdutil.CompileFlags{
		Push:                       true,
		GlobalRepoRevisionOverride: "my-branch",
	}
	cluster := &cmdutil.ClusterSelectorFlags{ClusterID: "c-green-fox-1234"}

	cmd := newCatalogCompileCmd()
	err := runCatalogCompile(cmd, &flags, cluster)
	require.Error(t, err)

	var exitErr *cmdutil.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cmdutil.ExitValidationError, exitErr.Code)
}

func TestRunCatalogClean_RequiresClusterID(t *testing.T) {
	cluster := &cmdutil.ClusterSelectorFlags{}
	err := runCatalogClean(cluster, false)
	require.Error(t, err)

	var exitErr *cmdutil.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cmdutil.ExitValidationError, exitErr.Code)
}

func TestRunCatalogClean_RemovesDependenciesAndCompiled(t *testing.T) {
	orig := loadedConfig
	defer func() { loadedConfig = orig }()

	dir := t.TempDir()
	loadedConfig = &config.Config{WorkDir: dir}

	cluster := &cmdutil.ClusterSelectorFlags{ClusterID: "c-green-fox-1234"}
	workDir := workDirFor(cluster.ClusterID)
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "dependencies"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "compiled"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "catalog"), 0o755))

	err := runCatalogClean(cluster, false)
	require.NoError(t, err)

	assertNotExists(t, filepath.Join(workDir, "dependencies"))
	assertNotExists(t, filepath.Join(workDir, "compiled"))
	assertExists(t, filepath.Join(workDir, "catalog"))
}

func TestRunCatalogClean_ForceAlsoRemovesCatalog(t *testing.T) {
	orig := loadedConfig
	defer func() { loadedConfig = orig }()

	dir := t.TempDir()
	loadedConfig = &config.Config{WorkDir: dir}

	cluster := &cmdutil.ClusterSelectorFlags{ClusterID: "c-green-fox-1234"}
	workDir := workDirFor(cluster.ClusterID)
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "catalog"), 0o755))

	err := runCatalogClean(cluster, true)
	require.NoError(t, err)

	assertNotExists(t, filepath.Join(workDir, "catalog"))
}

func TestRunCatalogDelete_RemovesWorkDir(t *testing.T) {
	orig := loadedConfig
	defer func() { loadedConfig = orig }()

	dir := t.TempDir()
	loadedConfig = &config.Config{WorkDir: dir}

	cluster := &cmdutil.ClusterSelectorFlags{ClusterID: "c-green-fox-1234"}
	workDir := workDirFor(cluster.ClusterID)
	require.NoError(t, os.MkdirAll(workDir, 0o755))

	err := runCatalogDelete(cluster)
	require.NoError(t, err)

	assertNotExists(t, workDir)
}
