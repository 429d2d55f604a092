// Package cmd provides CLI command implementations.
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "commodore", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "catalog")
	assert.Contains(t, names, "component")
	assert.Contains(t, names, "package")
	assert.Contains(t, names, "tool")
	assert.Contains(t, names, "login")
	assert.Contains(t, names, "config")
	assert.Contains(t, names, "version")
}

func TestNewRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"api-url", "api-token", "config", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
}

func TestInitializeGlobals_DefaultsWithoutConfigFile(t *testing.T) {
	t.Setenv("COMMODORE_CONFIG", "/nonexistent/path/config.yaml")
	configFlag = ""
	apiURLFlag = ""
	apiTokenFlag = ""
	verboseFlag = false

	cmd := NewRootCmd()
	err := initializeGlobals(cmd)
	assert.NoError(t, err)
	assert.NotNil(t, GetConfig())
}

func TestGetAPIToken_PrefersFlagOverConfig(t *testing.T) {
	apiTokenFlag = "flag-token"
	loadedConfig = nil
	assert.Equal(t, "flag-token", GetAPIToken())
	apiTokenFlag = ""
}
