// Package cmd provides CLI command implementations.
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComponentCmd(t *testing.T) {
	cmd := NewComponentCmd()
	assert.Equal(t, "component", cmd.Use)

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"new", "update", "sync"}, names)
}

func TestNewPackageCmd(t *testing.T) {
	cmd := NewPackageCmd()
	assert.Equal(t, "package", cmd.Use)

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"new", "update", "sync"}, names)
}

func TestNewToolCmd(t *testing.T) {
	cmd := NewToolCmd()
	assert.Equal(t, "tool", cmd.Use)

	require.Len(t, cmd.Commands(), 1)
	assert.Equal(t, "install", cmd.Commands()[0].Name())
}

func TestNewLoginCmd(t *testing.T) {
	cmd := NewLoginCmd()
	assert.Equal(t, "login", cmd.Use)
}

func TestStubCommand_RunsWithoutError(t *testing.T) {
	cmd := NewLoginCmd()
	err := cmd.RunE(cmd, nil)
	require.NoError(t, err)
}

func TestStubCommand_ComponentSubcommandsRun(t *testing.T) {
	cmd := NewComponentCmd()
	for _, sub := range cmd.Commands() {
		err := sub.RunE(sub, nil)
		require.NoError(t, err)
	}
}
