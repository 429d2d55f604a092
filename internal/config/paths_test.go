package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPathTilde(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "no tilde", input: "/absolute/path", expected: "/absolute/path"},
		{name: "relative path without tilde", input: "relative/path", expected: "relative/path"},
		{name: "tilde only", input: "~", expected: homeDir},
		{name: "tilde with slash", input: "~/.commodore/config.yaml", expected: filepath.Join(homeDir, ".commodore", "config.yaml")},
		{name: "tilde username pattern (not expanded)", input: "~username/file", expected: "~username/file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExpandPath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDefaultPathsLayout(t *testing.T) {
	paths, err := DefaultPaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(paths.HomeDir, "config.yaml"), paths.ConfigFile)
	assert.Equal(t, filepath.Join(paths.HomeDir, "cache"), paths.CacheDir)
	assert.Contains(t, paths.HomeDir, ".commodore")
}
