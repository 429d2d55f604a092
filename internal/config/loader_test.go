package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotNil(t, loader)
	assert.NotNil(t, loader.v)
}

func TestLoaderLoad(t *testing.T) {
	t.Run("loads config from file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		content := `
apiUrl: https://lieutenant.example.com
apiToken: s3cr3t
gitAuthorName: CI Bot
gitAuthorEmail: ci@example.com
parallelism: 4
`
		require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))

		loader := NewLoader()
		cfg, err := loader.Load(configFile)

		require.NoError(t, err)
		assert.Equal(t, "https://lieutenant.example.com", cfg.APIURL)
		assert.Equal(t, "s3cr3t", cfg.APIToken)
		assert.Equal(t, "CI Bot", cfg.GitAuthorName)
		assert.Equal(t, 4, cfg.Parallelism)
	})

	t.Run("returns empty config for missing file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "nonexistent.yaml")

		loader := NewLoader()
		cfg, err := loader.Load(configFile)

		require.NoError(t, err)
		assert.Empty(t, cfg.APIURL)
	})

	t.Run("loads from environment variables", func(t *testing.T) {
		t.Setenv("COMMODORE_API_URL", "https://env.example.com")
		t.Setenv("COMMODORE_GIT_AUTHOR_NAME", "Env Bot")

		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "empty.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte(""), 0o644))

		loader := NewLoader()
		cfg, err := loader.Load(configFile)

		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.APIURL)
		assert.Equal(t, "Env Bot", cfg.GitAuthorName)
	})

	t.Run("env vars override file values", func(t *testing.T) {
		t.Setenv("COMMODORE_API_URL", "https://env.example.com")

		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		content := `apiUrl: https://file.example.com`
		require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))

		loader := NewLoader()
		cfg, err := loader.Load(configFile)

		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.APIURL)
	})
}

func TestLoaderLoadWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "empty.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(""), 0o644))

	loader := NewLoader()
	cfg, err := loader.LoadWithDefaults(configFile)

	require.NoError(t, err)
	assert.Greater(t, cfg.Parallelism, 0)
	assert.NotEmpty(t, cfg.GitAuthorName)
}

func TestConfigFileExists(t *testing.T) {
	t.Run("returns true for existing file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte(""), 0o644))

		exists, err := ConfigFileExists(configFile)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("returns false for missing file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "nonexistent.yaml")

		exists, err := ConfigFileExists(configFile)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty path", input: "", expected: ""},
		{name: "absolute path", input: "/absolute/path", expected: "/absolute/path"},
		{name: "relative path", input: "relative/path", expected: "relative/path"},
		{name: "home directory only", input: "~", expected: homeDir},
		{name: "path with tilde", input: "~/some/path", expected: filepath.Join(homeDir, "some/path")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExpandPath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
