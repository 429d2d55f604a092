package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for Commodore configuration.
const envPrefix = "COMMODORE"

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	// Set up environment variable bindings
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	_ = v.BindEnv("apiUrl", "COMMODORE_API_URL")
	_ = v.BindEnv("apiToken", "COMMODORE_API_TOKEN")
	_ = v.BindEnv("gitAuthorName", "COMMODORE_GIT_AUTHOR_NAME")
	_ = v.BindEnv("gitAuthorEmail", "COMMODORE_GIT_AUTHOR_EMAIL")
	_ = v.BindEnv("parallelism", "COMMODORE_PARALLELISM")
	_ = v.BindEnv("requestTimeout", "COMMODORE_REQUEST_TIMEOUT")
	_ = v.BindEnv("workdir", "COMMODORE_WORKDIR")
	_ = v.BindEnv("migration", "COMMODORE_MIGRATION")
	_ = v.BindEnv("force", "COMMODORE_FORCE")
	_ = v.BindEnv("local", "COMMODORE_LOCAL")

	return &Loader{v: v}
}

// Load loads configuration from the given file path.
// If configFile is empty, it uses the default config file path.
// Environment variables take precedence over file values.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	// Expand ~ in path
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	// Set up viper for the config file
	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	// Try to read config file (not an error if it doesn't exist)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only return error if it's not a "file not found" error
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
		// Config file not found is OK, we'll use defaults + env vars
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration and applies defaults.
func (l *Loader) LoadWithDefaults(configFile string) (*Config, error) {
	cfg, err := l.Load(configFile)
	if err != nil {
		return nil, err
	}

	return cfg.WithDefaults(), nil
}

// LoadFromEnvOnly loads configuration from environment variables only.
func (l *Loader) LoadFromEnvOnly() (*Config, error) {
	cfg := &Config{
		APIURL:         os.Getenv("COMMODORE_API_URL"),
		APIToken:       os.Getenv("COMMODORE_API_TOKEN"),
		GitAuthorName:  os.Getenv("COMMODORE_GIT_AUTHOR_NAME"),
		GitAuthorEmail: os.Getenv("COMMODORE_GIT_AUTHOR_EMAIL"),
		WorkDir:        os.Getenv("COMMODORE_WORKDIR"),
		Migration:      os.Getenv("COMMODORE_MIGRATION"),
	}

	return cfg.WithDefaults(), nil
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return false, err
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
