// Package config provides configuration loading and management for the
// Commodore CLI.
package config

import (
	"runtime"
	"time"
)

// Config represents the Commodore CLI configuration (spec §4.10): API
// credentials for the Lieutenant collaborator, git commit identity,
// concurrency, and default migration/behavior flags.
//
// Loaded from ~/.commodore/config.yaml via viper with precedence
// flag > env (COMMODORE_*) > file > default, mirroring the teacher's
// layered-loader shape in loader.go.
type Config struct {
	// APIURL is the base URL of the Lieutenant cluster-metadata API.
	// Env: COMMODORE_API_URL
	APIURL string `mapstructure:"apiUrl"`

	// APIToken authenticates requests to the Lieutenant API.
	// Env: COMMODORE_API_TOKEN
	APIToken string `mapstructure:"apiToken"`

	// GitAuthorName and GitAuthorEmail are loaded and defaulted here but are
	// not passed to git; catalog commits use git's own configured identity.
	// Env: COMMODORE_GIT_AUTHOR_NAME / COMMODORE_GIT_AUTHOR_EMAIL
	GitAuthorName  string `mapstructure:"gitAuthorName"`
	GitAuthorEmail string `mapstructure:"gitAuthorEmail"`

	// Parallelism bounds concurrent jsonnet-bundler installs and
	// post-processing instance pipelines (C7); Git fetches run one at a
	// time. Default: runtime.NumCPU().
	// Env: COMMODORE_PARALLELISM
	Parallelism int `mapstructure:"parallelism"`

	// RequestTimeout bounds every Lieutenant HTTP call (spec §5).
	// Env: COMMODORE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`

	// WorkDir is the compile working directory root (spec §6.1 layout).
	// Env: COMMODORE_WORKDIR
	WorkDir string `mapstructure:"workdir"`

	// Migration is the default migration-aware diff-filtering profile
	// applied by `catalog compile` unless overridden by a flag.
	// Env: COMMODORE_MIGRATION
	Migration string `mapstructure:"migration"`

	// Force causes dirty dependency worktrees to be discarded rather than
	// aborting the compile (spec §4.1).
	// Env: COMMODORE_FORCE
	Force bool `mapstructure:"force"`

	// Local skips commit/push to the catalog repository entirely (spec
	// §4.9).
	// Env: COMMODORE_LOCAL
	Local bool `mapstructure:"local"`
}

// DefaultConfig returns a Config with all default values populated, used
// to fill in settings that were left unset (`commodore config init` writes
// DefaultConfigTemplate instead).
func DefaultConfig() *Config {
	return &Config{
		Parallelism:    runtime.NumCPU(),
		RequestTimeout: 5 * time.Second,
		GitAuthorName:  "Commodore",
		GitAuthorEmail: "commodore@localhost",
	}
}

// DefaultConfigTemplate is written by `commodore config init` to scaffold
// ~/.commodore/config.yaml, grounded on the teacher's DefaultConfigTemplate
// constant (internal/config), generalized from a CUE module template to a
// commented YAML file matching this Config's mapstructure keys.
const DefaultConfigTemplate = `# Commodore CLI configuration.
# Every value here can be overridden by a COMMODORE_* environment variable
# or the matching command-line flag.

apiUrl: ""
apiToken: ""

gitAuthorName: "Commodore"
gitAuthorEmail: "commodore@localhost"

parallelism: 0 # 0 = use CPU count
requestTimeout: 5s

workdir: ""
migration: ""
force: false
local: false
`

// WithDefaults returns a copy of cfg with zero-valued fields filled in
// from DefaultConfig.
func (c *Config) WithDefaults() *Config {
	d := DefaultConfig()
	merged := *c

	if merged.Parallelism <= 0 {
		merged.Parallelism = d.Parallelism
	}
	if merged.RequestTimeout <= 0 {
		merged.RequestTimeout = d.RequestTimeout
	}
	if merged.GitAuthorName == "" {
		merged.GitAuthorName = d.GitAuthorName
	}
	if merged.GitAuthorEmail == "" {
		merged.GitAuthorEmail = d.GitAuthorEmail
	}

	return &merged
}
