// Package cmd provides CLI command implementations.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/projectsyn/commodore/internal/config"
	oerrors "github.com/projectsyn/commodore/internal/errors"
	"github.com/projectsyn/commodore/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vet",
		Short: "Validate configuration",
		Long: `Validate the Commodore CLI configuration file.

Checks performed:
  1. Config file exists at the resolved path
  2. Config file parses as YAML into the Config shape
  3. Field values satisfy their constraints (apiUrl set, parallelism/
     requestTimeout non-negative, migration is a known profile)

The config path is resolved using precedence:
  --config flag > COMMODORE_CONFIG env > ~/.commodore/config.yaml

Examples:
  # Validate default configuration
  commodore config vet

  # Validate custom config path
  commodore config vet --config /path/to/config.yaml`,
		RunE: runConfigVet,
	}

	return cmd
}

func runConfigVet(cmd *cobra.Command, args []string) error {
	pathResult, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{
		FlagValue: GetConfigPath(),
	})
	if err != nil {
		return oerrors.Wrap(oerrors.ErrNotFound, "could not resolve config path")
	}

	configPath := pathResult.Value

	output.Debug("validating config",
		"path", configPath,
		"source", pathResult.Source,
	)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &oerrors.DetailError{
			Type:     "not found",
			Message:  "configuration file not found",
			Location: configPath,
			Hint:     "Run 'commodore config init' to create default configuration",
			Cause:    oerrors.ErrNotFound,
		}
	}

	validator := config.NewValidator()
	if err := validator.ValidateFile(configPath); err != nil {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  err.Error(),
			Location: configPath,
			Hint:     "Fix the reported fields or re-run 'commodore config init --force'",
			Cause:    oerrors.ErrValidation,
		}
	}

	output.Println("Configuration is valid: " + configPath)
	return nil
}
