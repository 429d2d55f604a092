// Package cmd provides CLI command implementations.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/projectsyn/commodore/internal/config"
	oerrors "github.com/projectsyn/commodore/internal/errors"
	"github.com/projectsyn/commodore/internal/output"
)

var configInitForce bool

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Initialize the Commodore CLI configuration.

Creates ~/.commodore/config.yaml with the Lieutenant API URL/token and
default migration settings left blank for you to fill in; git commit
identity, parallelism and request timeout are given default values.

Examples:
  # Initialize configuration
  commodore config init

  # Overwrite existing configuration
  commodore config init --force`,
		RunE: runConfigInit,
	}

	cmd.Flags().BoolVarP(&configInitForce, "force", "f", false,
		"Overwrite existing configuration")

	return cmd
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return oerrors.Wrap(oerrors.ErrNotFound, "could not determine home directory")
	}

	if _, err := os.Stat(paths.ConfigFile); err == nil && !configInitForce {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: paths.ConfigFile,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		}
	}

	if err := os.MkdirAll(paths.HomeDir, 0o700); err != nil {
		return oerrors.Wrap(oerrors.ErrPermission, "could not create ~/.commodore directory")
	}

	if err := os.WriteFile(paths.ConfigFile, []byte(config.DefaultConfigTemplate), 0o600); err != nil {
		return oerrors.Wrap(oerrors.ErrPermission, "could not write config.yaml")
	}

	output.Println("Configuration initialized at " + paths.HomeDir)
	output.Println("")
	output.Println("Created file:")
	output.Println("  " + paths.ConfigFile)
	output.Println("")
	output.Println("Validate with: commodore config vet")

	return nil
}
