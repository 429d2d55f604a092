// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/projectsyn/commodore/internal/config"
	"github.com/projectsyn/commodore/internal/output"
)

var (
	// Global flags
	apiURLFlag   string
	apiTokenFlag string
	configFlag   string
	verboseFlag  bool

	// Resolved configuration (loaded during PersistentPreRunE)
	loadedConfig *config.Config
	resolvedAPI  config.Resolved[string]
	resolvedPath config.Resolved[string]
)

// NewRootCmd creates the root command for the Commodore CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "commodore",
		Short:         "Commodore catalog compiler",
		Long:          `Commodore compiles a tenant-aware Kubernetes GitOps catalog from inventory classes, components, and packages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Lieutenant API base URL (env: COMMODORE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiTokenFlag, "api-token", "", "Lieutenant API token (env: COMMODORE_API_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: COMMODORE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewCatalogCmd())
	rootCmd.AddCommand(NewComponentCmd())
	rootCmd.AddCommand(NewPackageCmd())
	rootCmd.AddCommand(NewToolCmd())
	rootCmd.AddCommand(NewLoginCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration before any
// subcommand runs, mirroring the teacher's initializeGlobals shape.
func initializeGlobals(cmd *cobra.Command) error {
	pathResolved, err := config.ResolveConfigPath(config.ResolveConfigPathOptions{FlagValue: configFlag})
	if err != nil {
		return err
	}
	resolvedPath = pathResolved

	loader := config.NewLoader()
	cfg, err := loader.LoadWithDefaults(resolvedPath.Value)
	if err != nil {
		output.Debug("config load error", "error", err)
		cfg = config.DefaultConfig()
	}
	loadedConfig = cfg

	resolvedAPI = config.ResolveAPIURL(config.ResolveAPIURLOptions{
		FlagValue:   apiURLFlag,
		ConfigValue: cfg.APIURL,
	})

	output.SetupLogging(verboseFlag)

	if verboseFlag {
		config.LogResolvedValues("apiUrl", resolvedAPI)
		config.LogResolvedValues("config", resolvedPath)
	}

	return nil
}

// GetConfig returns the loaded Commodore configuration.
func GetConfig() *config.Config {
	return loadedConfig
}

// GetAPIURL returns the resolved Lieutenant API URL.
func GetAPIURL() string {
	return resolvedAPI.Value
}

// GetAPIToken returns the resolved Lieutenant API token.
func GetAPIToken() string {
	if apiTokenFlag != "" {
		return apiTokenFlag
	}
	if loadedConfig != nil {
		return loadedConfig.APIToken
	}
	return ""
}

// GetConfigPath returns the resolved config file path.
func GetConfigPath() string {
	return resolvedPath.Value
}
