// Package cmd provides CLI command implementations.
package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/projectsyn/commodore/internal/catalog"
	"github.com/projectsyn/commodore/internal/cmdutil"
	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/compile"
	"github.com/projectsyn/commodore/internal/config"
	"github.com/projectsyn/commodore/internal/gitcache"
	"github.com/projectsyn/commodore/internal/jsonnetbundler"
	"github.com/projectsyn/commodore/internal/lieutenant"
	"github.com/projectsyn/commodore/internal/output"
	"github.com/projectsyn/commodore/internal/renderdriver"
	"github.com/projectsyn/commodore/internal/version"
)

// NewCatalogCmd creates the catalog command group: compile, clean, delete
// (spec §1.x delivery shape).
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Compile and manage a cluster's rendered catalog",
	}

	cmd.AddCommand(newCatalogCompileCmd())
	cmd.AddCommand(newCatalogCleanCmd())
	cmd.AddCommand(newCatalogDeleteCmd())

	return cmd
}

// workDirFor returns the per-cluster working directory (spec §6.1: a
// single compile owns dependencies/, inventory/, compiled/, catalog/
// exclusively, so each cluster gets its own subtree under the configured
// base directory, default the current directory).
func workDirFor(clusterID string) string {
	base := "."
	if cfg := GetConfig(); cfg != nil && cfg.WorkDir != "" {
		base = cfg.WorkDir
	}
	return filepath.Join(base, clusterID)
}

func newCatalogCompileCmd() *cobra.Command {
	var compileFlags cmdutil.CompileFlags
	var clusterFlags cmdutil.ClusterSelectorFlags

	cmd := &cobra.Command{
		Use:   "compile <cluster-id>",
		Short: "Compile the catalog for a cluster (C1-C9)",
		Long: `Compile fetches cluster and tenant metadata from Lieutenant, resolves
components and packages, renders the inventory and manifests, post-processes
the output, reconciles secret references, and commits (optionally pushes)
the result into the cluster's catalog repository.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterFlags.ClusterID = args[0]
			return runCatalogCompile(cmd, &compileFlags, &clusterFlags)
		},
	}

	compileFlags.AddTo(cmd)

	return cmd
}

func runCatalogCompile(cmd *cobra.Command, flags *cmdutil.CompileFlags, cluster *cmdutil.ClusterSelectorFlags) error {
	if err := cluster.Validate(); err != nil {
		return cmdutil.NewExitError(err, cmdutil.ExitValidationError)
	}

	overrides := flags.RevisionOverridesInUse()
	if err := catalog.ValidatePushPreconditions(flags.Push, overrides); err != nil {
		output.Error("invalid flag combination", "error", err)
		return cmdutil.NewExitError(err, cmdutil.ExitValidationError)
	}

	apiURL := flags.APIURL
	if apiURL == "" {
		apiURL = GetAPIURL()
	}
	apiToken := flags.APIToken
	if apiToken == "" {
		apiToken = GetAPIToken()
	}

	cfg := GetConfig()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	parallelism := flags.Parallelism
	if parallelism <= 0 {
		parallelism = cfg.Parallelism
	}
	migration := flags.Migration
	if migration == "" {
		migration = cfg.Migration
	}
	force := flags.Force || cfg.Force
	local := flags.Local || cfg.Local
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	workDir := workDirFor(cluster.ClusterID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return cmdutil.NewExitError(
			commodoreerrors.Wrap(commodoreerrors.ErrConfig, "creating working directory", err),
			cmdutil.ExitGeneralError)
	}

	driver := &compile.Driver{
		Lieutenant: lieutenant.NewClient(apiURL, apiToken, timeout),
		GitCache:   gitcache.New(workDir, "dependencies"),
		Engine:     renderdriver.NewEngine(),
		Bundler:    jsonnetbundler.NewBundler(),
		Prompter:   confirmPrompter{},
	}

	opts := compile.Options{
		ClusterID:                  cluster.ClusterID,
		WorkDir:                    workDir,
		Force:                      force,
		Parallelism:                parallelism,
		Migration:                  catalog.Migration(migration),
		Local:                      local,
		Interactive:                flags.Interactive,
		Push:                       flags.Push,
		GlobalRepoRevisionOverride: flags.GlobalRepoRevisionOverride,
		TenantRepoRevisionOverride: flags.TenantRepoRevisionOverride,
		ComponentRevisionOverrides: flags.ComponentRevisionOverrides,
		CommodoreVersion:           version.GetInfo().Version,
	}

	result, err := driver.Run(cmd.Context(), opts)
	if err != nil {
		cmdutil.PrintCompileError("compile failed", err)
		return &cmdutil.ExitError{Err: err, Code: cmdutil.ExitCodeFromError(err), Printed: true}
	}

	for _, w := range result.Warnings {
		output.Warn("deprecation warning", "component", w.Component, "message", w.Message)
	}

	cmdutil.PrintCatalogDiff(result.Catalog.Diff.Text, result.Catalog.Diff.Changed)

	switch {
	case result.Catalog.Pushed:
		output.Info("catalog pushed", "cluster", cluster.ClusterID)
	case result.Catalog.Committed:
		output.Info("catalog committed locally, not pushed", "cluster", cluster.ClusterID)
	default:
		output.Info("no catalog changes", "cluster", cluster.ClusterID)
	}

	return nil
}

func newCatalogCleanCmd() *cobra.Command {
	var clusterFlags cmdutil.ClusterSelectorFlags
	var force bool

	cmd := &cobra.Command{
		Use:   "clean <cluster-id>",
		Short: "Remove a cluster's dependencies/ and compiled/ directories",
		Long: `Clean removes the dependencies/ and compiled/ directories from the
cluster's working directory, forcing the next compile to refetch and
rerender from scratch. With --force, the catalog/ worktree is removed too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterFlags.ClusterID = args[0]
			return runCatalogClean(&clusterFlags, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Also remove the catalog/ worktree")

	return cmd
}

func runCatalogClean(cluster *cmdutil.ClusterSelectorFlags, force bool) error {
	if err := cluster.Validate(); err != nil {
		return cmdutil.NewExitError(err, cmdutil.ExitValidationError)
	}

	workDir := workDirFor(cluster.ClusterID)

	for _, dir := range []string{"dependencies", "compiled"} {
		if err := os.RemoveAll(filepath.Join(workDir, dir)); err != nil {
			return cmdutil.NewExitError(
				commodoreerrors.Wrap(commodoreerrors.ErrConfig, "removing "+dir, err),
				cmdutil.ExitGeneralError)
		}
	}

	if force {
		if err := os.RemoveAll(filepath.Join(workDir, "catalog")); err != nil {
			return cmdutil.NewExitError(
				commodoreerrors.Wrap(commodoreerrors.ErrConfig, "removing catalog", err),
				cmdutil.ExitGeneralError)
		}
	}

	output.Info("cleaned working directory", "cluster", cluster.ClusterID, "path", workDir)
	return nil
}

func newCatalogDeleteCmd() *cobra.Command {
	var clusterFlags cmdutil.ClusterSelectorFlags

	cmd := &cobra.Command{
		Use:   "delete <cluster-id>",
		Short: "Tear down a cluster's entire working directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clusterFlags.ClusterID = args[0]
			return runCatalogDelete(&clusterFlags)
		},
	}

	return cmd
}

func runCatalogDelete(cluster *cmdutil.ClusterSelectorFlags) error {
	if err := cluster.Validate(); err != nil {
		return cmdutil.NewExitError(err, cmdutil.ExitValidationError)
	}

	workDir := workDirFor(cluster.ClusterID)
	if err := os.RemoveAll(workDir); err != nil {
		return cmdutil.NewExitError(
			commodoreerrors.Wrap(commodoreerrors.ErrConfig, "removing working directory", err),
			cmdutil.ExitGeneralError)
	}

	output.Info("deleted working directory", "cluster", cluster.ClusterID, "path", workDir)
	return nil
}

// confirmPrompter implements catalog.Prompter against the terminal.
type confirmPrompter struct{}

func (confirmPrompter) Confirm(question string) (bool, error) {
	return output.Confirm(question)
}
