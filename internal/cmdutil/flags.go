// Package cmdutil provides shared command utilities for the catalog
// subcommands: flag group management, exit-code convention, and output
// formatting helpers.
package cmdutil

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CompileFlags holds the flags common to `catalog compile` and any future
// compile-driving command, grounded on the teacher's per-concern flag
// bundle shape (RenderFlags/K8sFlags).
type CompileFlags struct {
	APIURL      string
	APIToken    string
	Push        bool
	Interactive bool
	Local       bool
	Force       bool
	Migration   string
	Parallelism int

	GlobalRepoRevisionOverride string
	TenantRepoRevisionOverride string
	ComponentRevisionOverrides map[string]string
}

// AddTo registers the compile flags on the given cobra command.
func (f *CompileFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.APIURL, "api-url", "",
		"Lieutenant API base URL (default: from config)")
	cmd.Flags().StringVar(&f.APIToken, "api-token", "",
		"Lieutenant API token (default: from config)")
	cmd.Flags().BoolVar(&f.Push, "push", false,
		"Push the catalog to its remote after compiling")
	cmd.Flags().BoolVar(&f.Interactive, "interactive", false,
		"Confirm before pushing (the catalog diff is printed after the run)")
	cmd.Flags().BoolVar(&f.Local, "local", false,
		"Compile without committing or pushing the catalog repository")
	cmd.Flags().BoolVar(&f.Force, "force", false,
		"Discard dirty dependency worktrees instead of aborting")
	cmd.Flags().StringVar(&f.Migration, "migration", "",
		"Migration-aware diff filter: kapitan-0.29-to-0.30 or ignore-yaml-formatting")
	cmd.Flags().IntVar(&f.Parallelism, "parallelism", 0,
		"Concurrent jsonnet-bundler installs and post-processing pipelines (default: CPU count)")
	cmd.Flags().StringVar(&f.GlobalRepoRevisionOverride, "global-repo-revision-override", "",
		"Override the global config repository revision (disallowed with --push)")
	cmd.Flags().StringVar(&f.TenantRepoRevisionOverride, "tenant-repo-revision-override", "",
		"Override the tenant config repository revision (disallowed with --push)")
	cmd.Flags().StringToStringVar(&f.ComponentRevisionOverrides, "component-revision-override", nil,
		"Override a component's checked-out revision, e.g. --component-revision-override name=ref (disallowed with --push)")
}

// RevisionOverridesInUse lists every active `-*-revision-override` flag
// name, for the push+override refusal rule (spec §4.9).
func (f *CompileFlags) RevisionOverridesInUse() []string {
	var overrides []string
	if f.GlobalRepoRevisionOverride != "" {
		overrides = append(overrides, "--global-repo-revision-override")
	}
	if f.TenantRepoRevisionOverride != "" {
		overrides = append(overrides, "--tenant-repo-revision-override")
	}
	for name := range f.ComponentRevisionOverrides {
		overrides = append(overrides, fmt.Sprintf("--component-revision-override=%s", name))
	}
	return overrides
}

// ClusterSelectorFlags identifies the cluster a catalog command targets.
type ClusterSelectorFlags struct {
	ClusterID string
}

// AddTo registers the cluster selector flag on the given cobra command.
func (f *ClusterSelectorFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ClusterID, "cluster-id", "",
		"Lieutenant cluster ID to compile a catalog for")
}

// Validate checks that a cluster ID was provided.
func (f *ClusterSelectorFlags) Validate() error {
	if f.ClusterID == "" {
		return fmt.Errorf("--cluster-id is required")
	}
	return nil
}
