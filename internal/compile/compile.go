// Package compile wires the Git Repository Cache (C1), Inventory Store/
// Renderer (C2/C3), Dependency Resolver (C4), Target Builder (C5),
// Renderer Driver (C6), Post-processing Engine (C7), Secret Reference
// Manager (C8) and Catalog Pipeline (C9) into the single end-to-end
// operation behind `commodore catalog compile` (spec §2, §4).
//
// Grounded on the original Python driver (original_source/commodore/
// compile.py, cluster.py, fetch_config.py): the same fetch-global,
// fetch-tenant, resolve, render, postprocess, update-catalog sequence,
// expressed against this rewrite's typed component packages instead of a
// single monolithic Config object.
package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/projectsyn/commodore/internal/catalog"
	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/gitcache"
	"github.com/projectsyn/commodore/internal/inventory"
	"github.com/projectsyn/commodore/internal/jsonnetbundler"
	"github.com/projectsyn/commodore/internal/lieutenant"
	"github.com/projectsyn/commodore/internal/output"
	"github.com/projectsyn/commodore/internal/postprocess"
	"github.com/projectsyn/commodore/internal/renderdriver"
	"github.com/projectsyn/commodore/internal/resolver"
	"github.com/projectsyn/commodore/internal/secrets"
	"github.com/projectsyn/commodore/internal/target"
)

// Options configures one compile run (spec §4.9's compile-time inputs plus
// the resolver's revision overrides, spec §4.4/§4.9).
type Options struct {
	ClusterID string
	WorkDir   string

	Force       bool
	Parallelism int
	Migration   catalog.Migration
	Local       bool
	Interactive bool
	Push        bool

	GlobalRepoRevisionOverride string
	TenantRepoRevisionOverride string
	ComponentRevisionOverrides map[string]string

	CommodoreVersion string
}

// Driver holds the collaborators a compile run talks to. Each field is an
// interface or a concrete client the cmd layer constructs once per process
// invocation.
type Driver struct {
	Lieutenant *lieutenant.Client
	GitCache   *gitcache.Cache
	Engine     *renderdriver.Engine
	Bundler    *jsonnetbundler.Bundler
	Prompter   catalog.Prompter

	// Now returns the compile timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Result reports what a compile run produced.
type Result struct {
	Catalog  *catalog.Result
	Warnings []commodoreerrors.Warning
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Run executes the full compile pipeline for one cluster (spec §2 "Cluster
// compile" and the per-component contracts in spec §4).
func (d *Driver) Run(ctx context.Context, opts Options) (*Result, error) {
	warnings := commodoreerrors.NewWarnings()

	cluster, err := d.Lieutenant.GetCluster(ctx, opts.ClusterID)
	if err != nil {
		return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig, "fetching cluster metadata", err)
	}
	tenant, err := d.Lieutenant.GetTenant(ctx, cluster.Tenant)
	if err != nil {
		return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig, "fetching tenant metadata", err)
	}

	cd := buildClusterDescriptor(opts.ClusterID, cluster, tenant, opts)

	classesDir := filepath.Join(opts.WorkDir, "inventory", "classes")
	store := inventory.NewStore(classesDir)
	store.AddClass("params.cluster", inventory.ClusterClass(cd))

	var globalClass, tenantClass string
	err = output.RunWithSpinner(ctx, func() error {
		var fetchErr error
		globalClass, tenantClass, fetchErr = d.fetchBaseClasses(ctx, cd, store, opts)
		return fetchErr
	}, output.WithTitle(fmt.Sprintf("Fetching global and tenant configuration for %s...", opts.ClusterID)))
	if err != nil {
		return nil, err
	}

	res, err := resolver.New(d.GitCache, store, warnings).
		Resolve(ctx, []string{"params.cluster", globalClass, tenantClass})
	if err != nil {
		return nil, err
	}

	libDir := filepath.Join(opts.WorkDir, "dependencies", "lib")
	if err := stageLibraries(res, libDir); err != nil {
		return nil, err
	}

	err = output.RunWithSpinner(ctx, func() error {
		return d.installJsonnetDeps(ctx, res, opts.Parallelism)
	}, output.WithTitle("Installing jsonnet dependencies..."))
	if err != nil {
		return nil, err
	}

	packages := sortedPackageNames(res.Packages)
	components := sortedComponentNames(res.Components)
	builder := target.NewBuilder(store, packages, components)

	instanceNames := sortedInstanceNames(res.Instances)
	targets := make([]*target.Target, 0, len(instanceNames))
	for _, name := range instanceNames {
		tgt, err := builder.Build(res.Instances[name], res.Rendered.Parameters)
		if err != nil {
			return nil, err
		}
		targets = append(targets, tgt)
	}

	compiledDir := filepath.Join(opts.WorkDir, "compiled")
	renderOpts := renderdriver.RenderOptions{
		WorkDir:      opts.WorkDir,
		InventoryDir: filepath.Join("inventory", "classes"),
		TargetsDir:   "targets",
		CompiledDir:  "compiled",
		LibPaths:     packageLibPaths(store, packages),
	}
	err = output.RunWithSpinner(ctx, func() error {
		return d.Engine.Render(ctx, targets, renderOpts)
	}, output.WithTitle("Rendering targets..."))
	if err != nil {
		return nil, err
	}

	if err := d.postprocess(ctx, targets, compiledDir, opts.Parallelism); err != nil {
		return nil, err
	}

	refsDir := filepath.Join(opts.WorkDir, "catalog", "refs")
	if err := syncSecretRefs(targets, refsDir); err != nil {
		return nil, err
	}

	catalogRepo := gitcache.Handle{RemoteURL: cd.CatalogURL}
	catalogDir, err := d.GitCache.EnsureWorktree(ctx, catalogRepo, "catalog", opts.Force)
	if err != nil {
		return nil, err
	}

	meta, err := d.buildCommitMetadata(ctx, res, cd, opts)
	if err != nil {
		return nil, err
	}

	pipeline := catalog.NewPipeline(catalogDir, d.Prompter)
	catalogResult, err := pipeline.Run(ctx, catalog.Options{
		WorktreeDir: catalogDir,
		CompiledDir: compiledDir,
		Instances:   instanceNames,
		RefsDir:     refsDir,
		Migration:   opts.Migration,
		Local:       opts.Local,
		Interactive: opts.Interactive,
		Push:        opts.Push,
	}, meta)
	if err != nil {
		return nil, err
	}

	if catalogResult.Pushed {
		if err := d.Lieutenant.PostCompileMeta(ctx, opts.ClusterID, lieutenant.CompileMeta(meta)); err != nil {
			return nil, err
		}
	}

	return &Result{Catalog: catalogResult, Warnings: warnings.Flush()}, nil
}

func buildClusterDescriptor(clusterID string, c *lieutenant.Cluster, t *lieutenant.Tenant, opts Options) *inventory.ClusterDescriptor {
	globalURL := t.GlobalGitRepoURL
	globalRev := t.GlobalGitRepoRevision
	if c.GlobalGitRepoRevision != "" {
		globalRev = c.GlobalGitRepoRevision
	}

	tenantURL := t.GitRepo.URL
	tenantRev := t.GitRepo.Revision
	if c.GitRepo != nil && c.GitRepo.URL != "" {
		tenantURL = c.GitRepo.URL
		tenantRev = c.GitRepo.Revision
	}

	if opts.GlobalRepoRevisionOverride != "" {
		globalRev = opts.GlobalRepoRevisionOverride
	}
	if opts.TenantRepoRevisionOverride != "" {
		tenantRev = opts.TenantRepoRevisionOverride
	}

	return &inventory.ClusterDescriptor{
		ClusterID:             clusterID,
		TenantID:              c.Tenant,
		DisplayName:           c.DisplayName,
		TenantDisplay:         t.DisplayName,
		CatalogURL:            c.CatalogURL,
		Facts:                 c.Facts,
		DynamicFacts:          c.DynamicFacts,
		GlobalGitRepoURL:      globalURL,
		GlobalGitRepoRevision: globalRev,
		TenantGitRepoURL:      tenantURL,
		TenantGitRepoRevision: tenantRev,
	}
}

// fetchBaseClasses materializes the global defaults repo and the tenant
// repo, and registers their seed classes (spec §4.2 "Seed paths"),
// grounded on fetch_config.py's fetch_global_config/fetch_customer_config:
// the global repo's "commodore.yml" becomes class "global.commodore", the
// tenant repo's "<cluster_id>.yml" becomes class "<tenant_id>.<cluster_id>".
func (d *Driver) fetchBaseClasses(ctx context.Context, cd *inventory.ClusterDescriptor, store *inventory.Store, opts Options) (globalClass, tenantClass string, err error) {
	globalPath, err := d.GitCache.EnsureWorktree(ctx,
		gitcache.Handle{RemoteURL: cd.GlobalGitRepoURL, Revision: cd.GlobalGitRepoRevision}, "global", opts.Force)
	if err != nil {
		return "", "", err
	}
	if _, err := store.LoadFile("global.commodore", filepath.Join(globalPath, "commodore.yml")); err != nil {
		return "", "", commodoreerrors.Wrap(commodoreerrors.ErrConfig, "loading global class", err)
	}

	tenantPath, err := d.GitCache.EnsureWorktree(ctx,
		gitcache.Handle{RemoteURL: cd.TenantGitRepoURL, Revision: cd.TenantGitRepoRevision}, "tenant", opts.Force)
	if err != nil {
		return "", "", err
	}
	tenantClassName := fmt.Sprintf("%s.%s", cd.TenantID, cd.ClusterID)
	if _, err := store.LoadFile(tenantClassName, filepath.Join(tenantPath, cd.ClusterID+".yml")); err != nil {
		return "", "", commodoreerrors.Wrap(commodoreerrors.ErrConfig, "loading tenant target class", err)
	}

	return "global.commodore", tenantClassName, nil
}

// stageLibraries symlinks every component's lib/ files into a single
// aggregated search directory (spec §4.2: "placed into a single search
// directory (dependencies/lib/)"). Each file is linked under its own name;
// library_aliases are not applied here.
// Collisions are already rejected by resolver.validateLibraryAliases before
// this runs, so a name reaching here is guaranteed to have exactly one
// owner.
func stageLibraries(res *resolver.Result, libDir string) error {
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "creating dependencies/lib", err)
	}

	names := make([]string, 0, len(res.Components))
	for n := range res.Components {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		comp := res.Components[name]
		if comp.LibDir == "" {
			continue
		}
		src := filepath.Join(comp.Info.CheckoutPath, comp.LibDir)
		entries, err := os.ReadDir(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrConfig, fmt.Sprintf("reading libraries for %s", name), err)
		}

		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			dest := filepath.Join(libDir, e.Name())
			_ = os.Remove(dest)
			if err := os.Symlink(filepath.Join(src, e.Name()), dest); err != nil {
				return commodoreerrors.Wrap(commodoreerrors.ErrConfig, fmt.Sprintf("symlinking library %s", e.Name()), err)
			}
		}
	}
	return nil
}

// installJsonnetDeps runs jb over every component that ships a
// jsonnetfile.json[on] (spec §6.5), bounded by parallelism the same way C7
// bounds per-instance post-processing.
func (d *Driver) installJsonnetDeps(ctx context.Context, res *resolver.Result, parallelism int) error {
	if d.Bundler == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for _, comp := range res.Components {
		comp := comp
		if comp.JsonnetFile == "" {
			continue
		}
		jsonnetFilePath := filepath.Join(comp.Info.CheckoutPath, comp.JsonnetFile)
		if _, err := os.Stat(jsonnetFilePath); os.IsNotExist(err) {
			continue
		}
		g.Go(func() error {
			return d.Bundler.Install(gctx, comp.Info.CheckoutPath)
		})
	}

	return g.Wait()
}

func (d *Driver) postprocess(ctx context.Context, targets []*target.Target, compiledDir string, parallelism int) error {
	instances := make([]postprocess.Instance, 0, len(targets))
	for _, tgt := range targets {
		filters, err := postprocess.ParseFilters(tgt.Parameters)
		if err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrConfig,
				fmt.Sprintf("parsing postprocess filters for %s", tgt.Name), err).WithLocation(tgt.Name, "", "")
		}
		instances = append(instances, postprocess.Instance{
			Name:        tgt.Name,
			CompiledDir: filepath.Join(compiledDir, tgt.Name),
			Filters:     filters,
		})
	}

	pipeline := postprocess.Pipeline{Jsonnet: d.Engine, Parallelism: parallelism}
	return pipeline.Run(ctx, instances)
}

// syncSecretRefs discovers every secret reference across all targets and
// reconciles catalog/refs/ in one pass (spec §4.8: reconciliation is
// whole-compile, not per-instance, so orphans from a removed instance are
// pruned too).
func syncSecretRefs(targets []*target.Target, refsDir string) error {
	root := inventory.NewOrderedMap()
	for _, tgt := range targets {
		root.Set(tgt.Name, tgt.Parameters)
	}
	return secrets.Sync(inventory.MapValue(root), refsDir)
}

func (d *Driver) buildCommitMetadata(ctx context.Context, res *resolver.Result, cd *inventory.ClusterDescriptor, opts Options) (catalog.CommitMetadata, error) {
	components := map[string]lieutenant.DependencyMeta{}
	for name, inst := range res.Instances {
		sha, err := d.GitCache.HeadShortSHA(ctx, inst.Info.CheckoutPath)
		if err != nil {
			return catalog.CommitMetadata{}, err
		}
		components[name] = lieutenant.DependencyMeta{
			URL:       inst.Info.Repo.RemoteURL,
			Version:   inst.Info.Repo.Revision,
			CommitSHA: sha,
		}
	}

	packages := map[string]lieutenant.DependencyMeta{}
	for name, pkg := range res.Packages {
		sha, err := d.GitCache.HeadShortSHA(ctx, pkg.Info.CheckoutPath)
		if err != nil {
			return catalog.CommitMetadata{}, err
		}
		packages[name] = lieutenant.DependencyMeta{
			URL:       pkg.Info.Repo.RemoteURL,
			Version:   pkg.Info.Repo.Revision,
			CommitSHA: sha,
		}
	}

	globalPath := filepath.Join(opts.WorkDir, "dependencies", "global")
	globalSHA, err := d.GitCache.HeadShortSHA(ctx, globalPath)
	if err != nil {
		return catalog.CommitMetadata{}, err
	}
	tenantPath := filepath.Join(opts.WorkDir, "dependencies", "tenant")
	tenantSHA, err := d.GitCache.HeadShortSHA(ctx, tenantPath)
	if err != nil {
		return catalog.CommitMetadata{}, err
	}

	return catalog.CommitMetadata{
		Components: components,
		Packages:   packages,
		GlobalRepo: lieutenant.RepoMeta{
			URL: cd.GlobalGitRepoURL, Revision: cd.GlobalGitRepoRevision, CommitSHA: globalSHA,
		},
		TenantRepo: lieutenant.RepoMeta{
			URL: cd.TenantGitRepoURL, Revision: cd.TenantGitRepoRevision, CommitSHA: tenantSHA,
		},
		CommodoreVersion: opts.CommodoreVersion,
		CompiledAt:       d.now(),
	}, nil
}

func sortedPackageNames(pkgs map[string]*resolver.Package) []string {
	out := make([]string, 0, len(pkgs))
	for n := range pkgs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func sortedInstanceNames(instances map[string]*resolver.ComponentInstance) []string {
	out := make([]string, 0, len(instances))
	for n := range instances {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func sortedComponentNames(components map[string]*resolver.Component) []string {
	out := make([]string, 0, len(components))
	for n := range components {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func packageLibPaths(store *inventory.Store, packages []string) []string {
	out := make([]string, 0, len(packages)+1)
	out = append(out, filepath.Join("dependencies", "lib"))
	for _, p := range packages {
		out = append(out, filepath.Join(store.Root(), p))
	}
	return out
}
