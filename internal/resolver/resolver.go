package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/gitcache"
	"github.com/projectsyn/commodore/internal/inventory"
)

// Fetcher is the subset of gitcache.Cache the resolver depends on, kept as
// an interface so the fixed-point algorithm can be tested without shelling
// out to git.
type Fetcher interface {
	EnsureWorktree(ctx context.Context, repo gitcache.Handle, worktreeName string, force bool) (string, error)
}

// Result is the fully resolved dependency set spec §4.4 describes: every
// package, every base component, and every component instance (with its
// resolved per-instance version).
type Result struct {
	Packages  map[string]*Package
	Components map[string]*Component
	Instances map[string]*ComponentInstance // keyed by instance_name
	Rendered  *inventory.Rendered
}

// Resolver drives the C4 fixed-point algorithm against an inventory Store
// and a git Fetcher.
type Resolver struct {
	Fetcher  Fetcher
	Classes  *inventory.Store
	Force    bool
	Warnings *commodoreerrors.Warnings
}

// New creates a Resolver.
func New(fetcher Fetcher, classes *inventory.Store, warnings *commodoreerrors.Warnings) *Resolver {
	return &Resolver{Fetcher: fetcher, Classes: classes, Warnings: warnings}
}

// Resolve runs the fixed-point algorithm from spec §4.4 starting from the
// given bootstrap seeds (typically params.cluster, global.commodore, and
// the tenant+cluster target class).
func (r *Resolver) Resolve(ctx context.Context, seeds []string) (*Result, error) {
	res := &Result{
		Packages:   map[string]*Package{},
		Components: map[string]*Component{},
		Instances:  map[string]*ComponentInstance{},
	}

	seedOrder := append([]string{}, seeds...)

	var rendered *inventory.Rendered
	for {
		renderer := inventory.NewRenderer(r.Classes, false)
		var err error
		rendered, err = renderer.Render(seedOrder)
		if err != nil {
			return nil, commodoreerrors.Wrap(commodoreerrors.ErrRender, "rendering inventory hierarchy", err)
		}

		newPkgNames, err := newPackageNames(rendered.Parameters, res.Packages)
		if err != nil {
			return nil, err
		}
		if len(newPkgNames) == 0 {
			break
		}

		for _, name := range newPkgNames {
			pkg, err := r.fetchPackage(ctx, name, rendered.Parameters)
			if err != nil {
				return nil, err
			}
			res.Packages[name] = pkg

			symlinkDir, err := r.Classes.SymlinkPackage(name, pkg.Info.CheckoutPath)
			if err != nil {
				return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
					fmt.Sprintf("symlinking package %s", name), err)
			}
			for _, cf := range pkg.ClassFiles {
				className := inventory.PackageClassName(name, cf)
				if _, err := r.Classes.LoadFile(className, filepath.Join(symlinkDir, cf)); err != nil {
					return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
						fmt.Sprintf("loading package class %s", className), err)
				}
			}
		}
	}

	apps, err := renderedApplications(rendered.Parameters)
	if err != nil {
		return nil, err
	}
	apps = inventory.ApplyApplicationsOperator(apps)

	type aliasEntry struct {
		component string
		alias     string
	}
	var entries []aliasEntry
	seenAlias := map[string]bool{}
	for _, a := range apps {
		if strings.HasPrefix(a, "pkg.") {
			continue
		}
		comp, alias := parseApplicationEntry(a)
		key := alias
		if seenAlias[key] {
			return nil, commodoreerrors.New(commodoreerrors.ErrDuplicateInstance,
				fmt.Sprintf("instance %q declared more than once", alias))
		}
		seenAlias[key] = true
		entries = append(entries, aliasEntry{component: comp, alias: alias})
	}

	// Fetch every distinct base component exactly once.
	fetchedDefaults := map[string]bool{}
	for _, e := range entries {
		if _, ok := res.Components[e.component]; ok {
			continue
		}
		comp, err := r.fetchComponent(ctx, e.component, rendered.Parameters)
		if err != nil {
			return nil, err
		}
		res.Components[e.component] = comp
		if comp.Metadata.Deprecated && r.Warnings != nil {
			msg := fmt.Sprintf("component %s is deprecated", e.component)
			if comp.Metadata.ReplacedBy != "" {
				msg += fmt.Sprintf("; replaced by %s", comp.Metadata.ReplacedBy)
			}
			if comp.Metadata.DeprecationNotice != "" {
				msg += ": " + comp.Metadata.DeprecationNotice
			}
			r.Warnings.Add(e.component, msg)
		}
	}

	// Register defaults classes before the global layer and re-render.
	var defaultsSeeds []string
	names := make([]string, 0, len(res.Components))
	for n := range res.Components {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		comp := res.Components[n]
		if comp.DefaultsClass == "" || fetchedDefaults[n] {
			continue
		}
		symlinkPath, err := r.Classes.SymlinkComponentDefaults(n, filepath.Join(comp.Info.CheckoutPath, comp.DefaultsClass))
		if err != nil {
			return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
				fmt.Sprintf("symlinking defaults for component %s", n), err)
		}
		className := DefaultsClassName(n)
		if _, err := r.Classes.LoadFile(className, symlinkPath); err != nil {
			return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
				fmt.Sprintf("loading defaults class for component %s", n), err)
		}
		defaultsSeeds = append(defaultsSeeds, className)
		fetchedDefaults[n] = true
	}

	if len(defaultsSeeds) > 0 {
		seedOrder = append(append([]string{}, defaultsSeeds...), seedOrder...)
		renderer := inventory.NewRenderer(r.Classes, false)
		rendered, err = renderer.Render(seedOrder)
		if err != nil {
			return nil, commodoreerrors.Wrap(commodoreerrors.ErrRender, "re-rendering after component defaults", err)
		}
	}

	for _, n := range names {
		comp := res.Components[n]
		symlinkPath, err := r.Classes.SymlinkComponentClass(n, filepath.Join(comp.Info.CheckoutPath, comp.ComponentClass))
		if err != nil {
			return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
				fmt.Sprintf("symlinking class for component %s", n), err)
		}
		if _, err := r.Classes.LoadFile(ComponentClassName(n), symlinkPath); err != nil {
			return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
				fmt.Sprintf("loading class for component %s", n), err)
		}
	}

	for _, e := range entries {
		comp := res.Components[e.component]
		if e.alias != e.component {
			if !comp.Metadata.MultiInstance {
				return nil, commodoreerrors.New(commodoreerrors.ErrInstancingNotSup,
					fmt.Sprintf("component %s does not support multiple instances (alias %q)", e.component, e.alias))
			}
		}

		inst := &ComponentInstance{
			Info:         Base{Name: e.alias, Repo: comp.Info.Repo, CheckoutPath: comp.Info.CheckoutPath},
			InstanceName: e.alias,
			Component:    comp,
		}

		if override, ok := instanceOverride(rendered.Parameters, e.alias, comp); ok {
			if !comp.Metadata.MultiVersion {
				return nil, commodoreerrors.New(commodoreerrors.ErrInstancingNotSup,
					fmt.Sprintf("component %s does not support per-instance version overrides (instance %q)", e.component, e.alias))
			}
			path, err := r.Fetcher.EnsureWorktree(ctx, override, e.alias, r.Force)
			if err != nil {
				return nil, err
			}
			inst.Info.CheckoutPath = path
			inst.Info.Repo = override
			inst.VersionOverride = &override
		}

		res.Instances[e.alias] = inst
	}

	if err := r.validateLibraryAliases(res); err != nil {
		return nil, err
	}

	res.Rendered = rendered
	return res, nil
}

func newPackageNames(params inventory.Value, known map[string]*Package) ([]string, error) {
	apps, err := renderedApplications(params)
	if err != nil {
		return nil, err
	}
	apps = inventory.ApplyApplicationsOperator(apps)

	var out []string
	for _, a := range apps {
		name, ok := strings.CutPrefix(a, "pkg.")
		if !ok {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

func renderedApplications(params inventory.Value) ([]string, error) {
	appsVal, ok := params.Field("applications")
	if !ok {
		return nil, nil
	}
	list, ok := appsVal.AsList()
	if !ok {
		return nil, commodoreerrors.New(commodoreerrors.ErrRender, "applications must be a list")
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.AsString()
		if !ok {
			return nil, commodoreerrors.New(commodoreerrors.ErrRender, "applications entries must be strings")
		}
		out = append(out, s)
	}
	return out, nil
}

// parseApplicationEntry splits "<comp>[ as <alias>]", normalizing a
// non-aliased entry to comp==alias, per spec §4.4.
func parseApplicationEntry(entry string) (component, alias string) {
	if idx := strings.Index(entry, " as "); idx >= 0 {
		return strings.TrimSpace(entry[:idx]), strings.TrimSpace(entry[idx+4:])
	}
	return entry, entry
}

func (r *Resolver) fetchPackage(ctx context.Context, name string, params inventory.Value) (*Package, error) {
	cfg, ok := params.Path("packages", name)
	if !ok {
		return nil, commodoreerrors.New(commodoreerrors.ErrUnknownDependency,
			fmt.Sprintf("package %q listed in applications has no packages entry", name))
	}

	url, hasURL := stringField(cfg, "url")
	version, hasVersion := stringField(cfg, "version")
	if !hasURL {
		if hasVersion {
			return nil, commodoreerrors.New(commodoreerrors.ErrAmbiguousVersion,
				fmt.Sprintf("package %q has a version but no url", name))
		}
		return nil, commodoreerrors.New(commodoreerrors.ErrUnknownDependency,
			fmt.Sprintf("package %q has no url configured", name))
	}
	subpath, _ := stringField(cfg, "path")

	handle := gitcache.Handle{RemoteURL: url, Revision: version, Subpath: subpath}
	path, err := r.Fetcher.EnsureWorktree(ctx, handle, "pkg-"+name, r.Force)
	if err != nil {
		return nil, err
	}

	classFiles, err := discoverClassFiles(filepath.Join(path, subpath))
	if err != nil {
		return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
			fmt.Sprintf("discovering class files for package %s", name), err)
	}

	return &Package{
		Info:       Base{Name: name, Repo: handle, CheckoutPath: filepath.Join(path, subpath)},
		ClassFiles: classFiles,
	}, nil
}

func (r *Resolver) fetchComponent(ctx context.Context, name string, params inventory.Value) (*Component, error) {
	cfg, ok := params.Path("components", name)
	if !ok {
		return nil, commodoreerrors.New(commodoreerrors.ErrUnknownDependency,
			fmt.Sprintf("component %q listed in applications has no components entry", name))
	}

	url, hasURL := stringField(cfg, "url")
	version, hasVersion := stringField(cfg, "version")
	if !hasURL {
		if hasVersion {
			return nil, commodoreerrors.New(commodoreerrors.ErrAmbiguousVersion,
				fmt.Sprintf("component %q has a version but no url", name))
		}
		return nil, commodoreerrors.New(commodoreerrors.ErrUnknownDependency,
			fmt.Sprintf("component %q has no url configured", name))
	}

	handle := gitcache.Handle{RemoteURL: url, Revision: version}
	path, err := r.Fetcher.EnsureWorktree(ctx, handle, name, r.Force)
	if err != nil {
		return nil, err
	}

	meta, err := loadComponentMetadata(path, name)
	if err != nil {
		return nil, err
	}

	return &Component{
		Info:           Base{Name: name, Repo: handle, CheckoutPath: path},
		Metadata:       meta,
		ComponentClass: filepath.Join("class", name+".yml"),
		DefaultsClass:  filepath.Join("class", "defaults.yml"),
		LibDir:         "lib",
		JsonnetFile:    "jsonnetfile.json",
		PostprocessDir: "postprocess",
	}, nil
}

func instanceOverride(params inventory.Value, alias string, comp *Component) (gitcache.Handle, bool) {
	cfg, ok := params.Path("components", alias)
	if !ok {
		return gitcache.Handle{}, false
	}
	url, hasURL := stringField(cfg, "url")
	version, hasVersion := stringField(cfg, "version")
	if !hasURL && !hasVersion {
		return gitcache.Handle{}, false
	}
	if !hasURL {
		url = comp.Info.Repo.RemoteURL
	}
	if !hasVersion {
		version = comp.Info.Repo.Revision
	}
	if url == comp.Info.Repo.RemoteURL && version == comp.Info.Repo.Revision {
		return gitcache.Handle{}, false
	}
	return gitcache.Handle{RemoteURL: url, Revision: version}, true
}

func stringField(v inventory.Value, key string) (string, bool) {
	f, ok := v.Field(key)
	if !ok {
		return "", false
	}
	return f.AsString()
}

func discoverClassFiles(dir string) ([]string, error) {
	return walkYAMLFiles(dir)
}
