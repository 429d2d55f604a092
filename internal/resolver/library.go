package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/inventory"
)

// loadComponentMetadata reads class/<name>.yml's constant `_metadata` key
// (spec §3 "Component Metadata") from a fetched component checkout.
func loadComponentMetadata(checkoutPath, name string) (ComponentMetadata, error) {
	classFile := filepath.Join(checkoutPath, "class", name+".yml")
	data, err := os.ReadFile(classFile)
	if err != nil {
		return ComponentMetadata{}, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
			fmt.Sprintf("reading class file for component %s", name), err)
	}

	_, params, err := inventory.ParseClassYAML(data)
	if err != nil {
		return ComponentMetadata{}, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
			fmt.Sprintf("parsing class file for component %s", name), err)
	}

	compVal, ok := params.Path(name)
	if !ok {
		return ComponentMetadata{}, nil
	}
	metaVal, ok := compVal.Field("_metadata")
	if !ok {
		return ComponentMetadata{}, nil
	}

	meta := ComponentMetadata{}
	if v, ok := metaVal.Field("multi_instance"); ok {
		meta.MultiInstance, _ = v.AsBool()
	}
	if v, ok := metaVal.Field("multi_version"); ok {
		meta.MultiVersion, _ = v.AsBool()
	}
	if v, ok := metaVal.Field("deprecated"); ok {
		meta.Deprecated, _ = v.AsBool()
	}
	if v, ok := metaVal.Field("replaced_by"); ok {
		meta.ReplacedBy, _ = v.AsString()
	}
	if v, ok := metaVal.Field("replaces"); ok {
		meta.Replaces, _ = v.AsString()
	}
	if v, ok := metaVal.Field("deprecation_notice"); ok {
		meta.DeprecationNotice, _ = v.AsString()
	}
	if v, ok := metaVal.Field("library_aliases"); ok && v.Kind == inventory.KindMap {
		meta.LibraryAliases = map[string]string{}
		for _, k := range v.Map.Keys() {
			target, _ := v.Map.Get(k)
			ts, _ := target.AsString()
			meta.LibraryAliases[k] = ts
		}
	}

	return meta, nil
}

// libraryOwner tracks which component claims a given library alias, so
// validateLibraryAliases can detect collisions.
type libraryOwner struct {
	component string
	file      string
}

// validateLibraryAliases implements spec §4.4's "Library alias validation"
// pass, run once after every component in res.Components has been fetched.
func (r *Resolver) validateLibraryAliases(res *Result) error {
	names := make([]string, 0, len(res.Components))
	for n := range res.Components {
		names = append(names, n)
	}
	sort.Strings(names)

	owners := map[string]libraryOwner{}

	for _, name := range names {
		comp := res.Components[name]
		files, err := listDir(filepath.Join(comp.Info.CheckoutPath, comp.LibDir))
		if err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrConfig,
				fmt.Sprintf("listing libraries for component %s", name), err)
		}

		for _, file := range files {
			alias := file
			targetFile := file

			if aliasTarget, ok := comp.Metadata.LibraryAliases[file]; ok {
				targetFile = aliasTarget
			}

			owningComponent, ok := libraryPrefixOwner(targetFile, names)
			if !ok && comp.Metadata.Replaces != "" && matchesComponentPrefix(targetFile, comp.Metadata.Replaces) {
				// Spec §4.4: a component may reuse its predecessor's library
				// prefix when that predecessor isn't deployed on this
				// cluster at all, so it never appears in names.
				owningComponent, ok = comp.Metadata.Replaces, true
			}
			if !ok {
				return commodoreerrors.New(commodoreerrors.ErrLibraryPrefix,
					fmt.Sprintf("library file %q in component %s does not follow the <component>-* or <component>.libsonnet naming convention", file, name))
			}

			if owningComponent != name {
				if comp.Metadata.Replaces != owningComponent {
					return commodoreerrors.New(commodoreerrors.ErrLibraryPrefix,
						fmt.Sprintf("component %s uses library prefix of %s without declaring _metadata.replaces", name, owningComponent))
				}
				predecessor, predecessorDeployed := res.Components[owningComponent]
				allowed := !predecessorDeployed ||
					(predecessor.Metadata.Deprecated && predecessor.Metadata.ReplacedBy == name)
				if !allowed {
					return commodoreerrors.New(commodoreerrors.ErrLibraryPrefix,
						fmt.Sprintf("component %s cannot reuse %s's library prefix: %s is deployed and not deprecated in favor of %s",
							name, owningComponent, owningComponent, name))
				}
			}

			if existing, ok := owners[alias]; ok && existing.component != name {
				return commodoreerrors.New(commodoreerrors.ErrLibraryPrefix,
					fmt.Sprintf("library alias %q claimed by both %s and %s", alias, existing.component, name))
			}
			owners[alias] = libraryOwner{component: name, file: file}
		}

		if comp.Metadata.ReplacedBy != "" {
			successor, deployed := res.Components[comp.Metadata.ReplacedBy]
			if deployed && successor.Metadata.Replaces != name {
				return commodoreerrors.New(commodoreerrors.ErrLibraryPrefix,
					fmt.Sprintf("component %s is replaced_by %s, but %s does not declare replaces=%s",
						name, comp.Metadata.ReplacedBy, comp.Metadata.ReplacedBy, name))
			}
		}
	}

	return nil
}

// libraryPrefixOwner determines which known component's naming prefix a
// library filename matches, per spec §4.4: "<component>-*" or exactly
// "<component>.libsonnet".
func libraryPrefixOwner(file string, components []string) (string, bool) {
	best := ""
	for _, c := range components {
		if file == c+".libsonnet" {
			return c, true
		}
		if strings.HasPrefix(file, c+"-") && len(c) > len(best) {
			best = c
		}
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// matchesComponentPrefix reports whether file follows component's
// "<component>-*" or "<component>.libsonnet" naming convention.
func matchesComponentPrefix(file, component string) bool {
	return file == component+".libsonnet" || strings.HasPrefix(file, component+"-")
}
