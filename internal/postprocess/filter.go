// Package postprocess implements the Post-processing Engine (spec §4.7,
// C7): a typed filter pipeline, sequential within one component instance
// and parallel across instances.
package postprocess

import (
	"context"
	"fmt"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/inventory"
)

// Spec is one entry of `parameters.commodore.postprocess.filters`
// (spec §4.7 "Filter definition"). FilterArgs keeps its native Value shape
// (scalars, lists) rather than flattening to strings, since builtin filters
// like helm_namespace need structured config (a bool, a list of
// kind/name exclusions); StringArgs() flattens for jsonnet ext-var use.
type Spec struct {
	Type       string
	Path       string
	Filter     string
	Enabled    bool
	FilterArgs inventory.Value
}

// StringArgs converts FilterArgs's top-level scalar entries to strings, for
// jsonnet filters which receive filterargs as ext-vars (spec §4.7).
func (s Spec) StringArgs() map[string]string {
	out := map[string]string{}
	if s.FilterArgs.Kind != inventory.KindMap {
		return out
	}
	for _, k := range s.FilterArgs.Map.Keys() {
		v, _ := s.FilterArgs.Map.Get(k)
		out[k] = v.String()
	}
	return out
}

// ParseFilters reads the commodore.postprocess.filters list out of a
// target's rendered parameters.
func ParseFilters(params inventory.Value) ([]Spec, error) {
	filtersVal, ok := params.Path("commodore", "postprocess", "filters")
	if !ok {
		return nil, nil
	}
	items, ok := filtersVal.AsList()
	if !ok {
		return nil, commodoreerrors.New(commodoreerrors.ErrConfig, "commodore.postprocess.filters must be a list")
	}

	out := make([]Spec, 0, len(items))
	for i, item := range items {
		typ, _ := stringField(item, "type")
		path, _ := stringField(item, "path")
		filter, _ := stringField(item, "filter")

		enabled := true
		if v, ok := item.Field("enabled"); ok {
			enabled, _ = v.AsBool()
		}

		if typ != "builtin" && typ != "jsonnet" {
			return nil, commodoreerrors.New(commodoreerrors.ErrFilter,
				fmt.Sprintf("filter #%d: unknown type %q", i, typ))
		}

		args, _ := item.Field("filterargs")

		out = append(out, Spec{
			Type:       typ,
			Path:       path,
			Filter:     filter,
			Enabled:    enabled,
			FilterArgs: args,
		})
	}
	return out, nil
}

func stringField(v inventory.Value, key string) (string, bool) {
	f, ok := v.Field(key)
	if !ok {
		return "", false
	}
	return f.AsString()
}

// Filter applies one postprocessing step to the compiled output rooted at
// dir (spec §4.7: "reads files in path, writes back to the same path").
type Filter interface {
	Apply(ctx context.Context, dir string) error
}

// Builtin looks up a builtin filter by name.
func Builtin(name string, args inventory.Value) (Filter, error) {
	switch name {
	case "helm_namespace":
		return newHelmNamespaceFilter(args)
	default:
		return nil, commodoreerrors.New(commodoreerrors.ErrFilter, fmt.Sprintf("unknown builtin filter %q", name))
	}
}
