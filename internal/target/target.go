// Package target implements the Target Builder (spec §4.5, C5): for each
// ComponentInstance, the merged parameter tree, injected synthetic
// parameters, and the ordered class list the renderer driver (C6) needs.
package target

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/inventory"
	"github.com/projectsyn/commodore/internal/resolver"
)

// RenderInvocation is one entry of a target's render_spec (spec §3
// "Target"): an input type and path (relative to ${_base_directory}) and an
// output path prefix.
type RenderInvocation struct {
	InputType  string
	InputPaths []string
	OutputPath string
}

// Target is the fully built (name, classes_in_order, parameters, render_spec)
// tuple spec §3 defines, one per ComponentInstance.
type Target struct {
	Name       string
	Classes    []string
	Parameters inventory.Value
	RenderSpec []RenderInvocation
}

// KustomizeWrapperPath is the bundled script path injected as
// parameters._kustomize_wrapper (spec §4.5), constant across a compile.
const KustomizeWrapperPath = "dependencies/lib/kustomize-wrapper.sh"

// Builder constructs Target values from resolved dependencies and the
// rendered base hierarchy.
type Builder struct {
	Classes    *inventory.Store
	Packages   []string // package names in discovery order, for class ordering
	Components []string // every deployed component's name, sorted
}

// NewBuilder creates a Builder. packages must list package names in the
// order spec §4.5 requires for class assembly (discovery order); components
// must list every deployed component's name, sorted, so each target's
// defaults classes cover the whole cluster, not just its own component.
func NewBuilder(classes *inventory.Store, packages []string, components []string) *Builder {
	return &Builder{Classes: classes, Packages: packages, Components: components}
}

// Build assembles the Target for a single ComponentInstance, given the
// cluster-wide rendered base parameters (from the resolver's final render).
func (b *Builder) Build(inst *resolver.ComponentInstance, base inventory.Value) (*Target, error) {
	comp := inst.Component
	name := comp.Info.Name

	baseParams, ok := base.Path(name)
	if !ok {
		baseParams = inventory.MapValue(inventory.NewOrderedMap())
	}

	merged := baseParams
	if inst.InstanceName != name {
		overlayKey := snakeCase(inst.InstanceName)
		if overlay, ok := base.Path(overlayKey); ok {
			var err error
			merged, err = inventory.Merge(merged, overlay, "")
			if err != nil {
				return nil, commodoreerrors.Wrap(commodoreerrors.ErrRender,
					fmt.Sprintf("merging instance overlay for %s", inst.InstanceName), err)
			}
		}
	}

	merged = injectParam(merged, "_instance", inventory.StringValue(inst.InstanceName))
	merged = injectParam(merged, "_base_directory", inventory.StringValue(comp.Info.CheckoutPath))
	merged = injectParam(merged, "_kustomize_wrapper", inventory.StringValue(KustomizeWrapperPath))

	// Spec §4.5 "Classes": all defaults classes, all package classes in
	// their included order, then the component's class. "All defaults
	// classes" means every deployed component's defaults, not just this
	// instance's own component (confirmed against original_source/
	// commodore/cluster.py's render_target, which loops over every
	// component in the cluster when building one target's class list).
	classes := make([]string, 0, len(b.Components)+len(b.Packages)+1)
	for _, c := range b.Components {
		classes = append(classes, resolver.DefaultsClassName(c))
	}
	classes = append(classes, b.Packages...)
	classes = append(classes, resolver.ComponentClassName(name))

	renderSpec, err := parseRenderSpec(merged)
	if err != nil {
		return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig,
			fmt.Sprintf("parsing kapitan.compile for instance %s", inst.InstanceName), err).WithLocation(inst.InstanceName, name, "")
	}
	namespaceOutputPaths(renderSpec, inst.InstanceName)

	return &Target{
		Name:       inst.InstanceName,
		Classes:    classes,
		Parameters: merged,
		RenderSpec: renderSpec,
	}, nil
}

func injectParam(params inventory.Value, key string, v inventory.Value) inventory.Value {
	if params.Kind != inventory.KindMap {
		params = inventory.MapValue(inventory.NewOrderedMap())
	}
	clone := params.Clone()
	v.Const = true
	clone.Map.Set(key, v)
	return clone
}

// snakeCase converts an instance name like "my-component" to the
// "my_component" parameter-key form spec §4.5 requires for overlay lookup.
func snakeCase(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}

func parseRenderSpec(params inventory.Value) ([]RenderInvocation, error) {
	compile, ok := params.Path("kapitan", "compile")
	if !ok {
		return nil, nil
	}
	items, ok := compile.AsList()
	if !ok {
		return nil, fmt.Errorf("kapitan.compile must be a list")
	}

	out := make([]RenderInvocation, 0, len(items))
	for _, item := range items {
		inputType, _ := stringField(item, "input_type")
		outputPath, _ := stringField(item, "output_path")

		var inputPaths []string
		if v, ok := item.Field("input_paths"); ok {
			if list, ok := v.AsList(); ok {
				for _, p := range list {
					if s, ok := p.AsString(); ok {
						inputPaths = append(inputPaths, s)
					}
				}
			}
		}

		out = append(out, RenderInvocation{
			InputType:  inputType,
			InputPaths: inputPaths,
			OutputPath: outputPath,
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

// namespaceOutputPaths prefixes every render invocation's output path with
// the instance name, preventing collisions between instances of the same
// component (spec §4.5: "output_path namespaced by instance name").
func namespaceOutputPaths(specs []RenderInvocation, instanceName string) {
	for i := range specs {
		specs[i].OutputPath = filepath.Join(instanceName, specs[i].OutputPath)
	}
}
