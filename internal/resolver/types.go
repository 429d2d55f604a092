// Package resolver implements the Dependency Resolver (spec §4.4, C4): the
// fixed-point algorithm that expands a cluster's inventory hierarchy into
// the fully fetched set of packages, components, and component instances.
package resolver

import "github.com/projectsyn/commodore/internal/gitcache"

// Base carries the attributes spec §3 ("Dependency") assigns to every
// dependency variant, grounded on the teacher's internal/core polymorphism
// over component.Component/module.Module/modulerelease.ModuleRelease:
// distinct structs sharing a metadata shape, no inheritance.
type Base struct {
	Name         string
	Repo         gitcache.Handle
	CheckoutPath string
}

// Dependency is the sum type over the three dependency variants spec §3
// names: Package, Component, ComponentInstance.
type Dependency interface {
	Common() Base
}

// Package is a fetched package dependency: a directory of reclass class
// files exposed under classes/<package_name>/.
type Package struct {
	Info Base
	// ClassFiles holds the relative paths (within the package checkout) of
	// every class file the package exposes.
	ClassFiles []string
}

func (p Package) Common() Base { return p.Info }

// ComponentMetadata mirrors the constant `<component>._metadata` record
// spec §3 documents.
type ComponentMetadata struct {
	MultiInstance     bool
	MultiVersion      bool
	LibraryAliases    map[string]string
	Deprecated        bool
	ReplacedBy        string
	Replaces          string
	DeprecationNotice string
}

// Component is a fetched component dependency.
type Component struct {
	Info           Base
	Metadata       ComponentMetadata
	ComponentClass string // class/<name>.yml, relative to checkout
	DefaultsClass  string // class/defaults.yml, relative to checkout
	LibDir         string // lib/, relative to checkout; may not exist on disk
	JsonnetFile    string // jsonnetfile.json, relative to checkout; may not exist on disk
	PostprocessDir string // postprocess/, relative to checkout; may not exist on disk
}

func (c Component) Common() Base { return c.Info }

// ComponentInstance is one alias of a Component, per spec §3: "instance_name,
// pointer to its base Component, and possibly an override RepositoryHandle
// (multi-version)".
type ComponentInstance struct {
	Info            Base
	InstanceName    string
	Component       *Component
	VersionOverride *gitcache.Handle // nil unless multi-version override applies
}

func (i ComponentInstance) Common() Base { return i.Info }
