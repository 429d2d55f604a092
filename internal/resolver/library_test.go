package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLibFile creates checkoutDir/lib/name (creating lib/ as needed), for
// building a component fixture with a real library file on disk (listDir reads the directory, it isn't stubbed out).
func writeLibFile(t *testing.T, checkoutDir, name string) {
	t.Helper()
	libDir := filepath.Join(checkoutDir, "lib")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, name), []byte("{}"), 0o644))
}

func newComponent(t *testing.T, name string, meta ComponentMetadata, libFile string) *Component {
	t.Helper()
	checkout := t.TempDir()
	if libFile != "" {
		writeLibFile(t, checkout, libFile)
	}
	return &Component{
		Info:     Base{Name: name, CheckoutPath: checkout},
		Metadata: meta,
		LibDir:   "lib",
	}
}

func TestValidateLibraryAliases_OwnPrefixIsAllowed(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"my-component": newComponent(t, "my-component", ComponentMetadata{}, "my-component-main.libsonnet"),
	}}

	assert.NoError(t, r.validateLibraryAliases(res))
}

func TestValidateLibraryAliases_ExactComponentLibsonnetIsAllowed(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"my-component": newComponent(t, "my-component", ComponentMetadata{}, "my-component.libsonnet"),
	}}

	assert.NoError(t, r.validateLibraryAliases(res))
}

func TestValidateLibraryAliases_RejectsNonConformingFilename(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"my-component": newComponent(t, "my-component", ComponentMetadata{}, "unrelated.libsonnet"),
	}}

	err := r.validateLibraryAliases(res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not follow the <component>-* or <component>.libsonnet naming convention")
}

func TestValidateLibraryAliases_RejectsPrefixOfAnotherDeployedComponentWithoutReplaces(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"old-component": newComponent(t, "old-component", ComponentMetadata{}, ""),
		"new-component": newComponent(t, "new-component", ComponentMetadata{}, "old-component-helpers.libsonnet"),
	}}

	err := r.validateLibraryAliases(res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without declaring _metadata.replaces")
}

func TestValidateLibraryAliases_RejectsReuseWhilePredecessorStillDeployedAndNotDeprecated(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"old-component": newComponent(t, "old-component", ComponentMetadata{}, ""),
		"new-component": newComponent(t, "new-component",
			ComponentMetadata{Replaces: "old-component"}, "old-component-helpers.libsonnet"),
	}}

	err := r.validateLibraryAliases(res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is deployed and not deprecated in favor of")
}

func TestValidateLibraryAliases_AllowsReuseWhenPredecessorDeprecatedInFavorOfSuccessor(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"old-component": newComponent(t, "old-component",
			ComponentMetadata{Deprecated: true, ReplacedBy: "new-component"}, ""),
		"new-component": newComponent(t, "new-component",
			ComponentMetadata{Replaces: "old-component"}, "old-component-helpers.libsonnet"),
	}}

	assert.NoError(t, r.validateLibraryAliases(res))
}

// Spec §4.4's OR-condition: a component may also reuse a predecessor's
// prefix when that predecessor simply isn't deployed on this cluster at
// all, so it never appears in res.Components.
func TestValidateLibraryAliases_AllowsReuseWhenPredecessorNotDeployed(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"new-component": newComponent(t, "new-component",
			ComponentMetadata{Replaces: "old-component"}, "old-component-helpers.libsonnet"),
	}}

	assert.NoError(t, r.validateLibraryAliases(res))
}

func TestValidateLibraryAliases_AllowsReuseOfUndeployedPredecessorsExactLibsonnetName(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"new-component": newComponent(t, "new-component",
			ComponentMetadata{Replaces: "old-component"}, "old-component.libsonnet"),
	}}

	assert.NoError(t, r.validateLibraryAliases(res))
}

func TestValidateLibraryAliases_RejectsAliasClaimedByTwoComponents(t *testing.T) {
	checkoutA := t.TempDir()
	writeLibFile(t, checkoutA, "shared.libsonnet")
	checkoutB := t.TempDir()
	writeLibFile(t, checkoutB, "shared.libsonnet")

	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"component-a": {
			Info: Base{Name: "component-a", CheckoutPath: checkoutA}, LibDir: "lib",
			Metadata: ComponentMetadata{LibraryAliases: map[string]string{"shared.libsonnet": "component-a.libsonnet"}},
		},
		"component-b": {
			Info: Base{Name: "component-b", CheckoutPath: checkoutB}, LibDir: "lib",
			Metadata: ComponentMetadata{LibraryAliases: map[string]string{"shared.libsonnet": "component-b.libsonnet"}},
		},
	}}

	err := r.validateLibraryAliases(res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claimed by both")
}

func TestValidateLibraryAliases_RejectsReplacedByMismatch(t *testing.T) {
	r := &Resolver{}
	res := &Result{Components: map[string]*Component{
		"old-component": newComponent(t, "old-component",
			ComponentMetadata{Deprecated: true, ReplacedBy: "new-component"}, "old-component.libsonnet"),
		"new-component": newComponent(t, "new-component", ComponentMetadata{}, "new-component.libsonnet"),
	}}

	err := r.validateLibraryAliases(res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not declare replaces=")
}

func TestLibraryPrefixOwner_PrefersLongestMatchingPrefix(t *testing.T) {
	owner, ok := libraryPrefixOwner("my-component-extra-helper.libsonnet", []string{"my", "my-component"})
	require.True(t, ok)
	assert.Equal(t, "my-component", owner)
}

func TestLibraryPrefixOwner_NoMatch(t *testing.T) {
	_, ok := libraryPrefixOwner("unrelated.libsonnet", []string{"my-component"})
	assert.False(t, ok)
}

func TestMatchesComponentPrefix(t *testing.T) {
	assert.True(t, matchesComponentPrefix("old-component.libsonnet", "old-component"))
	assert.True(t, matchesComponentPrefix("old-component-helpers.libsonnet", "old-component"))
	assert.False(t, matchesComponentPrefix("other.libsonnet", "old-component"))
}
