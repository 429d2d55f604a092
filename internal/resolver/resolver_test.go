package resolver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectsyn/commodore/internal/gitcache"
	"github.com/projectsyn/commodore/internal/inventory"
	"github.com/projectsyn/commodore/internal/resolver"
)

// fakeFetcher materializes worktrees as plain directories under a temp
// root, keyed by worktreeName, so resolver tests never shell out to git.
type fakeFetcher struct {
	dirs map[string]string
}

func (f *fakeFetcher) EnsureWorktree(_ context.Context, _ gitcache.Handle, worktreeName string, _ bool) (string, error) {
	dir, ok := f.dirs[worktreeName]
	if !ok {
		return "", os.ErrNotExist
	}
	return dir, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mustAddClass(t *testing.T, store *inventory.Store, name string, doc string) {
	t.Helper()
	includes, params, err := inventory.ParseClassYAML([]byte(doc))
	require.NoError(t, err)
	store.AddClass(name, &inventory.Class{Includes: includes, Params: params})
}

func TestResolveFixedPointFetchesPackageThenComponent(t *testing.T) {
	root := t.TempDir()
	store := inventory.NewStore(filepath.Join(root, "classes"))

	mustAddClass(t, store, "global", `
classes: []
parameters:
  applications:
    - pkg.foo
    - mycomp
  packages:
    foo:
      url: https://example.com/foo.git
      version: master
  components:
    mycomp:
      url: https://example.com/mycomp.git
      version: master
`)

	pkgDir := filepath.Join(root, "pkg-foo")
	writeFile(t, filepath.Join(pkgDir, "sub.yml"), "classes: []\nparameters: {}\n")

	compDir := filepath.Join(root, "mycomp")
	writeFile(t, filepath.Join(compDir, "class", "mycomp.yml"), `
classes: []
parameters:
  mycomp:
    _metadata:
      multi_instance: false
`)
	writeFile(t, filepath.Join(compDir, "class", "defaults.yml"), "classes: []\nparameters: {}\n")

	fetcher := &fakeFetcher{dirs: map[string]string{
		"pkg-foo": pkgDir,
		"mycomp":  compDir,
	}}

	r := resolver.New(fetcher, store, nil)
	result, err := r.Resolve(context.Background(), []string{"global"})
	require.NoError(t, err)

	assert.Len(t, result.Packages, 1)
	assert.Contains(t, result.Packages, "foo")

	assert.Len(t, result.Components, 1)
	assert.Contains(t, result.Components, "mycomp")

	require.Len(t, result.Instances, 1)
	inst := result.Instances["mycomp"]
	assert.Equal(t, "mycomp", inst.InstanceName)
	assert.Same(t, result.Components["mycomp"], inst.Component)
}

func TestResolveUnknownDependencyFailsClosed(t *testing.T) {
	root := t.TempDir()
	store := inventory.NewStore(filepath.Join(root, "classes"))

	mustAddClass(t, store, "global", `
classes: []
parameters:
  applications:
    - ghost
`)

	fetcher := &fakeFetcher{dirs: map[string]string{}}
	r := resolver.New(fetcher, store, nil)

	_, err := r.Resolve(context.Background(), []string{"global"})
	require.Error(t, err)
}

func TestResolveAmbiguousVersionOverrideFailsClosed(t *testing.T) {
	root := t.TempDir()
	store := inventory.NewStore(filepath.Join(root, "classes"))

	mustAddClass(t, store, "global", `
classes: []
parameters:
  applications:
    - mycomp
  components:
    mycomp:
      version: master
`)

	fetcher := &fakeFetcher{dirs: map[string]string{}}
	r := resolver.New(fetcher, store, nil)

	_, err := r.Resolve(context.Background(), []string{"global"})
	require.Error(t, err)
}
