package compile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectsyn/commodore/internal/inventory"
	"github.com/projectsyn/commodore/internal/lieutenant"
	"github.com/projectsyn/commodore/internal/resolver"
)

func TestBuildClusterDescriptor_UsesTenantDefaults(t *testing.T) {
	cluster := &lieutenant.Cluster{
		ID:          "c-green-fox-1234",
		Tenant:      "t-silent-forest-5678",
		DisplayName: "Green Fox",
		CatalogURL:  "https://git.example.com/catalog.git",
		Facts:       map[string]string{"cloud": "local"},
	}
	tenant := &lieutenant.Tenant{
		DisplayName:      "Silent Forest",
		GlobalGitRepoURL: "https://git.example.com/global.git",
		GitRepo: lieutenant.GitRepoRef{
			URL:      "https://git.example.com/tenant.git",
			Revision: "main",
		},
	}

	cd := buildClusterDescriptor("c-green-fox-1234", cluster, tenant, Options{})

	assert.Equal(t, "c-green-fox-1234", cd.ClusterID)
	assert.Equal(t, "t-silent-forest-5678", cd.TenantID)
	assert.Equal(t, "https://git.example.com/global.git", cd.GlobalGitRepoURL)
	assert.Equal(t, "https://git.example.com/tenant.git", cd.TenantGitRepoURL)
	assert.Equal(t, "main", cd.TenantGitRepoRevision)
}

func TestBuildClusterDescriptor_ClusterGitRepoOverridesTenant(t *testing.T) {
	cluster := &lieutenant.Cluster{
		ID:     "c-green-fox-1234",
		Tenant: "t-silent-forest-5678",
		GitRepo: &lieutenant.GitRepoRef{
			URL:      "https://git.example.com/cluster-override.git",
			Revision: "feature-branch",
		},
		GlobalGitRepoRevision: "v2.0.0",
	}
	tenant := &lieutenant.Tenant{
		GitRepo: lieutenant.GitRepoRef{URL: "https://git.example.com/tenant.git", Revision: "main"},
	}

	cd := buildClusterDescriptor("c-green-fox-1234", cluster, tenant, Options{})

	assert.Equal(t, "https://git.example.com/cluster-override.git", cd.TenantGitRepoURL)
	assert.Equal(t, "feature-branch", cd.TenantGitRepoRevision)
	assert.Equal(t, "v2.0.0", cd.GlobalGitRepoRevision)
}

func TestBuildClusterDescriptor_RevisionOverridesWinOverEverything(t *testing.T) {
	cluster := &lieutenant.Cluster{
		ID:     "c-green-fox-1234",
		Tenant: "t-silent-forest-5678",
		GitRepo: &lieutenant.GitRepoRef{
			URL:      "https://git.example.com/cluster-override.git",
			Revision: "feature-branch",
		},
	}
	tenant := &lieutenant.Tenant{GlobalGitRepoRevision: "v1.0.0"}

	cd := buildClusterDescriptor("c-green-fox-1234", cluster, tenant, Options{
		GlobalRepoRevisionOverride: "global-override-rev",
		TenantRepoRevisionOverride: "tenant-override-rev",
	})

	assert.Equal(t, "global-override-rev", cd.GlobalGitRepoRevision)
	assert.Equal(t, "tenant-override-rev", cd.TenantGitRepoRevision)
}

func TestSortedPackageNames(t *testing.T) {
	pkgs := map[string]*resolver.Package{
		"zeta":  {},
		"alpha": {},
		"mid":   {},
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, sortedPackageNames(pkgs))
}

func TestSortedPackageNames_Empty(t *testing.T) {
	assert.Empty(t, sortedPackageNames(nil))
}

func TestSortedInstanceNames(t *testing.T) {
	instances := map[string]*resolver.ComponentInstance{
		"web-2": {},
		"web-1": {},
		"db":    {},
	}
	assert.Equal(t, []string{"db", "web-1", "web-2"}, sortedInstanceNames(instances))
}

func TestPackageLibPaths_AlwaysIncludesDependenciesLib(t *testing.T) {
	store := inventory.NewStore(filepath.Join("workdir", "inventory", "classes"))
	paths := packageLibPaths(store, nil)
	assert.Equal(t, []string{filepath.Join("dependencies", "lib")}, paths)
}

func TestPackageLibPaths_OnePerPackage(t *testing.T) {
	store := inventory.NewStore(filepath.Join("workdir", "inventory", "classes"))
	paths := packageLibPaths(store, []string{"pkg-a", "pkg-b"})

	assert.Equal(t, []string{
		filepath.Join("dependencies", "lib"),
		filepath.Join(store.Root(), "pkg-a"),
		filepath.Join(store.Root(), "pkg-b"),
	}, paths)
}

func TestStageLibraries_SymlinksComponentLibFiles(t *testing.T) {
	base := t.TempDir()
	checkout := filepath.Join(base, "dependencies", "my-component")
	require.NoError(t, os.MkdirAll(filepath.Join(checkout, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(checkout, "lib", "my-component.libsonnet"), []byte("{}"), 0o644))

	res := &resolver.Result{
		Components: map[string]*resolver.Component{
			"my-component": {
				Info:   resolver.Base{Name: "my-component", CheckoutPath: checkout},
				LibDir: "lib",
			},
		},
	}

	libDir := filepath.Join(base, "dependencies", "lib")
	err := stageLibraries(res, libDir)
	require.NoError(t, err)

	link := filepath.Join(libDir, "my-component.libsonnet")
	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)
}

func TestStageLibraries_SkipsComponentsWithoutLibDir(t *testing.T) {
	base := t.TempDir()
	res := &resolver.Result{
		Components: map[string]*resolver.Component{
			"my-component": {Info: resolver.Base{Name: "my-component", CheckoutPath: base}},
		},
	}

	libDir := filepath.Join(base, "dependencies", "lib")
	err := stageLibraries(res, libDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(libDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
