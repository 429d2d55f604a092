package cmdutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFlags_AddTo(t *testing.T) {
	var f CompileFlags
	cmd := &cobra.Command{Use: "test"}
	f.AddTo(cmd)

	expected := []string{
		"api-url", "api-token", "push", "interactive", "local", "force",
		"migration", "parallelism", "global-repo-revision-override",
		"tenant-repo-revision-override", "component-revision-override",
	}
	for _, name := range expected {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag %q should be registered", name)
	}

	pushFlag := cmd.Flags().Lookup("push")
	assert.Equal(t, "false", pushFlag.DefValue)

	parallelismFlag := cmd.Flags().Lookup("parallelism")
	assert.Equal(t, "int", parallelismFlag.Value.Type())

	overrideFlag := cmd.Flags().Lookup("component-revision-override")
	assert.Equal(t, "stringToString", overrideFlag.Value.Type())
}

func TestCompileFlags_RevisionOverridesInUse(t *testing.T) {
	tests := []struct {
		name  string
		flags CompileFlags
		want  []string
	}{
		{
			name:  "none set",
			flags: CompileFlags{},
			want:  nil,
		},
		{
			name:  "global override only",
			flags: CompileFlags{GlobalRepoRevisionOverride: "master"},
			want:  []string{"--global-repo-revision-override"},
		},
		{
			name:  "tenant override only",
			flags: CompileFlags{TenantRepoRevisionOverride: "master"},
			want:  []string{"--tenant-repo-revision-override"},
		},
		{
			name:  "component override",
			flags: CompileFlags{ComponentRevisionOverrides: map[string]string{"nginx": "feature-x"}},
			want:  []string{"--component-revision-override=nginx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.flags.RevisionOverridesInUse()
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestCompileFlags_RevisionOverridesInUse_Combined(t *testing.T) {
	f := CompileFlags{
		GlobalRepoRevisionOverride: "master",
		TenantRepoRevisionOverride: "release",
		ComponentRevisionOverrides: map[string]string{"nginx": "feature-x"},
	}
	got := f.RevisionOverridesInUse()
	assert.Len(t, got, 3)
	assert.Contains(t, got, "--global-repo-revision-override")
	assert.Contains(t, got, "--tenant-repo-revision-override")
	assert.Contains(t, got, "--component-revision-override=nginx")
}

func TestClusterSelectorFlags_AddTo(t *testing.T) {
	var f ClusterSelectorFlags
	cmd := &cobra.Command{Use: "test"}
	f.AddTo(cmd)

	flag := cmd.Flags().Lookup("cluster-id")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestClusterSelectorFlags_Validate(t *testing.T) {
	tests := []struct {
		name      string
		clusterID string
		wantErr   bool
	}{
		{name: "empty", clusterID: "", wantErr: true},
		{name: "set", clusterID: "c-test-1234", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ClusterSelectorFlags{ClusterID: tt.clusterID}
			err := f.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "cluster-id")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFlagGroupComposition(t *testing.T) {
	var cf CompileFlags
	var sf ClusterSelectorFlags
	cmd := &cobra.Command{Use: "test"}
	cf.AddTo(cmd)
	sf.AddTo(cmd)

	expectedFlags := []string{"api-url", "push", "migration", "cluster-id"}
	for _, name := range expectedFlags {
		flag := cmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "flag %q should be registered", name)
	}
}
