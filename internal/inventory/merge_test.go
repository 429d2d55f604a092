package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectsyn/commodore/internal/inventory"
)

func mustParse(t *testing.T, doc string) inventory.Value {
	t.Helper()
	_, params, err := inventory.ParseClassYAML([]byte(doc))
	require.NoError(t, err)
	return params
}

func TestMergeScalarReplace(t *testing.T) {
	base := mustParse(t, "parameters:\n  a: 1\n")
	overlay := mustParse(t, "parameters:\n  a: 2\n")

	merged, err := inventory.Merge(base, overlay, "")
	require.NoError(t, err)

	v, ok := merged.Map.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.Int)
}

func TestMergeListAppend(t *testing.T) {
	base := mustParse(t, "parameters:\n  a:\n    - x\n")
	overlay := mustParse(t, "parameters:\n  a+:\n    - y\n")

	merged, err := inventory.Merge(base, overlay, "")
	require.NoError(t, err)

	v, ok := merged.Map.Get("a")
	require.True(t, ok)
	require.Len(t, v.List, 2)
	assert.Equal(t, "x", v.List[0].Str)
	assert.Equal(t, "y", v.List[1].Str)
}

func TestMergeMapDeep(t *testing.T) {
	base := mustParse(t, "parameters:\n  a:\n    x: 1\n    y: 2\n")
	overlay := mustParse(t, "parameters:\n  a:\n    y: 3\n    z: 4\n")

	merged, err := inventory.Merge(base, overlay, "")
	require.NoError(t, err)

	a, _ := merged.Map.Get("a")
	x, _ := a.Map.Get("x")
	y, _ := a.Map.Get("y")
	z, _ := a.Map.Get("z")
	assert.Equal(t, int64(1), x.Int)
	assert.Equal(t, int64(3), y.Int)
	assert.Equal(t, int64(4), z.Int)
}

func TestMergeConstantOverrideFails(t *testing.T) {
	base := mustParse(t, "parameters:\n  \"=a\": 1\n")
	overlay := mustParse(t, "parameters:\n  a: 2\n")

	_, err := inventory.Merge(base, overlay, "")
	require.Error(t, err)
	var constErr *inventory.ConstOverrideError
	assert.ErrorAs(t, err, &constErr)
}

func TestMergeConstantListReplaceFails(t *testing.T) {
	base := mustParse(t, "parameters:\n  \"=a\":\n    - x\n")
	overlay := mustParse(t, "parameters:\n  a: 2\n")

	_, err := inventory.Merge(base, overlay, "")
	require.Error(t, err)
}

func TestApplyApplicationsOperator(t *testing.T) {
	got := inventory.ApplyApplicationsOperator([]string{"a", "b", "~a", "a"})
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestApplyApplicationsOperatorRemoval(t *testing.T) {
	got := inventory.ApplyApplicationsOperator([]string{"c1", "c2", "~c1"})
	assert.Equal(t, []string{"c2"}, got)
}

func TestApplyApplicationsOperatorReAddAfterRemoval(t *testing.T) {
	got := inventory.ApplyApplicationsOperator([]string{"c1", "~c1", "c1"})
	assert.Equal(t, []string{"c1"}, got)
}
