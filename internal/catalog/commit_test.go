package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/projectsyn/commodore/internal/catalog"
	"github.com/projectsyn/commodore/internal/lieutenant"
)

func TestRenderCommitMessageListsComponentsSorted(t *testing.T) {
	meta := catalog.CommitMetadata{
		Components: map[string]lieutenant.DependencyMeta{
			"zeta":  {Version: "v1.0.0", CommitSHA: "abcdef1234567"},
			"alpha": {Version: "v2.0.0", CommitSHA: "1234567abcdef"},
		},
		CompiledAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	msg := catalog.RenderCommitMessage(meta)

	alphaIdx := indexOf(msg, "alpha")
	zetaIdx := indexOf(msg, "zeta")
	assert.True(t, alphaIdx >= 0 && zetaIdx >= 0 && alphaIdx < zetaIdx)
	assert.Contains(t, msg, "1234567")
	assert.Contains(t, msg, "Compilation timestamp: 2026-01-02T03:04:05Z")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
