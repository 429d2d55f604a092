package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/lieutenant"
)

// CommitMetadata carries everything the commit message generator and the
// Lieutenant compile-meta report need (spec §6.2, §4.9 step 4): grounded on
// the original Python's cfg.get_components()/cfg.get_configs(), generalized
// into the typed CompileMeta shape PostCompileMeta already reports.
type CommitMetadata struct {
	Components       map[string]lieutenant.DependencyMeta
	Packages         map[string]lieutenant.DependencyMeta
	GlobalRepo       lieutenant.RepoMeta
	TenantRepo       lieutenant.RepoMeta
	CommodoreVersion string
	CompiledAt       time.Time
}

// RenderCommitMessage builds the human-readable catalog commit message
// from compile metadata (spec §6.2: "The same structure seeds the catalog
// commit message"), grounded on _render_catalog_commit_msg.
func RenderCommitMessage(meta CommitMetadata) string {
	var b strings.Builder
	b.WriteString("Automated catalog update from Commodore\n\n")

	b.WriteString("Component commits:\n")
	for _, name := range sortedKeys(meta.Components) {
		c := meta.Components[name]
		fmt.Fprintf(&b, " * %s: %s (%s)\n", name, c.Version, shortSHA(c.CommitSHA))
	}

	b.WriteString("\nPackage commits:\n")
	for _, name := range sortedKeys(meta.Packages) {
		p := meta.Packages[name]
		fmt.Fprintf(&b, " * %s: %s (%s)\n", name, p.Version, shortSHA(p.CommitSHA))
	}

	fmt.Fprintf(&b, "\nGlobal repo: %s\n", shortSHA(meta.GlobalRepo.CommitSHA))
	fmt.Fprintf(&b, "Tenant repo: %s\n", shortSHA(meta.TenantRepo.CommitSHA))

	fmt.Fprintf(&b, "\nCompilation timestamp: %s\n", meta.CompiledAt.UTC().Format(time.RFC3339))
	return b.String()
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func sortedKeys(m map[string]lieutenant.DependencyMeta) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidatePushPreconditions implements spec §4.9's refusal rule: "--push
// combined with any -*-revision-override" must abort before compilation.
// overridesInUse names every active revision-override flag (e.g.
// "--global-repo-revision-override", "--component-foo-revision-override"),
// if any.
func ValidatePushPreconditions(push bool, overridesInUse []string) error {
	if push && len(overridesInUse) > 0 {
		return commodoreerrors.New(commodoreerrors.ErrCatalogPush,
			fmt.Sprintf("refusing to push a catalog compiled with revision overrides: %s",
				strings.Join(overridesInUse, ", ")))
	}
	return nil
}
