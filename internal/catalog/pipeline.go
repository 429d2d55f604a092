package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// Prompter asks the operator a yes/no question in interactive mode.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// Options configures one run of the catalog pipeline (spec §4.9).
type Options struct {
	// WorktreeDir is the catalog Git worktree root.
	WorktreeDir string
	// CompiledDir is the engine output directory (compiled/<instance>/...).
	CompiledDir string
	// Instances lists the instance names to copy from CompiledDir into
	// manifests/<instance>/...
	Instances []string
	// RefsDir is the secret-reference directory (catalog/refs/) to copy
	// into the worktree.
	RefsDir string
	// Migration selects the noise-suppression profile applied to the
	// displayed/counted diff.
	Migration Migration
	// Local skips commit+push entirely, leaving the worktree's previous
	// commit untouched (spec §4.9's local-mode behavior, grounded on
	// catalog.py's `cfg.local` branch).
	Local bool
	// Interactive asks for push confirmation after committing. The pipeline
	// does not display the diff before the prompt; the diff is returned in
	// Result.Diff.
	Interactive bool
	// Push pushes after the commit in non-interactive mode; in interactive
	// mode the prompt's answer decides instead.
	Push bool
}

// Result reports what the pipeline did.
type Result struct {
	Diff      Diff
	Committed bool
	Pushed    bool
}

// Pipeline orchestrates the catalog commit pipeline's clear/copy/diff/
// commit/push steps (spec §4.9's 6-step algorithm).
type Pipeline struct {
	Repo     Repo
	Prompter Prompter
}

// NewPipeline builds a Pipeline backed by a real GitRepo rooted at dir.
func NewPipeline(dir string, prompter Prompter) *Pipeline {
	return &Pipeline{Repo: NewGitRepo(dir), Prompter: prompter}
}

// Run executes the full pipeline against opts, returning the diff that was
// computed and whether a commit/push happened.
func (p *Pipeline) Run(ctx context.Context, opts Options, meta CommitMetadata) (*Result, error) {
	before, err := readManifestTree(filepath.Join(opts.WorktreeDir, "manifests"))
	if err != nil {
		return nil, err
	}

	if err := clearDir(filepath.Join(opts.WorktreeDir, "manifests")); err != nil {
		return nil, err
	}
	for _, inst := range opts.Instances {
		src := filepath.Join(opts.CompiledDir, inst)
		dst := filepath.Join(opts.WorktreeDir, "manifests", inst)
		if err := copyTree(src, dst); err != nil {
			return nil, err
		}
	}
	if opts.RefsDir != "" {
		if err := copyTree(opts.RefsDir, filepath.Join(opts.WorktreeDir, "refs")); err != nil {
			return nil, err
		}
	}

	after, err := readManifestTree(filepath.Join(opts.WorktreeDir, "manifests"))
	if err != nil {
		return nil, err
	}

	diff, err := aggregateDiff(before, after, opts.Migration)
	if err != nil {
		return nil, err
	}

	result := &Result{Diff: diff}

	if err := p.Repo.StageAll(ctx); err != nil {
		return nil, err
	}
	staged, err := p.Repo.HasStagedChanges(ctx)
	if err != nil {
		return nil, err
	}
	if !staged {
		return result, nil
	}

	if opts.Local {
		if err := p.Repo.ResetWorktree(ctx); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := p.Repo.Commit(ctx, RenderCommitMessage(meta)); err != nil {
		return nil, err
	}
	result.Committed = true

	push := opts.Push
	if opts.Interactive {
		if p.Prompter == nil {
			return nil, commodoreerrors.New(commodoreerrors.ErrCatalogPush, "interactive mode requires a prompter")
		}
		confirmed, err := p.Prompter.Confirm("Should the push be done?")
		if err != nil {
			return nil, commodoreerrors.Wrap(commodoreerrors.ErrCatalogPush, "reading push confirmation", err)
		}
		push = confirmed
	}

	if push {
		if err := p.Repo.Push(ctx); err != nil {
			return nil, commodoreerrors.Wrap(commodoreerrors.ErrCatalogPush, "pushing catalog", err)
		}
		result.Pushed = true
	}

	return result, nil
}

func clearDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "reading manifests directory", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "clearing manifests directory", err)
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

func readManifestTree(dir string) (map[string][]byte, error) {
	out := map[string][]byte{}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return out, nil
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = data
		return nil
	})
	if err != nil {
		return nil, commodoreerrors.Wrap(commodoreerrors.ErrConfig, "reading previous manifests", err)
	}
	return out, nil
}

// aggregateDiff computes a per-file Diff across the union of before/after
// paths and concatenates the material ones into a single report (spec
// §4.9 step 2-3).
func aggregateDiff(before, after map[string][]byte, migration Migration) (Diff, error) {
	paths := map[string]bool{}
	for p := range before {
		paths[p] = true
	}
	for p := range after {
		paths[p] = true
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	var sections []string
	changed := false
	for _, p := range sorted {
		d, err := Compute(p, before[p], after[p], migration)
		if err != nil {
			return Diff{}, err
		}
		if d.Text != "" {
			sections = append(sections, fmt.Sprintf("%s:\n%s", p, d.Text))
		}
		if d.Changed {
			changed = true
		}
	}

	return Diff{Text: strings.Join(sections, "\n\n"), Changed: changed}, nil
}
