package catalog

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// Repo is the subset of Git operations the catalog pipeline performs
// against the catalog worktree: staging, committing, and pushing. Kept as
// an interface (rather than a direct dependency on internal/gitcache,
// which is scoped to dependency fetching) so pipeline tests can substitute
// a fake.
type Repo interface {
	StageAll(ctx context.Context) error
	HasStagedChanges(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context) error
	ResetWorktree(ctx context.Context) error
}

// GitRepo is the real Repo implementation, a subprocess-oracle wrapper
// around the git binary in the same idiom as internal/gitcache.binary.
type GitRepo struct {
	Dir  string
	Path string
}

// NewGitRepo returns a GitRepo rooted at dir, invoking "git" from $PATH.
func NewGitRepo(dir string) *GitRepo {
	return &GitRepo{Dir: dir, Path: "git"}
}

func (r *GitRepo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Path, args...)
	cmd.Dir = r.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.String(), commodoreerrors.Wrap(commodoreerrors.ErrGit, out.String(), err)
		}
		return out.String(), commodoreerrors.Wrap(commodoreerrors.ErrGit, "running git", err)
	}
	return out.String(), nil
}

// StageAll stages every change under the worktree (spec §4.9 step 2: the
// clear-and-copy result is staged wholesale before diffing/committing).
func (r *GitRepo) StageAll(ctx context.Context) error {
	_, err := r.run(ctx, "add", "-A")
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (r *GitRepo) HasStagedChanges(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, r.Path, "diff", "--cached", "--quiet")
	cmd.Dir = r.Dir
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, commodoreerrors.Wrap(commodoreerrors.ErrGit, "checking staged changes", err)
}

// Commit commits the staged changes using the repository's configured
// author identity (spec §4.9 step 4).
func (r *GitRepo) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, "commit", "-m", message)
	return err
}

// Push pushes the current branch to its configured upstream (spec §4.9
// step 6).
func (r *GitRepo) Push(ctx context.Context) error {
	_, err := r.run(ctx, "push")
	return err
}

// ResetWorktree discards staged-but-uncommitted changes, used when the
// pipeline runs in local mode and the rendered catalog must not be
// committed (grounded on catalog.py's `repo.reset(working_tree=False)` in
// `_push_catalog`'s local-mode branch).
func (r *GitRepo) ResetWorktree(ctx context.Context) error {
	_, err := r.run(ctx, "reset")
	return err
}
