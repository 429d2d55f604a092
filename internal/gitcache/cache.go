// Package gitcache implements the Git Repository Cache (spec §4.1, C1): one
// bare clone per canonical remote URL, any number of named worktrees
// referencing it, with per-remote locking so concurrent dependency fetches
// never race on the same bare clone.
package gitcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// Handle is the Repository Handle data type from spec §3: a remote, a
// revision (tree-ish), and an optional subpath within the repo.
type Handle struct {
	RemoteURL string
	Revision  string
	Subpath   string
}

// Cache manages bare clones under <root>/.repos/ and worktrees under
// <root>/<dependenciesDir>/<worktree-name>.
type Cache struct {
	root           string
	dependenciesDir string
	git            *binary

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates a Cache rooted at root. dependenciesDir is the directory
// (relative to root) where named worktrees are created, typically
// "dependencies".
func New(root, dependenciesDir string) *Cache {
	return &Cache{
		root:            root,
		dependenciesDir: dependenciesDir,
		git:             newBinary(),
		locks:           make(map[string]*sync.Mutex),
	}
}

func (c *Cache) lockFor(canonURL string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[canonURL]
	if !ok {
		l = &sync.Mutex{}
		c.locks[canonURL] = l
	}
	return l
}

// EnsureWorktree materializes worktreeName at repo.Revision, cloning or
// fetching the bare cache as needed, per spec §4.1's numbered algorithm.
// It returns the absolute path to the ready worktree.
func (c *Cache) EnsureWorktree(ctx context.Context, repo Handle, worktreeName string, force bool) (string, error) {
	canon, err := CanonicalURL(repo.RemoteURL)
	if err != nil {
		return "", commodoreerrors.Wrap(commodoreerrors.ErrConfig, "canonicalizing remote url", err)
	}

	lock := c.lockFor(canon)
	lock.Lock()
	defer lock.Unlock()

	barePath, err := CachePath(c.root, repo.RemoteURL)
	if err != nil {
		return "", commodoreerrors.Wrap(commodoreerrors.ErrConfig, "computing cache path", err)
	}

	if err := c.ensureBareClone(ctx, barePath, repo.RemoteURL); err != nil {
		return "", err
	}

	commit, err := c.resolveRevision(ctx, barePath, repo.Revision)
	if err != nil {
		return "", err
	}

	worktreePath := filepath.Join(c.root, c.dependenciesDir, worktreeName)
	if err := c.ensureWorktree(ctx, barePath, worktreePath, commit, force); err != nil {
		return "", err
	}

	if err := c.configurePushURL(ctx, worktreePath, repo.RemoteURL); err != nil {
		return "", err
	}

	return worktreePath, nil
}

func (c *Cache) ensureBareClone(ctx context.Context, barePath, remote string) error {
	if _, err := os.Stat(barePath); err == nil {
		// Existing clone: refresh references. Retry once on transient
		// network failure per spec §4.1 step 2.
		if _, err := c.git.run(ctx, barePath, "fetch", "--prune", "origin"); err != nil {
			if _, err2 := c.git.run(ctx, barePath, "fetch", "--prune", "origin"); err2 != nil {
				return commodoreerrors.Wrap(commodoreerrors.ErrUnreachableRemote,
					fmt.Sprintf("fetching %s", remote), err2)
			}
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(barePath), 0o755); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrPermissionDenied, "creating cache directory", err)
	}

	if _, err := c.git.run(ctx, filepath.Dir(barePath), "clone", "--bare", remote, barePath); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrUnreachableRemote,
			fmt.Sprintf("cloning %s", remote), err)
	}
	return nil
}

func (c *Cache) resolveRevision(ctx context.Context, barePath, revision string) (string, error) {
	if revision == "" {
		revision = "HEAD"
	}
	out, err := c.git.run(ctx, barePath, "rev-parse", "--verify", revision+"^{commit}")
	if err != nil {
		return "", commodoreerrors.Wrap(commodoreerrors.ErrUnresolvedRevision,
			fmt.Sprintf("resolving revision %q", revision), err)
	}
	return strings.TrimSpace(out), nil
}

func (c *Cache) ensureWorktree(ctx context.Context, barePath, worktreePath, commit string, force bool) error {
	if _, err := os.Stat(worktreePath); err == nil {
		head, err := c.git.run(ctx, worktreePath, "rev-parse", "HEAD")
		if err == nil && strings.TrimSpace(head) == commit {
			dirty, derr := c.isDirty(ctx, worktreePath)
			if derr == nil && !dirty {
				return nil
			}
		}

		dirty, err := c.isDirty(ctx, worktreePath)
		if err != nil {
			return err
		}
		if dirty && !force {
			return commodoreerrors.New(commodoreerrors.ErrDirtyWorktree,
				fmt.Sprintf("worktree %s has local modifications; use --force to discard them", worktreePath))
		}

		if _, err := c.git.run(ctx, worktreePath, "reset", "--hard", commit); err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrGit, "resetting worktree", err)
		}
		if _, err := c.git.run(ctx, worktreePath, "clean", "-fdx"); err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrGit, "cleaning worktree", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(worktreePath), 0o755); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrPermissionDenied, "creating worktree parent", err)
	}

	if _, err := c.git.run(ctx, barePath, "worktree", "add", "--force", "--detach", worktreePath, commit); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrGit,
			fmt.Sprintf("adding worktree at %s", worktreePath), err)
	}
	return nil
}

func (c *Cache) isDirty(ctx context.Context, worktreePath string) (bool, error) {
	out, err := c.git.run(ctx, worktreePath, "status", "--porcelain")
	if err != nil {
		return false, commodoreerrors.Wrap(commodoreerrors.ErrGit, "checking worktree status", err)
	}
	return strings.TrimSpace(out) != "", nil
}

func (c *Cache) configurePushURL(ctx context.Context, worktreePath, remote string) error {
	push, err := PushURL(remote)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "deriving push url", err)
	}
	if _, err := c.git.run(ctx, worktreePath, "remote", "set-url", "--push", "origin", push); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrGit, "configuring push url", err)
	}
	return nil
}

// RemoveWorktree removes a worktree from the bare clone's administrative
// data and deletes its checkout.
func (c *Cache) RemoveWorktree(ctx context.Context, repo Handle, worktreeName string, force bool) error {
	barePath, err := CachePath(c.root, repo.RemoteURL)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "computing cache path", err)
	}
	worktreePath := filepath.Join(c.root, c.dependenciesDir, worktreeName)

	if _, err := os.Stat(worktreePath); err != nil {
		return nil
	}

	if !force {
		dirty, err := c.isDirty(ctx, worktreePath)
		if err != nil {
			return err
		}
		if dirty {
			return commodoreerrors.New(commodoreerrors.ErrDirtyWorktree,
				fmt.Sprintf("worktree %s has local modifications; use --force to remove it", worktreePath))
		}
	}

	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, worktreePath)

	if _, err := c.git.run(ctx, barePath, args...); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrGit, "removing worktree", err)
	}
	return nil
}

// HeadShortSHA returns the short commit SHA checked out at worktreePath,
// used to populate per-component compile metadata (spec §6.2).
func (c *Cache) HeadShortSHA(ctx context.Context, worktreePath string) (string, error) {
	out, err := c.git.run(ctx, worktreePath, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", commodoreerrors.Wrap(commodoreerrors.ErrGit, "reading HEAD", err)
	}
	return strings.TrimSpace(out), nil
}
