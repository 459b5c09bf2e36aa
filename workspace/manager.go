/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

// remoteURL resolves the git remote for a repository. Tests override it
// to point at local fixture repositories.
var remoteURL = func(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo)
}

// Manager provisions workspaces: one clone per repository under its
// base directory, reused across runs and refreshed per checkout. Access
// is serialized per repository+branch so two runs can never mutate the
// same working tree concurrently.
type Manager struct {
	baseDir     string
	identity    string
	tokenSource oauth2.TokenSource

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// CheckoutOptions controls how a workspace is prepared.
type CheckoutOptions struct {
	// Branch is the branch to check out. Created from Base when it does
	// not exist locally or on the remote.
	Branch string

	// Base is the branch new branches start from. Defaults to "main".
	Base string

	// Reset hard-resets and cleans the working tree before handing it
	// out. Whether reuse carries uncommitted state over is the caller's
	// policy, so it is explicit here rather than implied.
	Reset bool
}

// NewManager returns a Manager storing clones under baseDir. identity
// becomes the commit author for pushes; tokenSource may be nil for
// remotes that need no authentication.
func NewManager(baseDir, identity string, tokenSource oauth2.TokenSource) (*Manager, error) {
	if baseDir == "" {
		return nil, errors.New("base directory cannot be empty")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, errors.New("identity cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}

	return &Manager{
		baseDir:     baseDir,
		identity:    identity,
		tokenSource: tokenSource,
		locks:       make(map[string]*sync.Mutex),
	}, nil
}

// Checkout clones or reuses the repository's workspace and checks out
// the requested branch. The returned release function must be called
// when the run finishes; until then no other Checkout for the same
// repository+branch can proceed.
func (m *Manager) Checkout(ctx context.Context, owner, repo string, opts CheckoutOptions) (*Workspace, func(), error) {
	switch {
	case owner == "":
		return nil, nil, errors.New("owner cannot be empty")
	case repo == "":
		return nil, nil, errors.New("repo cannot be empty")
	case opts.Branch == "":
		return nil, nil, errors.New("branch cannot be empty")
	}
	if opts.Base == "" {
		opts.Base = "main"
	}

	lock := m.branchLock(owner, repo, opts.Branch)
	lock.Lock()
	release := sync.OnceFunc(lock.Unlock)

	ws, err := m.prepare(ctx, owner, repo, opts)
	if err != nil {
		release()
		return nil, nil, err
	}
	return ws, release, nil
}

func (m *Manager) branchLock(owner, repo, branch string) *sync.Mutex {
	key := fmt.Sprintf("%s/%s@%s", owner, repo, branch)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locks[key]; !ok {
		m.locks[key] = &sync.Mutex{}
	}
	return m.locks[key]
}

func (m *Manager) prepare(ctx context.Context, owner, repo string, opts CheckoutOptions) (*Workspace, error) {
	log := clog.FromContext(ctx)
	dir := filepath.Join(m.baseDir, owner, repo)

	var repository *gogit.Repository
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		repository, err = gogit.PlainOpen(dir)
		if err != nil {
			return nil, fmt.Errorf("opening existing clone: %w", err)
		}
		if err := m.fetch(ctx, repository); err != nil {
			return nil, err
		}
		log.With("dir", dir).Debug("Reusing existing clone")
	} else {
		remote := remoteURL(owner, repo)
		log.With("remote", remote).With("dir", dir).Info("Cloning repository")

		auth, err := m.auth()
		if err != nil {
			return nil, err
		}
		repository, err = gogit.PlainClone(dir, false, &gogit.CloneOptions{
			URL:  remote,
			Auth: auth,
		})
		if err != nil {
			return nil, fmt.Errorf("cloning %s: %w", remote, err)
		}
	}

	worktree, err := repository.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	if opts.Reset {
		if err := worktree.Reset(&gogit.ResetOptions{Mode: gogit.HardReset}); err != nil {
			return nil, fmt.Errorf("resetting worktree: %w", err)
		}
		if err := worktree.Clean(&gogit.CleanOptions{Dir: true}); err != nil {
			return nil, fmt.Errorf("cleaning worktree: %w", err)
		}
	}

	if err := m.checkoutBranch(repository, worktree, opts); err != nil {
		return nil, err
	}

	policy, err := LoadPolicy(dir)
	if err != nil {
		return nil, err
	}

	ws, err := Open(dir, WithPolicy(policy))
	if err != nil {
		return nil, err
	}
	ws.repo = repository
	return ws, nil
}

func (m *Manager) fetch(ctx context.Context, repository *gogit.Repository) error {
	auth, err := m.auth()
	if err != nil {
		return err
	}
	err = repository.FetchContext(ctx, &gogit.FetchOptions{
		RefSpecs: []gitconfig.RefSpec{"+refs/heads/*:refs/remotes/origin/*"},
		Auth:     auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetching: %w", err)
	}
	return nil
}

// checkoutBranch checks out opts.Branch, materializing it from
// origin/<branch> when only the remote has it, or branching off
// origin/<base> (falling back to HEAD) when it exists nowhere yet.
func (m *Manager) checkoutBranch(repository *gogit.Repository, worktree *gogit.Worktree, opts CheckoutOptions) error {
	refName := plumbing.NewBranchReferenceName(opts.Branch)

	if _, err := repository.Reference(refName, true); err == nil {
		if err := worktree.Checkout(&gogit.CheckoutOptions{Branch: refName, Force: true}); err != nil {
			return fmt.Errorf("checking out %s: %w", opts.Branch, err)
		}
		return nil
	}

	start, err := repository.Reference(plumbing.NewRemoteReferenceName("origin", opts.Branch), true)
	if err != nil {
		start, err = repository.Reference(plumbing.NewRemoteReferenceName("origin", opts.Base), true)
	}
	if err != nil {
		start, err = repository.Reference(plumbing.HEAD, true)
	}
	if err != nil {
		return fmt.Errorf("finding start point for %s: %w", opts.Branch, err)
	}

	if err := repository.Storer.SetReference(plumbing.NewHashReference(refName, start.Hash())); err != nil {
		return fmt.Errorf("creating branch %s: %w", opts.Branch, err)
	}
	if err := worktree.Checkout(&gogit.CheckoutOptions{Branch: refName, Force: true}); err != nil {
		return fmt.Errorf("checking out %s: %w", opts.Branch, err)
	}
	return nil
}

// CommitAndPush stages everything in the workspace, commits with the
// manager identity, and force-pushes the branch. Returns the commit SHA,
// or empty when there was nothing to commit.
func (m *Manager) CommitAndPush(ctx context.Context, ws *Workspace, branch, message string) (string, error) {
	if ws.repo == nil {
		return "", errors.New("workspace was not provisioned by a manager")
	}
	if message == "" {
		return "", errors.New("commit message cannot be empty")
	}

	worktree, err := ws.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("staging changes: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("getting status: %w", err)
	}
	if status.IsClean() {
		clog.FromContext(ctx).Info("No changes to commit")
		return "", nil
	}

	email := m.identity
	if !strings.Contains(email, "@") {
		email += "@users.noreply.github.com"
	}
	sha, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  m.identity,
			Email: email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}

	auth, err := m.auth()
	if err != nil {
		return "", err
	}
	refSpec := gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/heads/%s", branch, branch))
	if err := ws.repo.PushContext(ctx, &gogit.PushOptions{
		RefSpecs: []gitconfig.RefSpec{refSpec},
		Auth:     auth,
		Force:    true,
	}); err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("pushing %s: %w", branch, err)
	}

	clog.FromContext(ctx).With("branch", branch).With("sha", sha.String()).Info("Pushed changes")
	return sha.String(), nil
}

func (m *Manager) auth() (*githttp.BasicAuth, error) {
	if m.tokenSource == nil {
		return nil, nil
	}
	token, err := m.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return &githttp.BasicAuth{
		Username: "x-access-token",
		Password: token.AccessToken,
	}, nil
}
