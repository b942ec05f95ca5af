package docs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
)

// SyncOptions configures where the knowledge base is mirrored from.
type SyncOptions struct {
	RemoteURL string
	Branch    string
}

// Sync brings the docs directory up to date with its git remote: a clone on
// first use, a pull afterwards. An already-up-to-date pull is a success.
func (m *Manager) Sync(opts SyncOptions) error {
	if opts.RemoteURL == "" {
		return fmt.Errorf("remote URL is required for docs sync")
	}

	gitDir := filepath.Join(m.dir, ".git")
	if _, err := os.Stat(gitDir); os.IsNotExist(err) {
		return m.clone(opts)
	}
	return m.pull()
}

func (m *Manager) clone(opts SyncOptions) error {
	m.logger.Info("Cloning docs repository", "url", opts.RemoteURL, "dir", m.dir)

	cloneOpts := &git.CloneOptions{
		URL: opts.RemoteURL,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	if _, err := git.PlainClone(m.dir, cloneOpts); err != nil {
		return fmt.Errorf("failed to clone docs repository: %w", err)
	}
	return nil
}

func (m *Manager) pull() error {
	repo, err := git.PlainOpen(m.dir)
	if err != nil {
		return fmt.Errorf("failed to open docs repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to access docs worktree: %w", err)
	}

	err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull docs repository: %w", err)
	}

	m.logger.Info("Docs repository synchronized", "dir", m.dir)
	return nil
}
