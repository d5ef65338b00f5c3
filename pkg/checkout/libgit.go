package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/repohealth/pkg/gitlib"
)

// LibGitDriver checks out through libgit2.
type LibGitDriver struct {
	mu     sync.Mutex
	repo   *gitlib.Repository
	branch string
}

// NewLibGitDriver opens the repository at repoDir.
func NewLibGitDriver(repoDir, branch string) (*LibGitDriver, error) {
	repo, err := gitlib.LoadRepository(repoDir)
	if err != nil {
		return nil, err
	}

	return &LibGitDriver{repo: repo, branch: branch}, nil
}

// Checkout implements Driver.
func (d *LibGitDriver) Checkout(ctx context.Context, back int) (Commit, error) {
	if back < 0 {
		return Commit{}, ErrNegativeBack
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if ctx.Err() != nil {
		return Commit{}, ctx.Err()
	}

	err := d.repo.CheckoutBranch(d.branch)
	if err != nil {
		return Commit{}, err
	}

	commit, err := d.repo.ResolveRevision(gitlib.Revision(d.branch, back))
	if err != nil {
		return Commit{}, err
	}
	defer commit.Free()

	err = d.repo.CheckoutDetached(commit)
	if err != nil {
		return Commit{}, err
	}

	short, err := commit.ShortHash()
	if err != nil {
		return Commit{}, err
	}

	return Commit{Back: back, Hash: short, Date: commit.Date()}, nil
}

// Restore implements Driver.
func (d *LibGitDriver) Restore(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.repo.CheckoutBranch(d.branch)
	if err != nil {
		return fmt.Errorf("restore %s: %w", d.branch, err)
	}

	return nil
}

// Close implements Driver.
func (d *LibGitDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.repo.Free()

	return nil
}
