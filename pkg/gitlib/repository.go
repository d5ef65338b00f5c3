package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

const branchRefPrefix = "refs/heads/"

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo}, nil
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// ResolveRevision resolves a revision expression such as "master~3" to a commit.
func (r *Repository) ResolveRevision(rev string) (*Commit, error) {
	obj, err := r.repo.RevparseSingle(rev)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	defer obj.Free()

	peeled, err := obj.Peel(git2go.ObjectCommit)
	if err != nil {
		return nil, fmt.Errorf("peel %s: %w", rev, err)
	}
	defer peeled.Free()

	commit, err := peeled.AsCommit()
	if err != nil {
		return nil, fmt.Errorf("%s is not a commit: %w", rev, err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// CheckoutDetached updates the working tree to the commit and detaches HEAD at it.
// Local modifications to tracked files make the checkout fail.
func (r *Repository) CheckoutDetached(commit *Commit) error {
	err := r.checkoutCommitTree(commit)
	if err != nil {
		return err
	}

	err = r.repo.SetHeadDetached(commit.commit.Id())
	if err != nil {
		return fmt.Errorf("detach HEAD at %s: %w", commit.Hash(), err)
	}

	return nil
}

// CheckoutBranch updates the working tree to the tip of a local branch and
// points HEAD at it.
func (r *Repository) CheckoutBranch(name string) error {
	branch, err := r.repo.LookupBranch(name, git2go.BranchLocal)
	if err != nil {
		return fmt.Errorf("lookup branch %s: %w", name, err)
	}
	defer branch.Free()

	commit, err := r.LookupCommit(HashFromOid(branch.Target()))
	if err != nil {
		return err
	}
	defer commit.Free()

	err = r.checkoutCommitTree(commit)
	if err != nil {
		return err
	}

	err = r.repo.SetHead(branchRefPrefix + name)
	if err != nil {
		return fmt.Errorf("set HEAD to %s: %w", name, err)
	}

	return nil
}

func (r *Repository) checkoutCommitTree(commit *Commit) error {
	tree, err := commit.commit.Tree()
	if err != nil {
		return fmt.Errorf("get commit tree: %w", err)
	}
	defer tree.Free()

	err = r.repo.CheckoutTree(tree, &git2go.CheckoutOptions{Strategy: git2go.CheckoutSafe})
	if err != nil {
		return fmt.Errorf("checkout %s: %w", commit.Hash(), err)
	}

	return nil
}
