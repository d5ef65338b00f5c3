// Package checkout moves a working tree through a branch's recent history.
package checkout

import (
	"context"
	"errors"
	"fmt"
)

// Backends.
const (
	BackendLibGit = "libgit2"
	BackendShell  = "shell"
)

// DefaultBranch is the branch checkouts are anchored on when none is configured.
const DefaultBranch = "master"

// ErrUnknownBackend is returned by New for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown checkout backend")

// ErrNegativeBack is returned when a checkout is asked for a negative offset.
var ErrNegativeBack = errors.New("checkout offset must be non-negative")

// Commit identifies the checked-out commit.
type Commit struct {
	// Back is the number of generations behind the branch tip.
	Back int `json:"back"`
	// Hash is the abbreviated commit hash.
	Hash string `json:"hash"`
	// Date is the committer date, YYYY-MM-DD.
	Date string `json:"date"`
}

// Label returns the HEAD~k label used on trend axes.
func (c Commit) Label() string {
	return Label(c.Back)
}

// Label formats a checkout offset as HEAD~k.
func Label(back int) string {
	return fmt.Sprintf("HEAD~%d", back)
}

// Driver steps a working tree through history.
type Driver interface {
	// Checkout re-anchors on the base branch, then detaches at branch~back.
	Checkout(ctx context.Context, back int) (Commit, error)
	// Restore returns the working tree to the base branch.
	Restore(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// New returns the driver for backend operating on the repository at repoDir.
func New(backend, repoDir, branch string) (Driver, error) {
	if branch == "" {
		branch = DefaultBranch
	}

	switch backend {
	case BackendLibGit, "":
		return NewLibGitDriver(repoDir, branch)
	case BackendShell:
		return NewShellDriver(repoDir, branch), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}
