package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// CommitDateLayout formats commit dates as YYYY-MM-DD.
const CommitDateLayout = "2006-01-02"

// Commit wraps a libgit2 commit.
type Commit struct {
	commit *git2go.Commit
	repo   *Repository
}

// Hash returns the commit hash.
func (c *Commit) Hash() Hash {
	return HashFromOid(c.commit.Id())
}

// ShortHash returns the shortest unambiguous abbreviation of the commit hash.
func (c *Commit) ShortHash() (string, error) {
	short, err := c.commit.ShortId()
	if err != nil {
		return "", fmt.Errorf("abbreviate %s: %w", c.Hash(), err)
	}

	return short, nil
}

// Committer returns the commit committer.
func (c *Commit) Committer() Signature {
	return signatureFrom(c.commit.Committer())
}

// Date returns the committer date in the committer's own time zone.
func (c *Commit) Date() string {
	return c.Committer().When.Format(CommitDateLayout)
}

// Free releases the commit resources.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}

func signatureFrom(sig *git2go.Signature) Signature {
	return Signature{
		Name:  sig.Name,
		Email: sig.Email,
		When:  sig.When,
	}
}
