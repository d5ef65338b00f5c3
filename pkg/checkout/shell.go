package checkout

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Sumatoshi-tech/repohealth/pkg/gitlib"
)

// ShellDriver checks out by running the git command line.
type ShellDriver struct {
	repoDir string
	branch  string
	git     string
}

// NewShellDriver returns a driver that runs git inside repoDir.
func NewShellDriver(repoDir, branch string) *ShellDriver {
	return &ShellDriver{repoDir: repoDir, branch: branch, git: "git"}
}

// Checkout implements Driver.
func (d *ShellDriver) Checkout(ctx context.Context, back int) (Commit, error) {
	if back < 0 {
		return Commit{}, ErrNegativeBack
	}

	_, err := d.run(ctx, "checkout", "--quiet", d.branch)
	if err != nil {
		return Commit{}, err
	}

	_, err = d.run(ctx, "checkout", "--quiet", gitlib.Revision(d.branch, back))
	if err != nil {
		return Commit{}, err
	}

	hash, err := d.run(ctx, "log", "--pretty=format:%h", "-n", "1")
	if err != nil {
		return Commit{}, err
	}

	date, err := d.run(ctx, "show", "--format=%cs", "-s")
	if err != nil {
		return Commit{}, err
	}

	return Commit{Back: back, Hash: hash, Date: date}, nil
}

// Restore implements Driver.
func (d *ShellDriver) Restore(ctx context.Context) error {
	_, err := d.run(ctx, "checkout", "--quiet", d.branch)

	return err
}

// Close implements Driver.
func (d *ShellDriver) Close() error {
	return nil
}

func (d *ShellDriver) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, d.git, args...)
	cmd.Dir = d.repoDir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
