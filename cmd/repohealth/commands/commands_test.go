package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repohealth/pkg/checkout"
	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

var errNoSuchCommit = errors.New("no such commit")

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func clock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDriver hands out a fixed history without touching any repository.
type fakeDriver struct {
	mu       sync.Mutex
	commits  []checkout.Commit
	visited  []int
	restored int
	closed   bool
}

func (d *fakeDriver) Checkout(_ context.Context, back int) (checkout.Commit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.visited = append(d.visited, back)

	if back >= len(d.commits) {
		return checkout.Commit{}, errNoSuchCommit
	}

	return d.commits[back], nil
}

func (d *fakeDriver) Restore(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.restored++

	return nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true

	return nil
}

func (d *fakeDriver) factory(_, _, _ string) (checkout.Driver, error) {
	return d, nil
}

// scriptExecutor plays the testing profile's scripts.
type scriptExecutor struct {
	mu    sync.Mutex
	calls map[string]int
}

func newScriptExecutor() *scriptExecutor {
	return &scriptExecutor{calls: make(map[string]int)}
}

func (e *scriptExecutor) Run(_ context.Context, inv tool.Invocation) (tool.Outcome, error) {
	name := filepath.Base(inv.Path)

	e.mu.Lock()
	e.calls[name]++
	e.mu.Unlock()

	write := func(rel, content string) error {
		path := filepath.Join(inv.Dir, rel)

		err := os.MkdirAll(filepath.Dir(path), 0o750)
		if err != nil {
			return err
		}

		return os.WriteFile(path, []byte(content), 0o600)
	}

	switch name {
	case "doxygen.sh":
		err := errors.Join(
			write("build/doxygen/kpis.txt", "3\n"),
			write("build/doxygen/doxygen.tar.xz", "docs"),
		)

		return tool.Outcome{Stdout: []byte("3 warnings\n")}, err
	case "files.sh":
		err := errors.Join(
			write("build/files.txt", "a\nb\n"),
			write("build/files2.txt", "c\n"),
		)

		return tool.Outcome{}, err
	default:
		return tool.Outcome{ExitCode: 1}, tool.ErrNonZeroExit
	}
}

func (e *scriptExecutor) total() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	sum := 0
	for _, n := range e.calls {
		sum += n
	}

	return sum
}

type fixture struct {
	repo     string
	out      string
	config   string
	driver   *fakeDriver
	executor *scriptExecutor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	f := &fixture{
		repo:   filepath.Join(root, "repo"),
		out:    filepath.Join(root, "report"),
		config: filepath.Join(root, "repohealth.yaml"),
		driver: &fakeDriver{commits: []checkout.Commit{
			{Back: 0, Hash: "aaa1111", Date: "2024-05-06"},
			{Back: 1, Hash: "bbb2222", Date: "2024-05-01"},
			{Back: 2, Hash: "ccc3333", Date: "2024-04-20"},
		}},
		executor: newScriptExecutor(),
	}

	require.NoError(t, os.MkdirAll(filepath.Join(f.repo, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(f.repo, "src", "main.c"), []byte("int main(void) {\n  return 0;\n}\n"), 0o600))

	cfg := "report:\n  title: Test health\n  num_back: 5\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o600))

	return f
}

func (f *fixture) run(t *testing.T, extra ...string) (string, error) {
	t.Helper()

	cmd := newRunCommandWithDeps(f.driver.factory, f.executor, clock)

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{
		f.repo,
		"--config", f.config,
		"--output", f.out,
		"--scripts-dir", "/scripts",
		"-n", "2",
		"-s",
		"--silent",
	}, extra...))

	err := cmd.Execute()

	return stdout.String(), err
}
