package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrNonZeroExit is returned when a tool exits with a non-zero status.
var ErrNonZeroExit = errors.New("tool exited with non-zero status")

// Invocation describes one external tool call.
type Invocation struct {
	Path string
	Args []string
	// Dir is the working directory; the repository root for analysis tools.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// Outcome is what an executor captured from a finished call.
type Outcome struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Executor invokes external tools.
type Executor interface {
	Run(ctx context.Context, inv Invocation) (Outcome, error)
}

// ShellExecutor runs tools as child processes.
type ShellExecutor struct{}

// Run executes the invocation and waits for it to finish. A non-zero exit is
// reported as ErrNonZeroExit alongside the captured outcome.
func (ShellExecutor) Run(ctx context.Context, inv Invocation) (Outcome, error) {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir

	if len(inv.Env) > 0 {
		cmd.Env = append(cmd.Environ(), inv.Env...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	outcome := Outcome{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		return outcome, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		outcome.ExitCode = exitErr.ExitCode()

		return outcome, fmt.Errorf("%w: %s exited %d", ErrNonZeroExit, inv.Path, outcome.ExitCode)
	}

	return outcome, fmt.Errorf("run %s: %w", inv.Path, err)
}

// ScriptPath resolves a tool executable against the scripts directory.
// Absolute names are returned unchanged.
func ScriptPath(scriptsDir, name string) string {
	if filepath.IsAbs(name) || scriptsDir == "" {
		return name
	}

	return filepath.Join(scriptsDir, name)
}

// InvocationFor builds the invocation that runs d inside repoDir.
func InvocationFor(d Descriptor, scriptsDir, repoDir string) Invocation {
	args := make([]string, 0, len(d.ScriptParams)+len(d.Params))
	for _, p := range d.ScriptParams {
		args = append(args, ScriptPath(scriptsDir, p))
	}

	return Invocation{
		Path: ScriptPath(scriptsDir, d.Name),
		Args: append(args, d.Params...),
		Dir:  repoDir,
	}
}
