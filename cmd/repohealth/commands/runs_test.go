package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repohealth/pkg/ledger"
)

func TestRunsCommand_ListsAndShowsRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.run(t)
	require.NoError(t, err)

	l, err := ledger.Open(filepath.Join(f.out, "ledger.db"))
	require.NoError(t, err)

	runs, err := l.Runs(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.Len(t, runs, 1)

	cmd := buildRunsCommand(clock)

	var stdout bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{f.out, "--config", f.config})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), runs[0].ID)
	assert.Contains(t, stdout.String(), "testing")

	show := buildRunsCommand(clock)
	stdout.Reset()

	show.SetOut(&stdout)
	show.SetErr(&bytes.Buffer{})
	show.SetArgs([]string{"show", runs[0].ID, f.out, "--config", f.config})

	require.NoError(t, show.Execute())
	assert.Contains(t, stdout.String(), "HEAD~1")
	assert.Contains(t, stdout.String(), "bbb2222")
	assert.Contains(t, stdout.String(), "failed")
}

func TestRunsShow_UnknownRun_ReturnsError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	cmd := buildRunsCommand(clock)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"show", "nope", "--config", f.config, "--ledger", filepath.Join(t.TempDir(), "ledger.db")})

	assert.ErrorIs(t, cmd.Execute(), ledger.ErrRunNotFound)
}
