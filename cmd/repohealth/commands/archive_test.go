package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveCommand_PacksAndLists(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.run(t)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "report.tar.lz4")

	cmd := NewArchiveCommand()

	var stdout bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{f.out, "--config", f.config, "-o", dst})

	require.NoError(t, cmd.Execute())
	require.FileExists(t, dst)
	assert.Contains(t, stdout.String(), "files")

	list := NewArchiveCommand()
	stdout.Reset()

	list.SetOut(&stdout)
	list.SetErr(&bytes.Buffer{})
	list.SetArgs([]string{"--list", dst})

	require.NoError(t, list.Execute())
	assert.Contains(t, stdout.String(), "index.html")
	assert.Contains(t, stdout.String(), "data/aaa1111/aaa1111-doxygen.tar.xz")
}

func TestArchiveCommand_NotADashboard_ReturnsError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	cmd := NewArchiveCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir(), "--config", f.config})

	assert.ErrorIs(t, cmd.Execute(), ErrNotADashboard)
}
