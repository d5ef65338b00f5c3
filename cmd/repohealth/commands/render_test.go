package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/report"
)

func TestRenderCommand_RefreshesFromCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.run(t)
	require.NoError(t, err)

	require.NoError(t, cache.New(f.out).WriteKPI("aaa1111", "doxygen.sh", "42"))

	cmd := NewRenderCommand()

	var stdout bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{f.out, "--config", f.config, "--theme", "dark"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "dashboard written to")

	m, err := report.LoadManifest(f.out)
	require.NoError(t, err)
	assert.Equal(t, "42", m.Checkouts[0].Results[1].KPI)
	assert.Equal(t, "Test health", m.Title)
}

func TestRenderCommand_NoRefresh_KeepsManifest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.run(t)
	require.NoError(t, err)

	require.NoError(t, cache.New(f.out).WriteKPI("aaa1111", "doxygen.sh", "42"))

	cmd := NewRenderCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{f.out, "--config", f.config, "--refresh=false"})

	require.NoError(t, cmd.Execute())

	m, err := report.LoadManifest(f.out)
	require.NoError(t, err)
	assert.Equal(t, "3", m.Checkouts[0].Results[1].KPI)
}

func TestRenderCommand_NoManifest_ReturnsError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	cmd := NewRenderCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir(), "--config", f.config})

	assert.ErrorIs(t, cmd.Execute(), ErrNoManifest)
}

func TestRenderCommand_Watch_ReRendersOnCacheChange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.run(t)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := buildRenderCommand(clock)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{f.out, "--config", f.config, "--watch", "--debounce", "20ms"})

	done := make(chan error, 1)

	go func() { done <- cmd.ExecuteContext(ctx) }()

	store := cache.New(f.out)

	assert.Eventually(t, func() bool {
		if store.WriteKPI("bbb2222", "doxygen.sh", "77") != nil {
			return false
		}

		m, loadErr := report.LoadManifest(f.out)
		if loadErr != nil {
			return false
		}

		return m.Checkouts[1].Results[1].KPI == "77"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestCacheWatcher_IgnoresNonCacheFiles(t *testing.T) {
	t.Parallel()

	dataDir := filepath.Join(t.TempDir(), "data")

	renders := make(chan struct{}, 10)

	watcher, err := newCacheWatcher(dataDir, 10*time.Millisecond, func() error {
		renders <- struct{}{}

		return nil
	}, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- watcher.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "notes.md"), []byte("x"), 0o600))

	select {
	case <-renders:
		t.Fatal("re-rendered for a non-cache file")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
