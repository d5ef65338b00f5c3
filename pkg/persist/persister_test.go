package persist_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repohealth/pkg/persist"
)

type persisterState struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

func TestPersister_SaveLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := persist.NewPersister[persisterState]("mystate", persist.NewJSONCodec())

	require.NoError(t, p.Save(dir, &persisterState{Label: "hello", Value: 42}))
	require.NoError(t, p.Save(dir, &persisterState{Label: "again", Value: 7}))

	restored, err := p.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, persisterState{Label: "again", Value: 7}, *restored)
	assert.Equal(t, filepath.Join(dir, "mystate.json"), p.Path(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPersister_Load_Missing(t *testing.T) {
	t.Parallel()

	p := persist.NewPersister[persisterState]("absent", persist.NewJSONCodec())

	_, err := p.Load(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadState_Corrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o600))

	var state persisterState

	assert.Error(t, persist.LoadState(dir, "bad", persist.NewJSONCodec(), &state))
}

func TestJSONCodec_CompactWhenNoIndent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, persist.SaveState(dir, "compact", &persist.JSONCodec{}, persisterState{Label: "a", Value: 1}))

	data, err := os.ReadFile(filepath.Join(dir, "compact.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"a","value":1}`, string(data))
	assert.Equal(t, "{\"label\":\"a\",\"value\":1}\n", string(data))
}
