package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/eems/eems"
	"github.com/katalvlaran/eems/snapshot"
)

const kind = "eems.Checkpoint"

func checkpoint() eems.Checkpoint {
	return eems.Checkpoint{
		MSeeds:   []r2.Vec{{X: 0.5, Y: 1}, {X: 2.25, Y: -3}},
		MEffects: []float64{0.1, -0.7},
		QSeeds:   []r2.Vec{{X: 1, Y: 1}},
		QEffects: []float64{0.01},
		MrateMu:  -0.3,
		MrateS2:  0.8,
		QrateS2:  0.02,
		Sigma2:   1.5,
		Df:       12,
		RNG:      []byte{1, 2, 3, 4, 5},
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", snapshot.FileName)
	want := checkpoint()
	require.NoError(t, snapshot.Save(path, kind, want))

	var got eems.Checkpoint
	require.NoError(t, snapshot.Load(path, kind, &got))
	assert.Equal(t, want, got)

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file is renamed away")

	// Overwrite in place.
	want.Df = 13
	require.NoError(t, snapshot.Save(path, kind, want))
	require.NoError(t, snapshot.Load(path, kind, &got))
	assert.Equal(t, 13.0, got.Df)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, snapshot.FileName)
	require.NoError(t, snapshot.Save(path, kind, checkpoint()))

	var cp eems.Checkpoint
	assert.ErrorIs(t, snapshot.Load(path, "other", &cp), snapshot.ErrMismatch)

	err := snapshot.Load(filepath.Join(dir, "missing.zst"), kind, &cp)
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.zst")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.ErrorIs(t, snapshot.Load(empty, kind, &cp), snapshot.ErrHeader)

	garbage := filepath.Join(dir, "garbage.zst")
	require.NoError(t, os.WriteFile(garbage, []byte("not a snapshot\n"), 0o644))
	assert.ErrorIs(t, snapshot.Load(garbage, kind, &cp), snapshot.ErrHeader)
}
