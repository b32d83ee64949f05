package tessellation_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/eems/tessellation"
)

func TestNew(t *testing.T) {
	_, err := tessellation.New(nil, nil)
	assert.ErrorIs(t, err, tessellation.ErrEmpty)

	_, err = tessellation.New([]r2.Vec{{X: 1}}, []float64{1, 2})
	assert.ErrorIs(t, err, tessellation.ErrLength)

	seeds := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}}
	effects := []float64{0.5, -0.5}
	tl, err := tessellation.New(seeds, effects)
	require.NoError(t, err)
	seeds[0].X = 99
	effects[0] = 99
	assert.Equal(t, 0.0, tl.Seeds[0].X, "New copies its inputs")
	assert.Equal(t, 0.5, tl.Effects[0])
}

// TestSingleTileRates: one tile covers every deme with its own value.
func TestSingleTileRates(t *testing.T) {
	tl, err := tessellation.New([]r2.Vec{{X: 0.3, Y: 7}}, []float64{-0.25})
	require.NoError(t, err)

	demes := []r2.Vec{{X: 0, Y: 0}, {X: 100, Y: -3}, {X: 0.3, Y: 7}, {X: -50, Y: 50}}
	colors := tl.Colors(demes)
	assert.Equal(t, []int{0, 0, 0, 0}, colors)
	assert.Equal(t, []float64{-0.25, -0.25, -0.25, -0.25}, tl.Rates(colors, nil))

	pow10 := func(e float64) float64 { return math.Pow(10, e) }
	for _, r := range tl.Rates(colors, pow10) {
		assert.InDelta(t, math.Pow(10, -0.25), r, 1e-15)
	}
}

func TestNearest(t *testing.T) {
	tl, err := tessellation.New(
		[]r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}},
		[]float64{1, 2, 3},
	)
	require.NoError(t, err)

	tests := []struct {
		name string
		p    r2.Vec
		want int
	}{
		{"on first seed", r2.Vec{X: 0, Y: 0}, 0},
		{"closer to second", r2.Vec{X: 1.5, Y: 0.1}, 1},
		{"closer to third", r2.Vec{X: 0.1, Y: 1.8}, 2},
		{"tie between first and second", r2.Vec{X: 1, Y: 0}, 0},
		{"tie between second and third", r2.Vec{X: 2, Y: 2}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tl.Nearest(tc.p))
		})
	}

	assert.Equal(t, -1, tessellation.Tessellation{}.Nearest(r2.Vec{}))
}

func TestMutatorsCopy(t *testing.T) {
	base, err := tessellation.New([]r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}}, []float64{0.1, 0.2})
	require.NoError(t, err)
	snap := base.Clone()

	grown := base.Append(r2.Vec{X: 5, Y: 5}, 0.3)
	moved := base.WithSeed(1, r2.Vec{X: 9, Y: 9})
	changed := base.WithEffect(0, -1)
	shrunk, err := base.Remove(0)
	require.NoError(t, err)

	assert.True(t, base.Equal(snap, 0), "receiver must not change")
	assert.Equal(t, 3, grown.Len())
	assert.Equal(t, r2.Vec{X: 9, Y: 9}, moved.Seeds[1])
	assert.Equal(t, -1.0, changed.Effects[0])
	assert.Equal(t, []r2.Vec{{X: 1, Y: 1}}, shrunk.Seeds)
	assert.Equal(t, []float64{0.2}, shrunk.Effects)

	// Appending to a clone must not write into a sibling's backing array.
	a := base.Append(r2.Vec{X: 2}, 2)
	b := base.Append(r2.Vec{X: 3}, 3)
	assert.Equal(t, 2.0, a.Effects[2])
	assert.Equal(t, 3.0, b.Effects[2])

	_, err = base.Remove(2)
	assert.ErrorIs(t, err, tessellation.ErrTileIndex)
	_, err = base.Remove(-1)
	assert.ErrorIs(t, err, tessellation.ErrTileIndex)
}

// TestAppendRemoveRoundTrip: removing the tile just appended restores the
// original tiles exactly.
func TestAppendRemoveRoundTrip(t *testing.T) {
	base, err := tessellation.New(
		[]r2.Vec{{X: 0.2, Y: 0.4}, {X: 1.7, Y: 2.9}, {X: 3.3, Y: 0.1}},
		[]float64{0.05, -0.4, 1.2},
	)
	require.NoError(t, err)

	born := base.Append(r2.Vec{X: 2.5, Y: 2.5}, 0.77)
	back, err := born.Remove(born.Len() - 1)
	require.NoError(t, err)
	assert.True(t, back.Equal(base, 1e-12))
	assert.False(t, born.Equal(base, 1e-12))
}

func TestEqualTolerance(t *testing.T) {
	a, err := tessellation.New([]r2.Vec{{X: 1, Y: 1}}, []float64{0.5})
	require.NoError(t, err)
	b := a.WithEffect(0, 0.5+1e-9)
	assert.True(t, a.Equal(b, 1e-6))
	assert.False(t, a.Equal(b, 1e-12))
}
