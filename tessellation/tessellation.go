// SPDX-License-Identifier: MIT

// Package tessellation holds one Voronoi tessellation of the habitat: an
// ordered list of tiles, each a seed point with a scalar effect on log10
// scale. Every deme is covered by the tile whose seed is nearest to it.
//
// Tessellations are values. Every mutator returns a new Tessellation and
// leaves its receiver untouched, so a candidate state can be built from the
// committed one without aliasing it.
//
// Coverage is a flat scan over all seeds: O(tiles·points). Tile counts are
// small next to deme counts, so no spatial index is used.
package tessellation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrEmpty indicates a tessellation without tiles.
	ErrEmpty = errors.New("tessellation: at least one tile is required")

	// ErrLength indicates seeds and effects of different lengths.
	ErrLength = errors.New("tessellation: seeds and effects differ in length")

	// ErrTileIndex indicates a tile index out of range.
	ErrTileIndex = errors.New("tessellation: tile index out of range")
)

// Tessellation is a list of (seed, effect) tiles.
type Tessellation struct {
	Seeds   []r2.Vec
	Effects []float64
}

// New returns a tessellation owning copies of seeds and effects.
func New(seeds []r2.Vec, effects []float64) (Tessellation, error) {
	if len(seeds) != len(effects) {
		return Tessellation{}, fmt.Errorf("%d seeds, %d effects: %w", len(seeds), len(effects), ErrLength)
	}
	if len(seeds) == 0 {
		return Tessellation{}, ErrEmpty
	}
	return Tessellation{Seeds: seeds, Effects: effects}.Clone(), nil
}

// Len returns the number of tiles.
func (t Tessellation) Len() int { return len(t.Seeds) }

// Clone returns a deep copy.
func (t Tessellation) Clone() Tessellation {
	return Tessellation{
		Seeds:   append(make([]r2.Vec, 0, len(t.Seeds)+1), t.Seeds...),
		Effects: append(make([]float64, 0, len(t.Effects)+1), t.Effects...),
	}
}

// Append returns a copy with one more tile at the end.
func (t Tessellation) Append(seed r2.Vec, effect float64) Tessellation {
	c := t.Clone()
	c.Seeds = append(c.Seeds, seed)
	c.Effects = append(c.Effects, effect)
	return c
}

// Remove returns a copy without tile i. The remaining tiles keep their order.
func (t Tessellation) Remove(i int) (Tessellation, error) {
	if i < 0 || i >= t.Len() {
		return Tessellation{}, fmt.Errorf("remove %d of %d: %w", i, t.Len(), ErrTileIndex)
	}
	c := Tessellation{
		Seeds:   make([]r2.Vec, 0, t.Len()-1),
		Effects: make([]float64, 0, t.Len()-1),
	}
	c.Seeds = append(append(c.Seeds, t.Seeds[:i]...), t.Seeds[i+1:]...)
	c.Effects = append(append(c.Effects, t.Effects[:i]...), t.Effects[i+1:]...)
	return c, nil
}

// WithSeed returns a copy with tile i moved to seed.
func (t Tessellation) WithSeed(i int, seed r2.Vec) Tessellation {
	c := t.Clone()
	c.Seeds[i] = seed
	return c
}

// WithEffect returns a copy with tile i carrying effect.
func (t Tessellation) WithEffect(i int, effect float64) Tessellation {
	c := t.Clone()
	c.Effects[i] = effect
	return c
}

// Nearest returns the index of the seed nearest to p. Exact ties go to
// the earliest seed. Returns -1 for an empty tessellation.
func (t Tessellation) Nearest(p r2.Vec) int {
	best, bestD := -1, math.Inf(1)
	for i, s := range t.Seeds {
		if d := r2.Norm2(r2.Sub(s, p)); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Colors maps every point to the index of its covering tile.
func (t Tessellation) Colors(points []r2.Vec) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = t.Nearest(p)
	}
	return out
}

// Rates returns, for each colored point, f applied to its tile's effect.
// A nil f returns the effects themselves.
func (t Tessellation) Rates(colors []int, f func(effect float64) float64) []float64 {
	out := make([]float64, len(colors))
	for i, c := range colors {
		v := t.Effects[c]
		if f != nil {
			v = f(v)
		}
		out[i] = v
	}
	return out
}

// Equal reports whether o has the same tiles, in the same order, within tol.
func (t Tessellation) Equal(o Tessellation, tol float64) bool {
	if t.Len() != o.Len() || len(t.Effects) != len(o.Effects) {
		return false
	}
	for i := range t.Seeds {
		if math.Abs(t.Seeds[i].X-o.Seeds[i].X) > tol ||
			math.Abs(t.Seeds[i].Y-o.Seeds[i].Y) > tol ||
			math.Abs(t.Effects[i]-o.Effects[i]) > tol {
			return false
		}
	}
	return true
}
