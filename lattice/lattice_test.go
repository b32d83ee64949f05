package lattice_test

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/eems/habitat"
	"github.com/katalvlaran/eems/lattice"
)

// boxHabitat is a rectangle whose containment rule can be overridden.
type boxHabitat struct {
	xmin, xmax, ymin, ymax float64
	inside                 func(x, y float64) bool
}

func (b boxHabitat) InPoint(x, y float64) bool {
	if b.inside != nil {
		return b.inside(x, y)
	}
	return true
}

func (b boxHabitat) Bounds() (float64, float64, float64, float64) {
	return b.xmin, b.xmax, b.ymin, b.ymax
}

func (b boxHabitat) Area() float64 { return (b.xmax - b.xmin) * (b.ymax - b.ymin) }

// requireUniquePairs fails if an unordered pair appears twice.
func requireUniquePairs(t *testing.T, edges []lattice.Edge) {
	t.Helper()
	seen := map[[2]int]bool{}
	for _, e := range edges {
		key := [2]int{min(e.A, e.B), max(e.A, e.B)}
		require.False(t, seen[key], "duplicate edge %v", e)
		require.NotEqual(t, e.A, e.B, "self-loop %v", e)
		seen[key] = true
	}
}

//----------------------------------------------------------------------------//
// Triangular
//----------------------------------------------------------------------------//

// TestTriangular_FullGrid builds the 4×3 lattice of a 4×3 box at density 12.
//
//	row 2:  o───o───o───o
//	         \ / \ / \ / \
//	row 1:    o───o───o───o
//	         / \ / \ / \ /
//	row 0:  o───o───o───o
//
// 9 horizontal edges + 7 between each pair of rows = 23.
func TestTriangular_FullGrid(t *testing.T) {
	h := boxHabitat{0, 4, 0, 3, nil}
	lat, err := lattice.Triangular(12)(h)
	require.NoError(t, err)
	require.Len(t, lat.Coords, 12)
	require.Len(t, lat.Edges, 23)
	requireUniquePairs(t, lat.Edges)

	// Odd rows are shifted half a column to the right.
	scalex := 4 / 3.5
	assert.InDelta(t, 0.0, lat.Coords[0].X, 1e-12)
	assert.InDelta(t, 0.5*scalex, lat.Coords[4].X, 1e-12)
	assert.InDelta(t, 1.5, lat.Coords[4].Y, 1e-12)

	// Canonical direction: lower raw index first.
	for _, e := range lat.Edges {
		assert.Less(t, e.A, e.B)
	}
	require.NoError(t, lat.CheckConnected())
}

// TestTriangular_ClipsToHabitat keeps only inside nodes and edges.
func TestTriangular_ClipsToHabitat(t *testing.T) {
	h, err := habitat.Rectangle(0, 0, 10, 10)
	require.NoError(t, err)
	// Keep the lower-left triangle only.
	clipped := boxHabitat{0, 10, 0, 10, func(x, y float64) bool { return h.InPoint(x, y) && x+y <= 10 }}

	lat, err := lattice.Triangular(25)(clipped)
	require.NoError(t, err)
	require.NotEmpty(t, lat.Edges)
	requireUniquePairs(t, lat.Edges)
	for _, c := range lat.Coords {
		assert.True(t, clipped.InPoint(c.X, c.Y), "deme %v outside", c)
	}
	for _, e := range lat.Edges {
		a, b := lat.Coords[e.A], lat.Coords[e.B]
		assert.True(t, clipped.InPoint(a.X, a.Y) && clipped.InPoint(b.X, b.Y))
	}
}

func TestTriangular_Errors(t *testing.T) {
	h := boxHabitat{0, 4, 0, 3, nil}
	_, err := lattice.Triangular(0)(h)
	require.ErrorIs(t, err, lattice.ErrBadDensity)

	// A very flat box yields zero rows.
	flat := boxHabitat{0, 100, 0, 0.01, nil}
	_, err = lattice.Triangular(1)(flat)
	require.ErrorIs(t, err, lattice.ErrEmptyLattice)

	nowhere := boxHabitat{0, 4, 0, 3, func(float64, float64) bool { return false }}
	_, err = lattice.Triangular(12)(nowhere)
	require.ErrorIs(t, err, lattice.ErrEmptyLattice)
}

//----------------------------------------------------------------------------//
// Loaded lattices
//----------------------------------------------------------------------------//

func TestFromTables_Dedup(t *testing.T) {
	demes := [][]float64{{0, 0}, {1, 0}, {2, 0}}
	edges := [][]float64{{1, 2}, {2, 1}, {2, 3}, {1, 2}, {3, 2}}
	lat, err := lattice.FromTables(demes, edges)
	require.NoError(t, err)
	require.Equal(t, []lattice.Edge{{A: 0, B: 1}, {A: 1, B: 2}}, lat.Edges)
}

func TestFromTables_Errors(t *testing.T) {
	demes := [][]float64{{0, 0}, {1, 0}}
	cases := []struct {
		name  string
		edges [][]float64
		err   error
	}{
		{"ZeroIndex", [][]float64{{0, 1}}, lattice.ErrEdgeIndex},
		{"TooLarge", [][]float64{{1, 3}}, lattice.ErrEdgeIndex},
		{"Fractional", [][]float64{{1, 1.5}}, lattice.ErrEdgeIndex},
		{"SelfLoop", [][]float64{{2, 2}}, lattice.ErrSelfLoop},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lattice.FromTables(demes, tc.edges)
			require.ErrorIs(t, err, tc.err)
		})
	}
	_, err := lattice.FromTables(nil, nil)
	require.ErrorIs(t, err, lattice.ErrEmptyLattice)
}

func TestLoad_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	grid := filepath.Join(dir, "grid")
	require.NoError(t, os.WriteFile(grid+".demes", []byte("0 0\n1 0\n"), 0o644))
	require.NoError(t, os.WriteFile(grid+".edges", []byte("1 2 3\n"), 0o644))
	_, err := lattice.Load(grid)(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), grid+".edges")

	require.NoError(t, os.WriteFile(grid+".edges", []byte("1 5\n"), 0o644))
	_, err = lattice.Load(grid)(nil)
	require.ErrorIs(t, err, lattice.ErrEdgeIndex)
	require.Contains(t, err.Error(), grid+".edges")
}

//----------------------------------------------------------------------------//
// Connectivity
//----------------------------------------------------------------------------//

func TestCheckConnected(t *testing.T) {
	lat := &lattice.Lattice{
		Coords: []r2.Vec{{X: 0}, {X: 1}, {X: 5}, {X: 6}},
		Edges:  []lattice.Edge{{A: 0, B: 1}, {A: 2, B: 3}},
	}
	err := lat.CheckConnected()
	require.ErrorIs(t, err, lattice.ErrDisconnected)
	var dg *lattice.DisconnectedGraphError
	require.True(t, errors.As(err, &dg))
	require.Equal(t, 2, dg.Components)
	require.Equal(t, 4, dg.Demes)

	lat.Edges = append(lat.Edges, lattice.Edge{A: 1, B: 2})
	require.NoError(t, lat.CheckConnected())

	// An isolated deme is its own component.
	lat.Coords = append(lat.Coords, r2.Vec{X: 9})
	require.ErrorIs(t, lat.CheckConnected(), lattice.ErrDisconnected)
}

//----------------------------------------------------------------------------//
// Assignment and reindexing
//----------------------------------------------------------------------------//

func TestAssign_NearestFirstMinimum(t *testing.T) {
	lat := &lattice.Lattice{Coords: []r2.Vec{{X: 0}, {X: 2}, {X: 4}}}
	samples := []r2.Vec{{X: 1}, {X: 3.9}, {X: -5}, {X: 3}}
	got := lat.Assign(samples)
	// x=1 and x=3 are equidistant: the lower index wins.
	require.Equal(t, []int{0, 2, 0, 1}, got)
	require.Equal(t, got, lat.Assign(samples), "assignment must be idempotent")
}

func TestReindex(t *testing.T) {
	lat := &lattice.Lattice{
		Coords: []r2.Vec{{X: 0}, {X: 1}, {X: 2}, {X: 3}},
		Edges:  []lattice.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}},
	}
	g, err := lattice.Reindex(lat, []int{2, 2, 0})
	require.NoError(t, err)

	require.Equal(t, 2, g.NumObserved())
	require.Equal(t, 4, g.NumDemes())
	require.Equal(t, []int{0, 0, 1}, g.Assignment())
	require.Equal(t, []int{2, 1}, g.Sizes())
	require.Equal(t, []r2.Vec{{X: 2}, {X: 0}, {X: 1}, {X: 3}}, g.Coords())
	require.Equal(t, []lattice.Edge{{A: 1, B: 2}, {A: 2, B: 0}, {A: 0, B: 3}}, g.Edges())
	require.Equal(t, []r2.Vec{{X: 2}, {X: 0}}, g.ObservedCoords())

	a, b := g.Edge(7)
	require.Equal(t, [2]int{-1, -1}, [2]int{a, b})

	_, err = lattice.Reindex(lat, []int{4})
	require.ErrorIs(t, err, lattice.ErrSampleIndex)
}

// TestBuild_ObservedBlock checks the observed/unobserved partition on a
// generated lattice with scattered samples.
func TestBuild_ObservedBlock(t *testing.T) {
	h, err := habitat.Rectangle(0, 0, 6, 4)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(7, 11))
	samples := make([]r2.Vec, 25)
	for i := range samples {
		samples[i] = r2.Vec{X: 6 * rng.Float64(), Y: 4 * rng.Float64()}
	}

	g, err := lattice.Build(h, samples, lattice.Triangular(6))
	require.NoError(t, err)

	counts := make([]int, g.NumDemes())
	for i := 0; i < g.NumSamples(); i++ {
		counts[g.DemeOf(i)]++
	}
	for d := 0; d < g.NumDemes(); d++ {
		if d < g.NumObserved() {
			assert.Positive(t, counts[d], "observed deme %d has no samples", d)
			assert.Equal(t, counts[d], g.Sizes()[d])
		} else {
			assert.Zero(t, counts[d], "unobserved deme %d has samples", d)
		}
	}

	again, err := lattice.Build(h, samples, lattice.Triangular(6))
	require.NoError(t, err)
	require.Equal(t, g.Assignment(), again.Assignment())

	_, err = lattice.Build(h, nil, lattice.Triangular(6))
	require.ErrorIs(t, err, lattice.ErrNoSamples)
}

// TestBuild_DisconnectedLatticeWritesNothing is the two-island scenario: a
// loaded lattice with two components must fail before any output exists.
func TestBuild_DisconnectedLatticeWritesNothing(t *testing.T) {
	h, err := habitat.Rectangle(0, 0, 3, 3)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 3))
	samples := make([]r2.Vec, 10)
	for i := range samples {
		samples[i] = r2.Vec{X: 3 * rng.Float64(), Y: 3 * rng.Float64()}
	}

	// A generated 4×3 lattice over a 4×3 box is connected.
	_, err = lattice.Build(boxHabitat{0, 4, 0, 3, nil}, samples, lattice.Triangular(12))
	require.NoError(t, err)

	in := t.TempDir()
	grid := filepath.Join(in, "islands")
	require.NoError(t, os.WriteFile(grid+".demes", []byte("0.5 0.5\n1 0.5\n2 2.5\n2.5 2.5\n"), 0o644))
	require.NoError(t, os.WriteFile(grid+".edges", []byte("1 2\n2 1\n3 4\n"), 0o644))

	out := t.TempDir()
	g, err := lattice.Build(h, samples, lattice.Load(grid))
	require.ErrorIs(t, err, lattice.ErrDisconnected)
	require.Nil(t, g)
	if g != nil {
		_ = g.WriteGrid(out)
	}
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWriteGrid(t *testing.T) {
	lat := &lattice.Lattice{
		Coords: []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0.5}},
		Edges:  []lattice.Edge{{A: 0, B: 1}},
	}
	g, err := lattice.Reindex(lat, []int{1, 1})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, g.WriteGrid(dir))

	read := func(name string) string {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return string(raw)
	}
	require.Equal(t, "1\n1\n", read(lattice.IPMapFile))
	require.Equal(t, "1.000000 0.500000\n0.000000 0.000000\n", read(lattice.DemesFile))
	require.Equal(t, "2 1\n", read(lattice.EdgesFile))

	require.Error(t, g.WriteGrid(filepath.Join(dir, "missing")))
}

func TestLoadSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.coord")
	require.NoError(t, os.WriteFile(path, []byte("0 0\n1 1\n"), 0o644))
	s, err := lattice.LoadSamples(path, 2)
	require.NoError(t, err)
	require.Equal(t, []r2.Vec{{}, {X: 1, Y: 1}}, s)

	_, err = lattice.LoadSamples(path, 3)
	require.Error(t, err)
	require.Contains(t, err.Error(), path)
}
