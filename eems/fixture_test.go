package eems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/eems/config"
	"github.com/katalvlaran/eems/habitat"
	"github.com/katalvlaran/eems/lattice"
)

// fixtureSamples are eight distinct sample locations in a 4×3 box.
var fixtureSamples = []r2.Vec{
	{X: 0.2, Y: 0.3}, {X: 0.4, Y: 0.1}, {X: 1.9, Y: 0.4}, {X: 3.6, Y: 0.2},
	{X: 3.8, Y: 2.7}, {X: 2.1, Y: 2.2}, {X: 0.6, Y: 2.8}, {X: 1.2, Y: 1.4},
}

// fixtureDiffs returns 1 + |x_i - x_j| off the diagonal. Euclidean
// distances between distinct points are strictly conditionally negative
// definite, so the contrasts are positive definite.
func fixtureDiffs(pts []r2.Vec) *mat.SymDense {
	n := len(pts)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, 1+r2.Norm(r2.Sub(pts[i], pts[j])))
		}
	}
	return d
}

func fixtureParams() config.Params {
	p := config.Default()
	p.DataPath = "fixture"
	p.MCMCPath = "fixture"
	p.NIndiv = len(fixtureSamples)
	p.NSites = 200
	p.NDemes = 12
	p.NumMCMCIter = 100
	p.NumBurnIter = 10
	p.Seed = 7
	p.ResolveDefaults()
	return p
}

type fixture struct {
	hab   *habitat.Habitat
	graph *lattice.Graph
	diffs *mat.SymDense
	p     config.Params
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	h, err := habitat.Rectangle(0, 0, 4, 3)
	require.NoError(t, err)
	g, err := lattice.Build(h, fixtureSamples, lattice.Triangular(12))
	require.NoError(t, err)
	return fixture{hab: h, graph: g, diffs: fixtureDiffs(fixtureSamples), p: fixtureParams()}
}

// sampler returns an initialized sampler for the fixture.
func (f fixture) sampler(t *testing.T, opts ...Option) *Sampler {
	t.Helper()
	s, err := New(f.graph, f.hab, f.diffs, f.p, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Initialize())
	return s
}

// step runs one full iteration the way the outer loop does.
func step(s *Sampler) {
	s.Accept(s.Propose(s.ChooseMove()))
	s.Accept(s.ProposeDf())
	s.UpdateHyperparams()
	s.UpdateSigma2()
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
