// SPDX-License-Identifier: MIT
// Package: eems
//
// sampler.go - sampler state, construction, initialization, and the prior.

package eems

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/eems/config"
	"github.com/katalvlaran/eems/lattice"
	"github.com/katalvlaran/eems/tessellation"
)

// Habitat is what the sampler needs from the habitat outline.
// *habitat.Habitat satisfies it.
type Habitat interface {
	InPoint(x, y float64) bool
	Bounds() (xmin, xmax, ymin, ymax float64)
	Area() float64
	RandomPoint(rng *rand.Rand) (x, y float64)
}

var errOutsideSupport = errors.New("state outside the prior support")

// layer selects one of the two surfaces.
type layer int

const (
	migration layer = iota
	diversity
)

func (l layer) String() string {
	if l == migration {
		return "migration"
	}
	return "diversity"
}

// surface is the state of one tessellation.
type surface struct {
	tiles  tessellation.Tessellation
	colors []int   // deme → tile
	rateS2 float64 // prior variance of the effects
}

// state is one complete sampler state. Slices and matrices reachable from
// a state are never written after the state is built, so copying a state
// by value is safe.
type state struct {
	surf    [2]surface
	mrateMu float64
	sigma2  float64
	df      float64

	resist  *mat.SymDense // observed-deme resistance distances
	trDelta float64       // tr(M⁻¹X)
	ldDelta float64       // log det(M)

	pi, ll float64
}

// kernel holds the per-surface tuning constants.
type kernel struct {
	seedS2, effctS2 float64
	half            float64
	shape, scale    float64
}

// Sampler is the reversible-jump MCMC sampler over the migration and
// diversity tessellations. It is not safe for concurrent use.
type Sampler struct {
	graph  *lattice.Graph
	hab    Habitat
	params config.Params
	logger *slog.Logger

	draw   draw
	data   *contrasts
	demes  []r2.Vec
	demeOf []int
	area   float64
	xspan  float64
	yspan  float64
	kern   [2]kernel

	st    state
	ready bool
	gen   uint64 // bumped on every state change

	traces Traces
}

// Option configures New.
type Option func(*Sampler)

// WithSeed seeds the random stream. Seed 0 selects the default seed.
func WithSeed(seed uint64) Option {
	return func(s *Sampler) { s.draw = newDraw(seed) }
}

// WithLogger routes sampler messages to logger. Panics on nil.
func WithLogger(logger *slog.Logger) Option {
	if logger == nil {
		panic("eems: WithLogger(nil)")
	}
	return func(s *Sampler) { s.logger = logger }
}

// New prepares a sampler for the population graph g, the habitat h, and
// the dissimilarity matrix diffs (one row per sample, in sample order).
// The state is drawn later by Initialize or loaded by Restore.
func New(g *lattice.Graph, h Habitat, diffs *mat.SymDense, p config.Params, opts ...Option) (*Sampler, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("eems.New: %w", err)
	}
	n := diffs.SymmetricDim()
	if n != g.NumSamples() {
		return nil, fmt.Errorf("eems.New: %d samples in the grid, %d in the dissimilarity matrix: %w",
			g.NumSamples(), n, ErrDimension)
	}
	if n != p.NIndiv {
		return nil, fmt.Errorf("eems.New: nIndiv = %d, dissimilarity matrix is %dx%d: %w", p.NIndiv, n, n, ErrDimension)
	}
	data, err := newContrasts(diffs)
	if err != nil {
		return nil, fmt.Errorf("eems.New: %w", err)
	}

	xmin, xmax, ymin, ymax := h.Bounds()
	s := &Sampler{
		graph:  g,
		hab:    h,
		params: p,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		draw:   newDraw(p.Seed),
		data:   data,
		demes:  g.Coords(),
		demeOf: g.Assignment(),
		area:   h.Area(),
		xspan:  xmax - xmin,
		yspan:  ymax - ymin,
	}
	s.kern[migration] = kernel{
		seedS2: p.MSeedsProposalS2, effctS2: p.MEffctProposalS2, half: p.MEffctHalfInterval,
		shape: p.MrateShape2, scale: p.MrateScale2,
	}
	s.kern[diversity] = kernel{
		seedS2: p.QSeedsProposalS2, effctS2: p.QEffctProposalS2, half: p.QEffctHalfInterval,
		shape: p.QrateShape2, scale: p.QrateScale2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize draws a fresh state: negative binomial tile counts (at least
// one), uniform seeds, inverse gamma effect scales, truncated normal effects,
// a uniform mean log migration rate, df = dfMin and sigma2 ~ IG(3, 1).
func (s *Sampler) Initialize() error {
	o := float64(s.graph.NumObserved())
	var st state
	counts := [2]int{}
	for l := range counts {
		counts[l] = max(1, s.draw.negBinomial(2*o, 0.5))
	}
	for l := range st.surf {
		seeds := make([]r2.Vec, counts[l])
		for i := range seeds {
			seeds[i].X, seeds[i].Y = s.hab.RandomPoint(s.draw.rng)
		}
		st.surf[l].tiles.Seeds = seeds
	}
	for l := range st.surf {
		st.surf[l].rateS2 = s.draw.invGamma(0.5, 0.5)
	}
	st.mrateMu = s.params.MrateMuHalfInterval * (2*s.draw.uniform() - 1)
	for l := range st.surf {
		k := s.kern[l]
		sd := math.Sqrt(st.surf[l].rateS2)
		effects := make([]float64, counts[l])
		for i := range effects {
			effects[i] = s.draw.truncNormal(0, sd, k.half)
		}
		st.surf[l].tiles.Effects = effects
	}
	st.df = s.params.DfMin
	st.sigma2 = s.draw.invGamma(3, 1)

	if err := s.settle(&st); err != nil {
		return fmt.Errorf("eems.Initialize: %w", err)
	}
	s.commit(st)
	s.logger.Info("sampler initialized", "state", s.Status())
	return nil
}

// settle recomputes every derived quantity of st from its parameters.
func (s *Sampler) settle(st *state) error {
	for l := range st.surf {
		st.surf[l].colors = st.surf[l].tiles.Colors(s.demes)
	}
	if err := s.refit(st, true); err != nil {
		return err
	}
	st.pi = s.logPrior(st)
	if math.IsInf(st.pi, -1) {
		return errOutsideSupport
	}
	st.ll = s.data.logLik(st.trDelta, st.ldDelta, st.sigma2, st.df)
	return nil
}

// refit recomputes the likelihood caches of st. Resistance distances are
// only recomputed when the migration surface changed.
func (s *Sampler) refit(st *state, migrationChanged bool) error {
	if migrationChanged {
		rates := s.rates(st, migration)
		r, err := resistance(s.graph, rates)
		if err != nil {
			return err
		}
		st.resist = r
	}
	q := s.rates(st, diversity)[:s.graph.NumObserved()]
	tr, ld, err := s.data.fit(st.resist, q, s.demeOf)
	if err != nil {
		return err
	}
	st.trDelta, st.ldDelta = tr, ld
	return nil
}

// rates returns the per-deme rates of one surface: 10^(effect + mrateMu)
// for migration, 10^effect for diversity.
func (s *Sampler) rates(st *state, l layer) []float64 {
	shift := 0.0
	if l == migration {
		shift = st.mrateMu
	}
	sf := &st.surf[l]
	return sf.tiles.Rates(sf.colors, func(e float64) float64 { return math.Pow(10, e+shift) })
}

// logPrior evaluates the log prior of st. Any parameter outside its
// support yields -Inf.
func (s *Sampler) logPrior(st *state) float64 {
	p := s.params
	if math.Abs(st.mrateMu) > p.MrateMuHalfInterval {
		return math.Inf(-1)
	}
	if st.df < p.DfMin || st.df > p.DfMax {
		return math.Inf(-1)
	}
	pi := -math.Log(2*p.MrateMuHalfInterval) - math.Log(st.df) +
		logInvGamma(st.sigma2, p.SigmaShape2, p.SigmaScale2)

	logArea := math.Log(s.area)
	for l := range st.surf {
		sf, k := &st.surf[l], s.kern[l]
		for _, seed := range sf.tiles.Seeds {
			if !s.hab.InPoint(seed.X, seed.Y) {
				return math.Inf(-1)
			}
		}
		for _, e := range sf.tiles.Effects {
			pi += logNormal0(e, sf.rateS2, k.half)
		}
		tiles := sf.tiles.Len()
		pi += logNegBinomial(tiles, p.NegBiSize, p.NegBiProb) - float64(tiles)*logArea +
			logInvGamma(sf.rateS2, k.shape, k.scale)
	}
	return pi
}

// commit replaces the current state.
func (s *Sampler) commit(st state) {
	s.st = st
	s.ready = true
	s.gen++
}

// UpdateSigma2 draws sigma2 from its full conditional
// IG(sigmaShape + df·(n-1)/2, sigmaScale + df·tr(M⁻¹X)/2).
func (s *Sampler) UpdateSigma2() {
	if !s.ready {
		return
	}
	st := s.st
	m := float64(s.data.n - 1)
	st.sigma2 = s.draw.invGamma(
		s.params.SigmaShape2+st.df*m/2,
		s.params.SigmaScale2+st.df*st.trDelta/2,
	)
	st.pi = s.logPrior(&st)
	st.ll = s.data.logLik(st.trDelta, st.ldDelta, st.sigma2, st.df)
	s.commit(st)
}

// UpdateHyperparams draws both effect variances from their full
// conditionals IG(shape + K/2, scale + Σe²/2).
func (s *Sampler) UpdateHyperparams() {
	if !s.ready {
		return
	}
	st := s.st
	for l := range st.surf {
		sf, k := &st.surf[l], s.kern[l]
		e := sf.tiles.Effects
		sf.rateS2 = s.draw.invGamma(k.shape+float64(len(e))/2, k.scale+floats.Dot(e, e)/2)
	}
	st.pi = s.logPrior(&st)
	s.commit(st)
}
