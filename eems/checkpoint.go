// SPDX-License-Identifier: MIT
// Package: eems
//
// checkpoint.go - resumable sampler state and run status.

package eems

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/eems/tessellation"
)

// Checkpoint is everything needed to resume a chain: both tessellations,
// the hyperparameters, and the state of the random stream. Derived
// quantities are recomputed on Restore.
type Checkpoint struct {
	MSeeds   []r2.Vec
	MEffects []float64
	QSeeds   []r2.Vec
	QEffects []float64

	MrateMu float64
	MrateS2 float64
	QrateS2 float64
	Sigma2  float64
	Df      float64

	// RNG is the marshaled PCG state.
	RNG []byte
}

// Checkpoint captures the current state.
func (s *Sampler) Checkpoint() (Checkpoint, error) {
	if !s.ready {
		return Checkpoint{}, ErrNotInitialized
	}
	rng, err := s.draw.src.MarshalBinary()
	if err != nil {
		return Checkpoint{}, fmt.Errorf("eems.Checkpoint: %w", err)
	}
	st := &s.st
	m, q := st.surf[migration].tiles.Clone(), st.surf[diversity].tiles.Clone()
	return Checkpoint{
		MSeeds: m.Seeds, MEffects: m.Effects,
		QSeeds: q.Seeds, QEffects: q.Effects,
		MrateMu: st.mrateMu,
		MrateS2: st.surf[migration].rateS2,
		QrateS2: st.surf[diversity].rateS2,
		Sigma2:  st.sigma2,
		Df:      st.df,
		RNG:     rng,
	}, nil
}

// Restore replaces the current state with cp and recomputes every derived
// quantity. A checkpoint without RNG state keeps the current stream.
func (s *Sampler) Restore(cp Checkpoint) error {
	var st state
	var err error
	if st.surf[migration].tiles, err = tessellation.New(cp.MSeeds, cp.MEffects); err != nil {
		return fmt.Errorf("eems.Restore: migration tiles: %v: %w", err, ErrCheckpoint)
	}
	if st.surf[diversity].tiles, err = tessellation.New(cp.QSeeds, cp.QEffects); err != nil {
		return fmt.Errorf("eems.Restore: diversity tiles: %v: %w", err, ErrCheckpoint)
	}
	st.surf[migration].rateS2 = cp.MrateS2
	st.surf[diversity].rateS2 = cp.QrateS2
	st.mrateMu, st.sigma2, st.df = cp.MrateMu, cp.Sigma2, cp.Df

	if err := s.settle(&st); err != nil {
		return fmt.Errorf("eems.Restore: %v: %w", err, ErrCheckpoint)
	}
	if len(cp.RNG) > 0 {
		if err := s.draw.src.UnmarshalBinary(cp.RNG); err != nil {
			return fmt.Errorf("eems.Restore: random stream: %v: %w", err, ErrCheckpoint)
		}
	}
	s.commit(st)
	s.logger.Info("sampler restored", "state", s.Status())
	return nil
}

// Status summarizes the current state.
type Status struct {
	MTiles        int
	QTiles        int
	MrateMu       float64
	Sigma2        float64
	Df            float64
	LogPrior      float64
	LogLikelihood float64
}

// LogValue implements slog.LogValuer.
func (st Status) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("mtiles", st.MTiles),
		slog.Int("qtiles", st.QTiles),
		slog.Float64("mrateMu", st.MrateMu),
		slog.Float64("sigma2", st.Sigma2),
		slog.Float64("df", st.Df),
		slog.Float64("pi", st.LogPrior),
		slog.Float64("ll", st.LogLikelihood),
	)
}

// Status returns a summary of the current state.
func (s *Sampler) Status() Status {
	st := &s.st
	return Status{
		MTiles:        st.surf[migration].tiles.Len(),
		QTiles:        st.surf[diversity].tiles.Len(),
		MrateMu:       st.mrateMu,
		Sigma2:        st.sigma2,
		Df:            st.df,
		LogPrior:      st.pi,
		LogLikelihood: st.ll,
	}
}

// Tessellations returns copies of the migration and diversity tessellations.
func (s *Sampler) Tessellations() (m, q tessellation.Tessellation) {
	return s.st.surf[migration].tiles.Clone(), s.st.surf[diversity].tiles.Clone()
}

// Rates returns the current per-deme migration and diversity rates.
func (s *Sampler) Rates() (m, q []float64) {
	return s.rates(&s.st, migration), s.rates(&s.st, diversity)
}

// checkLogLik recomputes the log-likelihood of the committed state from
// scratch and returns the absolute difference to the cached value.
func (s *Sampler) checkLogLik() (float64, error) {
	st := s.st
	if err := s.refit(&st, true); err != nil {
		return math.NaN(), err
	}
	ll := s.data.logLik(st.trDelta, st.ldDelta, st.sigma2, st.df)
	return math.Abs(ll - s.st.ll), nil
}
