// SPDX-License-Identifier: MIT
// Package: eems
//
// traces.go - per-iteration sampled output and its plain-text files.

package eems

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/katalvlaran/eems/tableio"
)

// Trace file names written by WriteTraces.
const (
	MHyperFile = "mcmcmhyper.txt" // mrateMu mrateS2
	QHyperFile = "mcmcqhyper.txt" // qrateS2
	ThetasFile = "mcmcthetas.txt" // sigma2 df
	PiLogLFile = "mcmcpilogl.txt" // log prior, log likelihood
	MTilesFile = "mcmcmtiles.txt"
	QTilesFile = "mcmcqtiles.txt"
	MRatesFile = "mcmcmrates.txt"
	QRatesFile = "mcmcqrates.txt"
	XCoordFile = "mcmcxcoord.txt" // migration seeds
	YCoordFile = "mcmcycoord.txt"
	WCoordFile = "mcmcwcoord.txt" // diversity seeds
	ZCoordFile = "mcmczcoord.txt"
)

// Traces accumulates one entry per saved iteration. The fixed-size traces
// hold one row per iteration; the variable-length traces hold one row per
// iteration with one value per tile.
type Traces struct {
	MHyper [][]float64 // mrateMu, mrateS2
	QHyper [][]float64 // qrateS2
	Thetas [][]float64 // sigma2, df
	PiLogL [][]float64 // log prior, log likelihood
	MTiles []int
	QTiles []int

	MRates [][]float64 // 10^(effect + mrateMu) per migration tile
	QRates [][]float64 // 10^effect per diversity tile
	XCoord [][]float64
	YCoord [][]float64
	WCoord [][]float64
	ZCoord [][]float64
}

// Len returns the number of saved iterations.
func (t *Traces) Len() int { return len(t.PiLogL) }

// SaveIteration appends the current state to the traces.
func (s *Sampler) SaveIteration() {
	if !s.ready {
		return
	}
	st, t := &s.st, &s.traces
	m, q := &st.surf[migration], &st.surf[diversity]

	t.MHyper = append(t.MHyper, []float64{st.mrateMu, m.rateS2})
	t.QHyper = append(t.QHyper, []float64{q.rateS2})
	t.Thetas = append(t.Thetas, []float64{st.sigma2, st.df})
	t.PiLogL = append(t.PiLogL, []float64{st.pi, st.ll})
	t.MTiles = append(t.MTiles, m.tiles.Len())
	t.QTiles = append(t.QTiles, q.tiles.Len())

	t.MRates = append(t.MRates, tileRates(m.tiles.Effects, st.mrateMu))
	t.QRates = append(t.QRates, tileRates(q.tiles.Effects, 0))
	xs, ys := splitSeeds(m)
	t.XCoord, t.YCoord = append(t.XCoord, xs), append(t.YCoord, ys)
	ws, zs := splitSeeds(q)
	t.WCoord, t.ZCoord = append(t.WCoord, ws), append(t.ZCoord, zs)
}

func tileRates(effects []float64, shift float64) []float64 {
	out := make([]float64, len(effects))
	for i, e := range effects {
		out[i] = math.Pow(10, e+shift)
	}
	return out
}

func splitSeeds(sf *surface) (xs, ys []float64) {
	xs = make([]float64, sf.tiles.Len())
	ys = make([]float64, sf.tiles.Len())
	for i, p := range sf.tiles.Seeds {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// Traces returns the traces saved so far. The result is shared with the
// sampler and must not be modified.
func (s *Sampler) Traces() *Traces { return &s.traces }

// WriteTraces writes every trace into dir, one file per trace. Values are
// written in the shortest form that reads back exactly.
func (s *Sampler) WriteTraces(dir string) error {
	t := &s.traces
	floatsFiles := []struct {
		name string
		rows [][]float64
	}{
		{MHyperFile, t.MHyper},
		{QHyperFile, t.QHyper},
		{ThetasFile, t.Thetas},
		{PiLogLFile, t.PiLogL},
		{MRatesFile, t.MRates},
		{QRatesFile, t.QRates},
		{XCoordFile, t.XCoord},
		{YCoordFile, t.YCoord},
		{WCoordFile, t.WCoord},
		{ZCoordFile, t.ZCoord},
	}
	for _, f := range floatsFiles {
		if err := tableio.WriteFloats(filepath.Join(dir, f.name), f.rows, -1); err != nil {
			return fmt.Errorf("eems.WriteTraces: %w", err)
		}
	}
	intFiles := []struct {
		name   string
		counts []int
	}{
		{MTilesFile, t.MTiles},
		{QTilesFile, t.QTiles},
	}
	for _, f := range intFiles {
		rows := make([][]int, len(f.counts))
		for i, c := range f.counts {
			rows[i] = []int{c}
		}
		if err := tableio.WriteInts(filepath.Join(dir, f.name), rows); err != nil {
			return fmt.Errorf("eems.WriteTraces: %w", err)
		}
	}
	return nil
}
