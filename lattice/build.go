// SPDX-License-Identifier: MIT
// Package: eems/lattice
//
// build.go - sample assignment, reindexing and the Build pipeline.

package lattice

import (
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/eems/tableio"
)

// Assign maps every sample to its Euclidean-nearest deme. Ties go to the
// lowest deme index (first minimum found). The result is a pure function
// of the inputs.
// Complexity: O(n·V).
func (l *Lattice) Assign(samples []r2.Vec) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		best, bestD := -1, 0.0
		for j, d := range l.Coords {
			dist := r2.Norm2(r2.Sub(d, s))
			if best < 0 || dist < bestD {
				best, bestD = j, dist
			}
		}
		out[i] = best
	}
	return out
}

// Reindex renumbers the demes so that those holding samples come first,
// in the order their samples are first met, followed by the remaining demes
// in their original order. Coordinates, edges, and the assignment are
// remapped; per-deme sample counts are computed for the observed block.
func Reindex(l *Lattice, demeOf []int) (*Graph, error) {
	n := len(l.Coords)
	for i, e := range l.Edges {
		if e.A < 0 || e.A >= n || e.B < 0 || e.B >= n {
			return nil, fmt.Errorf("Reindex: edge %d (%d,%d): %w", i, e.A, e.B, ErrEdgeIndex)
		}
	}
	for i, d := range demeOf {
		if d < 0 || d >= n {
			return nil, fmt.Errorf("Reindex: sample %d → deme %d: %w", i, d, ErrSampleIndex)
		}
	}

	newIndex := make([]int, n)
	for i := range newIndex {
		newIndex[i] = -1
	}
	g := &Graph{demeOf: make([]int, len(demeOf))}
	for i, alpha := range demeOf {
		if newIndex[alpha] == -1 {
			newIndex[alpha] = g.observed
			g.observed++
		}
		g.demeOf[i] = newIndex[alpha]
	}
	g.sizes = make([]int, g.observed)
	for _, d := range g.demeOf {
		g.sizes[d]++
	}
	next := g.observed
	for i := range newIndex {
		if newIndex[i] == -1 {
			newIndex[i] = next
			next++
		}
	}

	g.coords = make([]r2.Vec, n)
	for i, c := range l.Coords {
		g.coords[newIndex[i]] = c
	}
	g.edges = make([]Edge, len(l.Edges))
	for i, e := range l.Edges {
		g.edges[i] = Edge{A: newIndex[e.A], B: newIndex[e.B]}
	}
	return g, nil
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	logger *slog.Logger
}

// WithLogger routes progress messages to logger. Panics on nil.
func WithLogger(logger *slog.Logger) Option {
	if logger == nil {
		panic("lattice: WithLogger(nil)")
	}
	return func(c *buildConfig) { c.logger = logger }
}

// Build runs the whole pipeline: construct the lattice, check that it is
// connected, assign the samples, and reindex. A disconnected lattice stops
// the pipeline before the samples are assigned.
func Build(h Habitat, samples []r2.Vec, construct Constructor, opts ...Option) (*Graph, error) {
	cfg := buildConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	lat, err := construct(h)
	if err != nil {
		return nil, err
	}
	if err := lat.CheckConnected(); err != nil {
		return nil, err
	}
	g, err := Reindex(lat, lat.Assign(samples))
	if err != nil {
		return nil, err
	}

	cfg.logger.Info("population grid ready",
		"demes", g.NumDemes(), "edges", g.NumEdges(),
		"samples", g.NumSamples(), "observed", g.NumObserved())
	return g, nil
}

// LoadSamples reads the nIndiv×2 sample coordinate table at path
// (conventionally <datapath>.coord).
func LoadSamples(path string, nIndiv int) ([]r2.Vec, error) {
	rows, err := tableio.ReadShape(path, nIndiv, 2)
	if err != nil {
		return nil, fmt.Errorf("lattice: list of locations, two coordinates per row: %w", err)
	}
	out := make([]r2.Vec, len(rows))
	for i, r := range rows {
		out[i] = r2.Vec{X: r[0], Y: r[1]}
	}
	return out, nil
}
