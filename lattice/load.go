// SPDX-License-Identifier: MIT
// Package: eems/lattice
//
// load.go - externally supplied lattice (demes + edges tables).
//
// Contract:
//   • <gridpath>.demes is an nDemes×2 table of coordinates.
//   • <gridpath>.edges is an nEdges×2 table of 1-based deme indices.
//   • (a,b) and (b,a) describe the same edge; only the first is kept.
//   • Every index must lie in [1,nDemes]; self-loops are rejected.
//   • The lattice need not be triangular, only connected.

package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/eems/tableio"
)

const methodLoad = "Load"

// Load returns a Constructor that reads the lattice stored under gridpath.
// The habitat is not consulted.
func Load(gridpath string) Constructor {
	return func(Habitat) (*Lattice, error) {
		demesPath, edgesPath := gridpath+".demes", gridpath+".edges"
		demes, err := tableio.ReadShape(demesPath, -1, 2)
		if err != nil {
			return nil, fmt.Errorf("%s: list of demes, two coordinates per row: %w", methodLoad, err)
		}
		edges, err := tableio.ReadShape(edgesPath, -1, 2)
		if err != nil {
			return nil, fmt.Errorf("%s: list of connected demes, one pair per row: %w", methodLoad, err)
		}
		lat, err := FromTables(demes, edges)
		if err != nil {
			return nil, fmt.Errorf("%s: check %s: %w", methodLoad, edgesPath, err)
		}
		return lat, nil
	}
}

// FromTables builds a Lattice from an nDemes×2 coordinate table and an
// nEdges×2 table of 1-based edge indices. Duplicate edges are dropped.
func FromTables(demes, edges [][]float64) (*Lattice, error) {
	if len(demes) == 0 {
		return nil, ErrEmptyLattice
	}
	lat := &Lattice{Coords: make([]r2.Vec, len(demes))}
	for i, d := range demes {
		lat.Coords[i] = r2.Vec{X: d[0], Y: d[1]}
	}

	n := len(demes)
	seen := make(map[Edge]struct{}, len(edges))
	for i, e := range edges {
		a, okA := oneBased(e[0], n)
		b, okB := oneBased(e[1], n)
		if !okA || !okB {
			return nil, fmt.Errorf("row %d (%g,%g) not in [1,%d]: %w", i+1, e[0], e[1], n, ErrEdgeIndex)
		}
		if a == b {
			return nil, fmt.Errorf("row %d (%d,%d): %w", i+1, a+1, b+1, ErrSelfLoop)
		}
		key := Edge{A: min(a, b), B: max(a, b)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		lat.Edges = append(lat.Edges, Edge{A: a, B: b})
	}

	return lat, nil
}

// oneBased converts a 1-based table value into a 0-based index.
func oneBased(v float64, n int) (int, bool) {
	if v != math.Trunc(v) || v < 1 || v > float64(n) {
		return -1, false
	}
	return int(v) - 1, true
}
