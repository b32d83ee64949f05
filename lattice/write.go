// SPDX-License-Identifier: MIT
// Package: eems/lattice
//
// write.go - lattice and assignment output for downstream plotting.
//
// Files (all indices 1-based, as plotting tools expect):
//   • ipmap.txt  one deme index per sample.
//   • demes.txt  deme coordinates, fixed 6 decimals.
//   • edges.txt  one 1-based edge per row.

package lattice

import (
	"path/filepath"

	"github.com/katalvlaran/eems/tableio"
)

// Output file names written by WriteGrid.
const (
	IPMapFile = "ipmap.txt"
	DemesFile = "demes.txt"
	EdgesFile = "edges.txt"
)

const coordDecimals = 6

// WriteGrid writes ipmap.txt, demes.txt and edges.txt into dir.
// I/O errors name the failing path.
func (g *Graph) WriteGrid(dir string) error {
	ipmap := make([][]int, len(g.demeOf))
	for i, d := range g.demeOf {
		ipmap[i] = []int{d + 1}
	}
	if err := tableio.WriteInts(filepath.Join(dir, IPMapFile), ipmap); err != nil {
		return err
	}

	demes := make([][]float64, len(g.coords))
	for i, c := range g.coords {
		demes[i] = []float64{c.X, c.Y}
	}
	if err := tableio.WriteFloats(filepath.Join(dir, DemesFile), demes, coordDecimals); err != nil {
		return err
	}

	edges := make([][]int, len(g.edges))
	for i, e := range g.edges {
		edges[i] = []int{e.A + 1, e.B + 1}
	}
	return tableio.WriteInts(filepath.Join(dir, EdgesFile), edges)
}
