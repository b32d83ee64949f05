// SPDX-License-Identifier: MIT
// Package: eems/lattice
//
// connectivity.go - single-component check on the deme lattice.

package lattice

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Components returns the connected components of the lattice as slices of
// deme indices. Isolated demes form singleton components.
// Returns ErrEdgeIndex or ErrSelfLoop for malformed edges.
// Complexity: O(V + E).
func (l *Lattice) Components() ([][]int, error) {
	g := simple.NewUndirectedGraph()
	for i := range l.Coords {
		g.AddNode(simple.Node(i))
	}
	n := len(l.Coords)
	for i, e := range l.Edges {
		if e.A < 0 || e.A >= n || e.B < 0 || e.B >= n {
			return nil, fmt.Errorf("edge %d (%d,%d) with %d demes: %w", i, e.A, e.B, n, ErrEdgeIndex)
		}
		if e.A == e.B {
			return nil, fmt.Errorf("edge %d (%d,%d): %w", i, e.A, e.B, ErrSelfLoop)
		}
		g.SetEdge(g.NewEdge(simple.Node(e.A), simple.Node(e.B)))
	}

	comps := topo.ConnectedComponents(g)
	out := make([][]int, len(comps))
	for i, c := range comps {
		ids := make([]int, len(c))
		for j, node := range c {
			ids[j] = int(node.ID())
		}
		out[i] = ids
	}
	return out, nil
}

// CheckConnected returns nil iff the lattice is one connected component.
// A split lattice yields a *DisconnectedGraphError.
func (l *Lattice) CheckConnected() error {
	if len(l.Coords) == 0 {
		return ErrEmptyLattice
	}
	comps, err := l.Components()
	if err != nil {
		return err
	}
	if len(comps) != 1 {
		return &DisconnectedGraphError{Components: len(comps), Demes: len(l.Coords)}
	}
	return nil
}
