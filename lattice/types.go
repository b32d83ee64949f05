// SPDX-License-Identifier: MIT
// Package: eems/lattice
//
// types.go - Habitat capability, raw Lattice, reindexed Graph.

package lattice

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Habitat is the capability the builder needs from the habitat outline.
// *habitat.Habitat satisfies it.
type Habitat interface {
	// InPoint reports whether (x,y) is inside the habitat.
	InPoint(x, y float64) bool
	// Bounds returns the bounding extents.
	Bounds() (xmin, xmax, ymin, ymax float64)
	// Area returns the enclosed area.
	Area() float64
}

// Edge is an undirected pair of deme indices, stored once per pair.
type Edge struct {
	A, B int
}

// Lattice is the raw output of a Constructor: deme coordinates and edges,
// before sample assignment and reindexing.
type Lattice struct {
	Coords []r2.Vec
	Edges  []Edge
}

// Constructor produces a raw lattice for a habitat.
type Constructor func(h Habitat) (*Lattice, error)

// Graph is the reindexed population graph. Demes [0,NumObserved()) carry
// at least one sample, demes [NumObserved(),NumDemes()) carry none.
// A Graph is immutable once built.
type Graph struct {
	coords   []r2.Vec
	edges    []Edge
	demeOf   []int // sample index → deme index
	sizes    []int // samples per observed deme
	observed int
}

// NumDemes returns the total number of demes.
func (g *Graph) NumDemes() int { return len(g.coords) }

// NumObserved returns the number of demes with at least one sample.
func (g *Graph) NumObserved() int { return g.observed }

// NumEdges returns the number of undirected edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// NumSamples returns the number of assigned samples.
func (g *Graph) NumSamples() int { return len(g.demeOf) }

// Edge returns edge i, or (-1,-1) if i is out of range.
func (g *Graph) Edge(i int) (alpha, beta int) {
	if i < 0 || i >= len(g.edges) {
		return -1, -1
	}
	return g.edges[i].A, g.edges[i].B
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge { return append([]Edge(nil), g.edges...) }

// DemeOf returns the deme of sample i.
func (g *Graph) DemeOf(i int) int { return g.demeOf[i] }

// Assignment returns a copy of the sample → deme map.
func (g *Graph) Assignment() []int { return append([]int(nil), g.demeOf...) }

// Sizes returns a copy of the per-observed-deme sample counts.
func (g *Graph) Sizes() []int { return append([]int(nil), g.sizes...) }

// Coords returns a copy of all deme coordinates.
func (g *Graph) Coords() []r2.Vec { return append([]r2.Vec(nil), g.coords...) }

// ObservedCoords returns the coordinates of the observed demes.
func (g *Graph) ObservedCoords() []r2.Vec {
	return append([]r2.Vec(nil), g.coords[:g.observed]...)
}
