// SPDX-License-Identifier: MIT
// Package: eems/lattice
//
// errors.go - sentinel errors for the lattice package.
//
// Error policy:
//   • Validation failures return sentinels wrapped with "%w" and the
//     offending file or index, so callers branch with errors.Is.
//   • The topology failure is a typed error carrying the component count.

package lattice

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyLattice indicates a lattice with no demes.
	ErrEmptyLattice = errors.New("lattice: no demes inside the habitat")

	// ErrBadDensity indicates a deme density below one.
	ErrBadDensity = errors.New("lattice: deme density must be at least 1")

	// ErrEdgeIndex indicates an edge endpoint outside the deme range.
	ErrEdgeIndex = errors.New("lattice: edge index out of range")

	// ErrSelfLoop indicates an edge from a deme to itself.
	ErrSelfLoop = errors.New("lattice: edge joins a deme to itself")

	// ErrSampleIndex indicates a sample assigned outside the deme range.
	ErrSampleIndex = errors.New("lattice: sample assignment out of range")

	// ErrNoSamples indicates that no sample coordinates were supplied.
	ErrNoSamples = errors.New("lattice: no samples")

	// ErrDisconnected indicates the lattice has more than one connected component.
	ErrDisconnected = errors.New("lattice: the population grid is not connected")
)

// DisconnectedGraphError reports a lattice that splits into several
// connected components. It matches ErrDisconnected under errors.Is.
type DisconnectedGraphError struct {
	// Components is the number of connected components found.
	Components int
	// Demes is the total number of demes in the lattice.
	Demes int
}

// Error implements the error interface.
func (e *DisconnectedGraphError) Error() string {
	return fmt.Sprintf("lattice: the population grid is not connected (%d components over %d demes)",
		e.Components, e.Demes)
}

// Is lets errors.Is(err, ErrDisconnected) succeed.
func (e *DisconnectedGraphError) Is(target error) bool {
	return target == ErrDisconnected
}
