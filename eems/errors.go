// SPDX-License-Identifier: MIT
// Package: eems
//
// errors.go - sentinel errors for the sampler.
//
// Error policy:
//   • Construction and restore failures are returned wrapped with "%w".
//   • ErrNumerical never escapes a proposal: a candidate whose likelihood
//     cannot be evaluated carries it in Proposal.Err and is rejected.

package eems

import "errors"

var (
	// ErrDiffs indicates a dissimilarity matrix that is not square, not
	// symmetric, has a non-zero diagonal, or whose contrasts are not
	// positive definite.
	ErrDiffs = errors.New("eems: invalid dissimilarity matrix")

	// ErrDimension indicates inputs of mismatched sizes.
	ErrDimension = errors.New("eems: dimension mismatch")

	// ErrNumerical indicates a likelihood term that could not be evaluated
	// (a non positive definite intermediate matrix or a non-finite rate).
	ErrNumerical = errors.New("eems: numerical failure")

	// ErrNotInitialized indicates a sampler used before Initialize or Restore.
	ErrNotInitialized = errors.New("eems: sampler state not initialized")

	// ErrCheckpoint indicates a checkpoint that cannot be restored.
	ErrCheckpoint = errors.New("eems: invalid checkpoint")
)
