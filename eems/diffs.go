// SPDX-License-Identifier: MIT
// Package: eems
//
// diffs.go - the observed dissimilarity matrix and its contrasts.
//
// The likelihood never looks at D directly. It uses the n-1 contrasts
// X = -L·D·Lᵀ with L = [-1 | I], whose log-determinant is fixed for the
// whole run and cached here together with log det(L·Lᵀ) = log n.

package eems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/eems/tableio"
)

// symTol bounds |D_ij - D_ji| relative to the largest entry.
const symTol = 1e-8

// ReadDiffs reads the n×n dissimilarity table at path (conventionally
// <datapath>.diffs) and checks that it is symmetric with a zero diagonal
// and non-negative entries.
func ReadDiffs(path string, n int) (*mat.SymDense, error) {
	rows, err := tableio.ReadShape(path, n, n)
	if err != nil {
		return nil, fmt.Errorf("eems: matrix of average pairwise differences: %w", err)
	}
	d, err := NewDiffs(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// NewDiffs validates rows as a dissimilarity matrix and returns it.
func NewDiffs(rows [][]float64) (*mat.SymDense, error) {
	n := len(rows)
	if n < 2 {
		return nil, fmt.Errorf("%d samples, need at least 2: %w", n, ErrDiffs)
	}
	peak := 0.0
	for i, r := range rows {
		if len(r) != n {
			return nil, fmt.Errorf("row %d has %d entries, want %d: %w", i+1, len(r), n, ErrDiffs)
		}
		for j, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("entry (%d,%d) = %g: %w", i+1, j+1, v, ErrDiffs)
			}
			peak = math.Max(peak, v)
		}
	}
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if rows[i][i] != 0 {
			return nil, fmt.Errorf("diagonal entry %d = %g, want 0: %w", i+1, rows[i][i], ErrDiffs)
		}
		for j := i + 1; j < n; j++ {
			if math.Abs(rows[i][j]-rows[j][i]) > symTol*math.Max(peak, 1) {
				return nil, fmt.Errorf("entries (%d,%d) and (%d,%d) differ: %w", i+1, j+1, j+1, i+1, ErrDiffs)
			}
			d.SetSym(i, j, (rows[i][j]+rows[j][i])/2)
		}
	}
	return d, nil
}

// contrasts holds the fixed data side of the likelihood.
type contrasts struct {
	n     int           // samples
	x     *mat.SymDense // -L·D·Lᵀ, (n-1)×(n-1)
	ldX   float64       // log det(-L·D·Lᵀ)
	ldLLt float64       // log det(L·Lᵀ)
}

// contrast fills the (n-1)×(n-1) matrix -L·A·Lᵀ from a function giving A's
// entries, with L = [-1 | I].
func contrast(n int, a func(i, j int) float64) *mat.SymDense {
	m := n - 1
	out := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			out.SetSym(i, j, a(i+1, 0)+a(0, j+1)-a(i+1, j+1))
		}
	}
	return out
}

func newContrasts(d *mat.SymDense) (*contrasts, error) {
	n := d.SymmetricDim()
	x := contrast(n, d.At)
	var ch mat.Cholesky
	if !ch.Factorize(x) {
		return nil, fmt.Errorf("-L·Diffs·Lᵀ is not positive definite: %w", ErrDiffs)
	}
	return &contrasts{n: n, x: x, ldX: ch.LogDet(), ldLLt: math.Log(float64(n))}, nil
}
