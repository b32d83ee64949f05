// SPDX-License-Identifier: MIT
// Package: eems
//
// resistance.go - resistance distances between observed demes and the
// Wishart log-likelihood built on them.
//
// Stages:
//   1. Laplacian of the deme graph weighted by edge migration rates.
//   2. Schur complement onto the observed block: S = L_oo - L_ou·L_uu⁻¹·L_uo.
//      Kron reduction keeps resistance distances between observed demes.
//   3. G = (S + J/o)⁻¹ and R_ab = G_aa + G_bb - 2·G_ab.
//   4. Expected dissimilarities Δ_ij = R_{d(i)d(j)} + (q_{d(i)}+q_{d(j)})/2,
//      their contrasts M = -L·Δ·Lᵀ, then log det M and tr(M⁻¹X).

package eems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/eems/lattice"
)

// resistance returns the o×o resistance distances between observed demes
// for per-deme migration rates. The rate of an edge is the mean of its
// endpoint rates.
// Complexity: O(u³ + u²·o) with u = nDemes - o.
func resistance(g *lattice.Graph, rates []float64) (*mat.SymDense, error) {
	d, o := g.NumDemes(), g.NumObserved()

	// Stage 1: weighted Laplacian.
	lap := mat.NewDense(d, d, nil)
	for i := 0; i < g.NumEdges(); i++ {
		a, b := g.Edge(i)
		w := (rates[a] + rates[b]) / 2
		if !(w > 0) || math.IsInf(w, 1) {
			return nil, fmt.Errorf("edge (%d,%d) has rate %g: %w", a, b, w, ErrNumerical)
		}
		lap.Set(a, a, lap.At(a, a)+w)
		lap.Set(b, b, lap.At(b, b)+w)
		lap.Set(a, b, lap.At(a, b)-w)
		lap.Set(b, a, lap.At(b, a)-w)
	}
	if o == 1 {
		return mat.NewSymDense(1, nil), nil
	}

	// Stage 2: marginalize the unobserved block.
	s := mat.DenseCopyOf(lap.Slice(0, o, 0, o))
	if u := d - o; u > 0 {
		luu := mat.NewSymDense(u, nil)
		for i := 0; i < u; i++ {
			for j := i; j < u; j++ {
				luu.SetSym(i, j, lap.At(o+i, o+j))
			}
		}
		var ch mat.Cholesky
		if !ch.Factorize(luu) {
			return nil, fmt.Errorf("unobserved Laplacian block: %w", ErrNumerical)
		}
		var sol, corr mat.Dense
		if err := ch.SolveTo(&sol, lap.Slice(o, d, 0, o)); err != nil {
			return nil, fmt.Errorf("unobserved Laplacian block: %v: %w", err, ErrNumerical)
		}
		corr.Mul(lap.Slice(0, o, o, d), &sol)
		s.Sub(s, &corr)
	}

	// Stage 3: resistance from the grounded inverse.
	shifted := mat.NewSymDense(o, nil)
	inv := 1 / float64(o)
	for i := 0; i < o; i++ {
		for j := i; j < o; j++ {
			shifted.SetSym(i, j, (s.At(i, j)+s.At(j, i))/2+inv)
		}
	}
	var ch mat.Cholesky
	if !ch.Factorize(shifted) {
		return nil, fmt.Errorf("reduced Laplacian: %w", ErrNumerical)
	}
	var gm mat.SymDense
	if err := ch.InverseTo(&gm); err != nil {
		return nil, fmt.Errorf("reduced Laplacian: %v: %w", err, ErrNumerical)
	}
	r := mat.NewSymDense(o, nil)
	for a := 0; a < o; a++ {
		for b := a + 1; b < o; b++ {
			r.SetSym(a, b, gm.At(a, a)+gm.At(b, b)-2*gm.At(a, b))
		}
	}
	return r, nil
}

// fit computes log det(M) and tr(M⁻¹X) for resistance r and per-deme
// diversity rates q, with M the contrasts of the expected dissimilarities.
func (c *contrasts) fit(r *mat.SymDense, q []float64, demeOf []int) (trDelta, ldDelta float64, err error) {
	delta := func(i, j int) float64 {
		if i == j {
			return 0
		}
		a, b := demeOf[i], demeOf[j]
		return r.At(a, b) + (q[a]+q[b])/2
	}
	m := contrast(c.n, delta)

	var ch mat.Cholesky
	if !ch.Factorize(m) {
		return 0, 0, fmt.Errorf("expected dissimilarity contrasts: %w", ErrNumerical)
	}
	var y mat.Dense
	if err := ch.SolveTo(&y, c.x); err != nil {
		return 0, 0, fmt.Errorf("expected dissimilarity contrasts: %v: %w", err, ErrNumerical)
	}
	trDelta, ldDelta = mat.Trace(&y), ch.LogDet()
	if math.IsNaN(trDelta) || math.IsInf(trDelta, 0) || math.IsNaN(ldDelta) || math.IsInf(ldDelta, 0) {
		return 0, 0, fmt.Errorf("trace %g, log det %g: %w", trDelta, ldDelta, ErrNumerical)
	}
	return trDelta, ldDelta, nil
}

// logLik is the log density of X under Wishart(df, σ²/df·M) over the n-1
// contrasts, plus (m+1)/2·log det(L·Lᵀ) so that the value does not depend
// on the choice of contrast matrix.
func (c *contrasts) logLik(trDelta, ldDelta, sigma2, df float64) float64 {
	mi := c.n - 1
	m := float64(mi)
	return (df-m-1)/2*c.ldX -
		df/(2*sigma2)*trDelta -
		df*m/2*math.Ln2 -
		df/2*(m*math.Log(sigma2/df)+ldDelta) -
		lmvgamma(mi, df/2) +
		(m+1)/2*c.ldLLt
}
