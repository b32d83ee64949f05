// SPDX-License-Identifier: MIT
// Package: eems
//
// draw.go - the sampler's single random stream and the distributions it
// draws from.
//
// Every draw goes through one *rand.PCG owned by the sampler, so a run is
// a pure function of its seed. The PCG state is serializable, which is
// what lets a checkpoint resume the exact stream.

package eems

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// defaultSeed is used when the caller passes seed 0.
const defaultSeed uint64 = 1

// streamFor mixes a seed into the PCG stream selector (SplitMix64 finalizer).
func streamFor(seed uint64) uint64 {
	x := seed + 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// draw serves every random number the sampler consumes.
type draw struct {
	src *rand.PCG
	rng *rand.Rand
}

func newDraw(seed uint64) draw {
	if seed == 0 {
		seed = defaultSeed
	}
	src := rand.NewPCG(seed, streamFor(seed))
	return draw{src: src, rng: rand.New(src)}
}

func (d draw) uniform() float64 { return d.rng.Float64() }

func (d draw) intn(n int) int { return d.rng.IntN(n) }

func (d draw) normal(mu, sd float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sd, Src: d.src}.Rand()
}

// invGamma draws from the inverse gamma with the given shape and scale.
func (d draw) invGamma(shape, scale float64) float64 {
	return 1 / distuv.Gamma{Alpha: shape, Beta: scale, Src: d.src}.Rand()
}

// negBinomial draws a count with log mass logNegBinomial(·, size, prob),
// as a Poisson with gamma-distributed mean.
func (d draw) negBinomial(size, prob float64) int {
	lambda := distuv.Gamma{Alpha: size, Beta: (1 - prob) / prob, Src: d.src}.Rand()
	return int(distuv.Poisson{Lambda: lambda, Src: d.src}.Rand())
}

// truncNormal draws from N(mu, sd²) restricted to [-bound, bound] by
// inverting the CDF on one uniform.
func (d draw) truncNormal(mu, sd, bound float64) float64 {
	n := distuv.Normal{Mu: mu, Sigma: sd}
	lo, hi := n.CDF(-bound), n.CDF(bound)
	x := n.Quantile(lo + d.uniform()*(hi-lo))
	return math.Max(-bound, math.Min(bound, x))
}

// truncNormalLogProb is the log density matching truncNormal.
func truncNormalLogProb(x, mu, sd, bound float64) float64 {
	if math.Abs(x) > bound {
		return math.Inf(-1)
	}
	n := distuv.Normal{Mu: mu, Sigma: sd}
	return n.LogProb(x) - math.Log(n.CDF(bound)-n.CDF(-bound))
}

// logNegBinomial is the log mass of k under the negative binomial with the
// given size and success probability: C(k+size-1, k)·prob^k·(1-prob)^size.
func logNegBinomial(k int, size, prob float64) float64 {
	kf := float64(k)
	a, _ := math.Lgamma(size + kf)
	b, _ := math.Lgamma(size)
	c, _ := math.Lgamma(kf + 1)
	return a - b - c + kf*math.Log(prob) + size*math.Log(1-prob)
}

// logInvGamma is the log density of the inverse gamma(shape, scale) at x.
func logInvGamma(x, shape, scale float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	g, _ := math.Lgamma(shape)
	return shape*math.Log(scale) - g - (shape+1)*math.Log(x) - scale/x
}

// logNormal0 is the log density of N(0, s2) at x, zero outside [-bound, bound].
func logNormal0(x, s2, bound float64) float64 {
	if math.Abs(x) > bound {
		return math.Inf(-1)
	}
	return distuv.Normal{Mu: 0, Sigma: math.Sqrt(s2)}.LogProb(x)
}

// lmvgamma is the log multivariate gamma function Γ_p(a).
func lmvgamma(p int, a float64) float64 {
	out := float64(p*(p-1)) / 4 * math.Log(math.Pi)
	for j := 1; j <= p; j++ {
		g, _ := math.Lgamma(a + float64(1-j)/2)
		out += g
	}
	return out
}
