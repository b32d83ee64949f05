// Package eems implements the reversible-jump MCMC sampler behind
// Estimated Effective Migration Surfaces.
//
// Two piecewise-constant surfaces live on the habitat, each a Voronoi
// tessellation whose tile count, seeds, and effects are all sampled:
//
//   - migration: deme a has rate m_a = 10^(effect + mrateMu);
//   - diversity: deme a has rate q_a = 10^effect.
//
// Model:
//
//	Edge (a,b) has migration rate (m_a + m_b)/2. Resistance distances R
//	between observed demes come from the weighted Laplacian, with the
//	unobserved demes removed by a Schur complement. Samples i ≠ j have
//	expected dissimilarity Δ_ij = R_{d(i)d(j)} + (q_{d(i)} + q_{d(j)})/2.
//	With L = [-1 | I], the observed contrasts -L·D·Lᵀ follow a Wishart
//	with df degrees of freedom and scale σ²/df·(-L·Δ·Lᵀ).
//
// Iteration protocol (driven by package mcmc):
//
//	move := s.ChooseMove()
//	s.Accept(s.Propose(move))
//	s.Accept(s.ProposeDf())
//	s.UpdateHyperparams()
//	s.UpdateSigma2()
//	s.SaveIteration() // at the thinning cadence
//
// Propose never modifies the committed state; Accept replaces it as a
// whole, caches included. A proposal whose likelihood cannot be evaluated
// carries ErrNumerical in Proposal.Err and is rejected.
//
// Determinism:
//
//	All randomness comes from one PCG stream owned by the sampler and seeded
//	with WithSeed (or Params.Seed). The same seed, inputs, and call sequence
//	give bit-identical traces. Checkpoint stores the stream state.
//
// Complexity per proposal: O(u³ + n³) for u unobserved demes and n samples,
// with resistance distances reused by moves on the diversity surface and
// by df moves.
package eems
