// SPDX-License-Identifier: MIT
// Package: eems
//
// proposal.go - the move repertoire and the accept/reject step.
//
// Each move is one pure function building a candidate state from the
// committed one; Accept is the only place that replaces the committed
// state. Birth and death are each other's inverse: a birth appends a tile
// whose effect is drawn around the effect of the nearest existing tile,
// and a death removes a uniformly chosen tile, scoring its effect around
// the nearest remaining tile.

package eems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MoveType names one kind of proposal.
type MoveType int

// The proposal repertoire.
const (
	MoveMEffect MoveType = iota // update one migration tile effect
	MoveQEffect                 // update one diversity tile effect
	MoveMrateMu                 // update the mean log migration rate
	MoveMSeed                   // move one migration seed
	MoveQSeed                   // move one diversity seed
	MoveMBirth                  // add a migration tile
	MoveMDeath                  // remove a migration tile
	MoveQBirth                  // add a diversity tile
	MoveQDeath                  // remove a diversity tile
	MoveDf                      // update the degrees of freedom
	numMoves
)

// NumMoves is the number of move kinds, for per-move accounting.
const NumMoves = int(numMoves)

var moveNames = [...]string{
	MoveMEffect: "mEffect",
	MoveQEffect: "qEffect",
	MoveMrateMu: "mrateMu",
	MoveMSeed:   "mSeed",
	MoveQSeed:   "qSeed",
	MoveMBirth:  "mBirth",
	MoveMDeath:  "mDeath",
	MoveQBirth:  "qBirth",
	MoveQDeath:  "qDeath",
	MoveDf:      "df",
}

// String returns the short move name.
func (m MoveType) String() string {
	if m < 0 || m >= numMoves {
		return "unknown"
	}
	return moveNames[m]
}

// layer returns the surface a move acts on.
func (m MoveType) layer() layer {
	switch m {
	case MoveQEffect, MoveQSeed, MoveQBirth, MoveQDeath:
		return diversity
	default:
		return migration
	}
}

// touchesMigration reports whether resistance distances must be recomputed.
func (m MoveType) touchesMigration() bool {
	switch m {
	case MoveMEffect, MoveMrateMu, MoveMSeed, MoveMBirth, MoveMDeath:
		return true
	default:
		return false
	}
}

// Proposal is a candidate state together with the terms of its
// Metropolis–Hastings ratio. It is only meaningful for the sampler that
// built it and only until that sampler's state changes.
type Proposal struct {
	Move MoveType
	// Tile is the affected tile index, or -1.
	Tile int
	// LogRatio is the log proposal-density ratio q(old|new)/q(new|old),
	// including the dimension-matching term of birth and death.
	LogRatio float64
	// LogPrior and LogLikelihood of the candidate state.
	LogPrior      float64
	LogLikelihood float64
	// Err is set when the candidate's likelihood could not be evaluated.
	Err error

	next state
	gen  uint64
}

// ChooseMove draws the next move: birth/death, seed move, effect update
// (each with probability 1/4, on the diversity surface with probability
// qVoronoiPr) or a mean-rate update (1/4). Birth and death are equally likely.
func (s *Sampler) ChooseMove() MoveType {
	u1, u2 := s.draw.uniform(), s.draw.uniform()
	q := u2 < s.params.QVoronoiPr
	pick := func(m, qm MoveType) MoveType {
		if q {
			return qm
		}
		return m
	}
	switch {
	case u1 < 0.25:
		if s.draw.uniform() < 0.5 {
			return pick(MoveMBirth, MoveQBirth)
		}
		return pick(MoveMDeath, MoveQDeath)
	case u1 < 0.5:
		return pick(MoveMSeed, MoveQSeed)
	case u1 < 0.75:
		return pick(MoveMEffect, MoveQEffect)
	default:
		return MoveMrateMu
	}
}

// Propose builds and scores a candidate for move. The committed state is
// not modified. It returns nil before Initialize or Restore.
func (s *Sampler) Propose(move MoveType) *Proposal {
	if !s.ready {
		return nil
	}
	p := &Proposal{Move: move, Tile: -1, next: s.st, gen: s.gen}
	switch move {
	case MoveMEffect, MoveQEffect:
		s.proposeEffect(p, move.layer())
	case MoveMSeed, MoveQSeed:
		s.proposeSeed(p, move.layer())
	case MoveMBirth, MoveQBirth:
		s.proposeBirth(p, move.layer())
	case MoveMDeath, MoveQDeath:
		s.proposeDeath(p, move.layer())
	case MoveMrateMu:
		p.next.mrateMu = s.draw.normal(s.st.mrateMu, math.Sqrt(s.params.MrateMuProposalS2))
	case MoveDf:
		p.next.df = s.draw.normal(s.st.df, math.Sqrt(s.params.DfProposalS2))
	default:
		p.LogRatio = math.Inf(-1)
	}
	s.evaluate(p)
	return p
}

// ProposeDf builds a random-walk proposal on the degrees of freedom.
func (s *Sampler) ProposeDf() *Proposal { return s.Propose(MoveDf) }

func (s *Sampler) proposeEffect(p *Proposal, l layer) {
	sf := &p.next.surf[l]
	i := s.draw.intn(sf.tiles.Len())
	e := s.draw.normal(sf.tiles.Effects[i], math.Sqrt(s.kern[l].effctS2))
	sf.tiles = sf.tiles.WithEffect(i, e)
	p.Tile = i
}

func (s *Sampler) proposeSeed(p *Proposal, l layer) {
	sf := &p.next.surf[l]
	i := s.draw.intn(sf.tiles.Len())
	sd := math.Sqrt(s.kern[l].seedS2)
	old := sf.tiles.Seeds[i]
	seed := r2.Vec{
		X: s.draw.normal(old.X, sd*s.xspan),
		Y: s.draw.normal(old.Y, sd*s.yspan),
	}
	sf.tiles = sf.tiles.WithSeed(i, seed)
	sf.colors = sf.tiles.Colors(s.demes)
	p.Tile = i
}

func (s *Sampler) proposeBirth(p *Proposal, l layer) {
	sf, k := &p.next.surf[l], s.kern[l]
	var seed r2.Vec
	seed.X, seed.Y = s.hab.RandomPoint(s.draw.rng)
	near := sf.tiles.Effects[sf.tiles.Nearest(seed)]
	sd := math.Sqrt(k.effctS2)
	e := s.draw.truncNormal(near, sd, k.half)

	sf.tiles = sf.tiles.Append(seed, e)
	sf.colors = sf.tiles.Colors(s.demes)
	p.Tile = sf.tiles.Len() - 1
	p.LogRatio = math.Log(s.area) - truncNormalLogProb(e, near, sd, k.half)
}

func (s *Sampler) proposeDeath(p *Proposal, l layer) {
	sf := &p.next.surf[l]
	if sf.tiles.Len() == 1 {
		p.LogRatio = math.Inf(-1)
		return
	}
	s.removeTile(p, l, s.draw.intn(sf.tiles.Len()))
}

// removeTile fills p with the death of tile i.
func (s *Sampler) removeTile(p *Proposal, l layer, i int) {
	sf, k := &p.next.surf[l], s.kern[l]
	seed, e := sf.tiles.Seeds[i], sf.tiles.Effects[i]
	rest, err := sf.tiles.Remove(i)
	if err != nil {
		p.LogRatio = math.Inf(-1)
		return
	}
	near := rest.Effects[rest.Nearest(seed)]

	sf.tiles = rest
	sf.colors = sf.tiles.Colors(s.demes)
	p.Tile = i
	p.LogRatio = truncNormalLogProb(e, near, math.Sqrt(k.effctS2), k.half) - math.Log(s.area)
}

// evaluate fills the prior and likelihood of the candidate. A candidate
// with zero proposal or prior density is not fitted. A fitting failure
// is recorded in p.Err with a -Inf likelihood.
func (s *Sampler) evaluate(p *Proposal) {
	if math.IsInf(p.LogRatio, -1) {
		p.LogPrior, p.LogLikelihood = math.Inf(-1), math.Inf(-1)
		return
	}
	next := &p.next
	next.pi = s.logPrior(next)
	p.LogPrior = next.pi
	if math.IsInf(next.pi, -1) {
		next.ll, p.LogLikelihood = math.Inf(-1), math.Inf(-1)
		return
	}
	if p.Move != MoveDf {
		if err := s.refit(next, p.Move.touchesMigration()); err != nil {
			p.Err = err
			next.ll, p.LogLikelihood = math.Inf(-1), math.Inf(-1)
			return
		}
	}
	next.ll = s.data.logLik(next.trDelta, next.ldDelta, next.sigma2, next.df)
	p.LogLikelihood = next.ll
}

// Accept draws one uniform and accepts p with probability
// min(1, exp(LogRatio + ΔlogPrior + ΔlogLikelihood)). On acceptance the
// whole candidate state, caches included, replaces the committed state.
// Proposals that failed to evaluate, have zero density, or were built
// before the last state change are rejected.
func (s *Sampler) Accept(p *Proposal) bool {
	u := s.draw.uniform()
	if p == nil || !s.ready || p.gen != s.gen || p.Err != nil {
		return false
	}
	ratio := p.LogRatio + (p.next.pi - s.st.pi) + (p.next.ll - s.st.ll)
	if math.IsNaN(ratio) || math.IsInf(ratio, -1) {
		return false
	}
	if math.Log(u) < math.Min(0, ratio) {
		s.commit(p.next)
		return true
	}
	return false
}
