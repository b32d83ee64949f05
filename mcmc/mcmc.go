// SPDX-License-Identifier: MIT

// Package mcmc drives an EEMS sampler through a fixed iteration schedule.
//
// Every iteration runs the same sequence: one move drawn by the sampler,
// one degrees-of-freedom move, the Gibbs updates of the effect scales and
// of sigma2, and, at the thinning cadence after burn-in, a saved
// iteration. The loop is strictly sequential; the context is checked
// between iterations only.
package mcmc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/katalvlaran/eems/config"
	"github.com/katalvlaran/eems/eems"
)

// ErrSchedule indicates an impossible iteration schedule.
var ErrSchedule = errors.New("mcmc: invalid schedule")

// Schedule is the iteration plan of one run.
type Schedule struct {
	Iterations int // total iterations
	BurnIn     int // iterations discarded before the first save
	Thin       int // iterations skipped between two saves
}

// ScheduleFrom reads the schedule out of the run parameters.
func ScheduleFrom(p config.Params) Schedule {
	return Schedule{Iterations: p.NumMCMCIter, BurnIn: p.NumBurnIter, Thin: p.NumThinIter}
}

// Validate checks 0 ≤ BurnIn < Iterations and Thin ≥ 0.
func (s Schedule) Validate() error {
	if s.Iterations < 1 || s.BurnIn < 0 || s.BurnIn >= s.Iterations || s.Thin < 0 {
		return fmt.Errorf("%+v: %w", s, ErrSchedule)
	}
	return nil
}

// SaveIndex returns the slot that iteration iter (0-based) is saved to, or
// -1 if it is not saved. Thinning counts from the end of burn-in, not from
// iteration 0: iteration BurnIn + k·(Thin+1) is saved for k ≥ 1, whether or
// not BurnIn is a multiple of Thin+1.
func (s Schedule) SaveIndex(iter int) int {
	if iter <= s.BurnIn || iter >= s.Iterations {
		return -1
	}
	k := iter - s.BurnIn
	if k%(s.Thin+1) != 0 {
		return -1
	}
	return k/(s.Thin+1) - 1
}

// Saved returns the number of iterations the schedule saves.
func (s Schedule) Saved() int {
	if s.Iterations-1 <= s.BurnIn {
		return 0
	}
	return (s.Iterations - 1 - s.BurnIn) / (s.Thin + 1)
}

// Sampler is the per-iteration surface of *eems.Sampler.
type Sampler interface {
	ChooseMove() eems.MoveType
	Propose(move eems.MoveType) *eems.Proposal
	ProposeDf() *eems.Proposal
	Accept(p *eems.Proposal) bool
	UpdateHyperparams()
	UpdateSigma2()
	SaveIteration()
	Status() eems.Status
}

// Stats counts proposals and acceptances per move kind.
type Stats struct {
	Iterations int
	Proposed   [eems.NumMoves]int
	Accepted   [eems.NumMoves]int
}

// Rate returns the acceptance rate of move, or 0 if it was never proposed.
func (st Stats) Rate(move eems.MoveType) float64 {
	if st.Proposed[move] == 0 {
		return 0
	}
	return float64(st.Accepted[move]) / float64(st.Proposed[move])
}

func (st *Stats) record(move eems.MoveType, accepted bool) {
	st.Proposed[move]++
	if accepted {
		st.Accepted[move]++
	}
}

// LogValue lists the acceptance rate of every proposed move kind.
func (st Stats) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, eems.NumMoves)
	for m := eems.MoveType(0); m < eems.MoveType(eems.NumMoves); m++ {
		if st.Proposed[m] > 0 {
			attrs = append(attrs, slog.String(m.String(),
				fmt.Sprintf("%d/%d (%.1f%%)", st.Accepted[m], st.Proposed[m], 100*st.Rate(m))))
		}
	}
	return slog.GroupValue(attrs...)
}

// SaveFunc is called after every saved iteration with the iteration
// number and its save slot. A non-nil error stops the run.
type SaveFunc func(ctx context.Context, iter, slot int) error

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger      *slog.Logger
	reportEvery int
	onSave      SaveFunc
	progress    Progress
}

// WithLogger routes run messages to logger. Panics on nil.
func WithLogger(logger *slog.Logger) Option {
	if logger == nil {
		panic("mcmc: WithLogger(nil)")
	}
	return func(c *runConfig) { c.logger = logger }
}

// WithReportEvery logs the sampler status every n iterations. Panics if n < 1.
func WithReportEvery(n int) Option {
	if n < 1 {
		panic("mcmc: WithReportEvery(n < 1)")
	}
	return func(c *runConfig) { c.reportEvery = n }
}

// OnSave registers fn to run after every saved iteration. Panics on nil.
func OnSave(fn SaveFunc) Option {
	if fn == nil {
		panic("mcmc: OnSave(nil)")
	}
	return func(c *runConfig) { c.onSave = fn }
}

// WithProgress reports every iteration to p. Panics on nil.
func WithProgress(p Progress) Option {
	if p == nil {
		panic("mcmc: WithProgress(nil)")
	}
	return func(c *runConfig) { c.progress = p }
}

// Run executes the schedule on s. It returns the move statistics gathered
// so far together with ctx.Err() if the context ends, or with the error of
// a failing save hook.
func Run(ctx context.Context, s Sampler, sch Schedule, opts ...Option) (Stats, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	var stats Stats
	if err := sch.Validate(); err != nil {
		return stats, err
	}
	if cfg.progress != nil {
		defer cfg.progress.Done()
	}

	cfg.logger.Info("mcmc started",
		"iterations", sch.Iterations, "burnin", sch.BurnIn, "thin", sch.Thin, "saved", sch.Saved())
	for iter := 0; iter < sch.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			cfg.logger.Warn("mcmc interrupted", "iter", iter, "err", err)
			return stats, err
		}

		move := s.ChooseMove()
		stats.record(move, s.Accept(s.Propose(move)))
		stats.record(eems.MoveDf, s.Accept(s.ProposeDf()))
		s.UpdateHyperparams()
		s.UpdateSigma2()
		stats.Iterations++

		if slot := sch.SaveIndex(iter); slot >= 0 {
			s.SaveIteration()
			if cfg.onSave != nil {
				if err := cfg.onSave(ctx, iter, slot); err != nil {
					return stats, fmt.Errorf("mcmc: save iteration %d: %w", iter, err)
				}
			}
		}
		if cfg.reportEvery > 0 && (iter+1)%cfg.reportEvery == 0 {
			cfg.logger.Info("iteration", "iter", iter+1, "state", s.Status())
		}
		if cfg.progress != nil {
			cfg.progress.Step()
		}
	}
	cfg.logger.Info("mcmc finished", "acceptance", stats)
	return stats, nil
}
