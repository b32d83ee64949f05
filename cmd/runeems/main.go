// SPDX-License-Identifier: MIT

// Command runeems fits an EEMS model: it builds the deme lattice, runs the
// sampler for the configured schedule and writes the traces, the lattice
// and a resumable checkpoint to mcmcpath.
//
// Usage:
//
//	runeems --params run.yaml [--seed N] [--progress] [--report N]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/katalvlaran/eems/config"
	"github.com/katalvlaran/eems/eems"
	"github.com/katalvlaran/eems/habitat"
	"github.com/katalvlaran/eems/lattice"
	"github.com/katalvlaran/eems/mcmc"
	"github.com/katalvlaran/eems/snapshot"
	"github.com/katalvlaran/eems/tracedb"
)

// checkpointKind tags checkpoint files written by this command.
const checkpointKind = "eems.Checkpoint"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "runeems:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("runeems", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		paramsPath = fs.String("params", "", "YAML parameter file")
		seed       = fs.Uint64("seed", 0, "random seed; overrides the parameter file when non-zero")
		progress   = fs.Bool("progress", false, "show a progress bar on stderr")
		every      = fs.Int("report", 0, "log the sampler state every N iterations (0 disables)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *paramsPath == "" {
		fs.Usage()
		return errors.New("missing --params")
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	p, err := config.Load(*paramsPath)
	if err != nil {
		return err
	}
	if *seed != 0 {
		p.Seed = *seed
	}
	logger.Info("parameters loaded", "params", p)

	h, err := habitat.Load(p.DataPath + ".outer")
	if err != nil {
		return err
	}
	samples, err := lattice.LoadSamples(p.DataPath+".coord", p.NIndiv)
	if err != nil {
		return err
	}
	construct := lattice.Triangular(p.NDemes)
	if p.GridPath != "" {
		construct = lattice.Load(p.GridPath)
	}
	g, err := lattice.Build(h, samples, construct, lattice.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.MCMCPath, 0o755); err != nil {
		return err
	}
	if err := g.WriteGrid(p.MCMCPath); err != nil {
		return err
	}

	diffs, err := eems.ReadDiffs(p.DataPath+".diffs", p.NIndiv)
	if err != nil {
		return err
	}
	s, err := eems.New(g, h, diffs, p, eems.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := start(s, p); err != nil {
		return err
	}

	ckptPath := filepath.Join(p.MCMCPath, snapshot.FileName)
	saveCheckpoint := func() error {
		cp, err := s.Checkpoint()
		if err != nil {
			return err
		}
		return snapshot.Save(ckptPath, checkpointKind, cp)
	}

	var db *tracedb.DB
	if p.TraceDB != "" {
		if db, err = tracedb.Open(p.TraceDB); err != nil {
			return err
		}
		defer db.Close()
		if err := db.SetMeta(ctx, "seed", strconv.FormatUint(p.Seed, 10)); err != nil {
			return err
		}
		if err := db.SetMeta(ctx, "datapath", p.DataPath); err != nil {
			return err
		}
	}

	sch := mcmc.ScheduleFrom(p)
	opts := []mcmc.Option{
		mcmc.WithLogger(logger),
		mcmc.OnSave(func(ctx context.Context, iter, slot int) error {
			if db != nil {
				st := s.Status()
				if err := db.Append(ctx, tracedb.Row{
					Slot: slot, Iter: iter,
					LogPrior: st.LogPrior, LogLikelihood: st.LogLikelihood,
					Sigma2: st.Sigma2, Df: st.Df, MrateMu: st.MrateMu,
					MTiles: st.MTiles, QTiles: st.QTiles,
				}); err != nil {
					return err
				}
			}
			if p.CheckpointEvery > 0 && (slot+1)%p.CheckpointEvery == 0 {
				return saveCheckpoint()
			}
			return nil
		}),
	}
	if *every > 0 {
		opts = append(opts, mcmc.WithReportEvery(*every))
	}
	if *progress {
		opts = append(opts, mcmc.WithProgress(mcmc.NewBar(sch.Iterations, stderr)))
	}

	stats, runErr := mcmc.Run(ctx, s, sch, opts...)
	// Whatever was sampled is written out, also after an interrupt.
	if err := s.WriteTraces(p.MCMCPath); err != nil {
		return errors.Join(runErr, err)
	}
	if err := saveCheckpoint(); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("run complete", "dir", p.MCMCPath, "iterations", stats.Iterations,
		"saved", s.Traces().Len(), "final", s.Status())
	return nil
}

// start initializes s, or restores it from the checkpoint in p.PrevPath.
func start(s *eems.Sampler, p config.Params) error {
	if p.PrevPath == "" {
		return s.Initialize()
	}
	var cp eems.Checkpoint
	if err := snapshot.Load(filepath.Join(p.PrevPath, snapshot.FileName), checkpointKind, &cp); err != nil {
		return err
	}
	return s.Restore(cp)
}
