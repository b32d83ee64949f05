// SPDX-License-Identifier: MIT

// Package config loads and validates the EEMS run parameters.
//
// Parameters live in a YAML file whose keys keep the names used by the
// EEMS tool family (datapath, nDemes, mSeedsProposalS2, ...). Keys that are
// absent keep the values from Default. Load resolves the derived defaults
// (dfMin, dfMax) and validates the result.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidParam indicates a parameter outside its admissible range.
var ErrInvalidParam = errors.New("config: invalid parameter")

// Params holds every setting of one EEMS run.
type Params struct {
	// Paths.
	DataPath string `yaml:"datapath"` // prefix of .coord, .outer and .diffs
	MCMCPath string `yaml:"mcmcpath"` // output directory
	PrevPath string `yaml:"prevpath"` // checkpoint directory to resume from
	GridPath string `yaml:"gridpath"` // prefix of .demes and .edges; empty means generate

	// Data dimensions.
	NIndiv int `yaml:"nIndiv"`
	NSites int `yaml:"nSites"`
	NDemes int `yaml:"nDemes"` // target deme density for the generated lattice

	// Schedule.
	NumMCMCIter int    `yaml:"numMCMCIter"`
	NumBurnIter int    `yaml:"numBurnIter"`
	NumThinIter int    `yaml:"numThinIter"`
	Seed        uint64 `yaml:"seed"`

	// Proposal variances.
	MSeedsProposalS2  float64 `yaml:"mSeedsProposalS2"`
	QSeedsProposalS2  float64 `yaml:"qSeedsProposalS2"`
	MEffctProposalS2  float64 `yaml:"mEffctProposalS2"`
	QEffctProposalS2  float64 `yaml:"qEffctProposalS2"`
	MrateMuProposalS2 float64 `yaml:"mrateMuProposalS2"`
	DfProposalS2      float64 `yaml:"dfProposalS2"`

	// Support of the effects and of the mean log migration rate.
	MEffctHalfInterval  float64 `yaml:"mEffctHalfInterval"`
	QEffctHalfInterval  float64 `yaml:"qEffctHalfInterval"`
	MrateMuHalfInterval float64 `yaml:"mrateMuHalfInterval"`

	// Priors.
	NegBiProb   float64 `yaml:"negBiProb"`
	NegBiSize   float64 `yaml:"negBiSize"`
	MrateShape2 float64 `yaml:"mrateShape_2"`
	MrateScale2 float64 `yaml:"mrateScale_2"`
	QrateShape2 float64 `yaml:"qrateShape_2"`
	QrateScale2 float64 `yaml:"qrateScale_2"`
	SigmaShape2 float64 `yaml:"sigmaShape_2"`
	SigmaScale2 float64 `yaml:"sigmaScale_2"`
	DfMin       float64 `yaml:"dfMin"`
	DfMax       float64 `yaml:"dfMax"`

	// QVoronoiPr is the probability that an effect update targets the
	// diversity surface rather than the migration surface.
	QVoronoiPr float64 `yaml:"qVoronoiPr"`

	// Side outputs.
	TraceDB         string `yaml:"traceDB"`         // SQLite index of saved iterations; empty disables it
	CheckpointEvery int    `yaml:"checkpointEvery"` // saved iterations between checkpoints; 0 writes only the final one
}

// Default returns the parameters used when the file leaves a key out.
func Default() Params {
	return Params{
		NumMCMCIter: 1,
		NumThinIter: 0,
		Seed:        1,

		MSeedsProposalS2:  0.01,
		QSeedsProposalS2:  0.1,
		MEffctProposalS2:  0.1,
		QEffctProposalS2:  0.001,
		MrateMuProposalS2: 0.01,
		DfProposalS2:      1.0,

		MEffctHalfInterval:  2.0,
		QEffctHalfInterval:  0.1,
		MrateMuHalfInterval: 2.4771,

		NegBiProb:   0.67,
		NegBiSize:   10,
		MrateShape2: 0.001,
		MrateScale2: 1,
		QrateShape2: 0.001,
		QrateScale2: 1,
		SigmaShape2: 0.001,
		SigmaScale2: 1,

		QVoronoiPr: 0.05,
	}
}

// Load reads the YAML file at path over Default, fills the derived
// defaults and validates the result.
func Load(path string) (Params, error) {
	p := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("config: %s: %w", path, err)
	}
	p.ResolveDefaults()
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ResolveDefaults fills the parameters whose defaults depend on the data:
// dfMin defaults to nIndiv and dfMax to nSites.
func (p *Params) ResolveDefaults() {
	if p.DfMin == 0 {
		p.DfMin = float64(p.NIndiv)
	}
	if p.DfMax == 0 {
		p.DfMax = float64(p.NSites)
	}
}

// Validate reports every parameter outside its admissible range. The
// returned error wraps ErrInvalidParam once per offending parameter.
func (p Params) Validate() error {
	var errs []error
	bad := func(name string, v any, want string) {
		errs = append(errs, fmt.Errorf("%s = %v, want %s: %w", name, v, want, ErrInvalidParam))
	}
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			bad(name, v, "a finite positive value")
		}
	}

	if p.DataPath == "" {
		bad("datapath", `""`, "a path prefix")
	}
	if p.MCMCPath == "" {
		bad("mcmcpath", `""`, "an output directory")
	}
	if p.NIndiv < 2 {
		bad("nIndiv", p.NIndiv, "at least 2")
	}
	if p.NSites < 1 {
		bad("nSites", p.NSites, "at least 1")
	}
	if p.GridPath == "" && p.NDemes < 1 {
		bad("nDemes", p.NDemes, "at least 1 when no gridpath is given")
	}
	if p.NumMCMCIter < 1 {
		bad("numMCMCIter", p.NumMCMCIter, "at least 1")
	}
	if p.NumBurnIter < 0 || p.NumBurnIter >= p.NumMCMCIter {
		bad("numBurnIter", p.NumBurnIter, fmt.Sprintf("in [0,%d)", p.NumMCMCIter))
	}
	if p.NumThinIter < 0 {
		bad("numThinIter", p.NumThinIter, "at least 0")
	}

	positive("mSeedsProposalS2", p.MSeedsProposalS2)
	positive("qSeedsProposalS2", p.QSeedsProposalS2)
	positive("mEffctProposalS2", p.MEffctProposalS2)
	positive("qEffctProposalS2", p.QEffctProposalS2)
	positive("mrateMuProposalS2", p.MrateMuProposalS2)
	positive("dfProposalS2", p.DfProposalS2)
	positive("mEffctHalfInterval", p.MEffctHalfInterval)
	positive("qEffctHalfInterval", p.QEffctHalfInterval)
	positive("mrateMuHalfInterval", p.MrateMuHalfInterval)
	positive("negBiSize", p.NegBiSize)
	positive("mrateShape_2", p.MrateShape2)
	positive("mrateScale_2", p.MrateScale2)
	positive("qrateShape_2", p.QrateShape2)
	positive("qrateScale_2", p.QrateScale2)
	positive("sigmaShape_2", p.SigmaShape2)
	positive("sigmaScale_2", p.SigmaScale2)

	if !(p.NegBiProb > 0 && p.NegBiProb < 1) {
		bad("negBiProb", p.NegBiProb, "in (0,1)")
	}
	if !(p.QVoronoiPr >= 0 && p.QVoronoiPr <= 1) {
		bad("qVoronoiPr", p.QVoronoiPr, "in [0,1]")
	}
	// The Wishart density over n-1 contrasts needs df > n-2.
	if !(p.DfMin > float64(p.NIndiv-2)) {
		bad("dfMin", p.DfMin, fmt.Sprintf("greater than nIndiv-2 = %d", p.NIndiv-2))
	}
	if !(p.DfMax > p.DfMin) {
		bad("dfMax", p.DfMax, fmt.Sprintf("greater than dfMin = %g", p.DfMin))
	}
	if p.CheckpointEvery < 0 {
		bad("checkpointEvery", p.CheckpointEvery, "at least 0")
	}
	return errors.Join(errs...)
}

// LogValue groups the settings worth echoing at the start of a run.
func (p Params) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("datapath", p.DataPath),
		slog.String("mcmcpath", p.MCMCPath),
		slog.String("gridpath", p.GridPath),
		slog.Int("nIndiv", p.NIndiv),
		slog.Int("nSites", p.NSites),
		slog.Int("nDemes", p.NDemes),
		slog.Int("numMCMCIter", p.NumMCMCIter),
		slog.Int("numBurnIter", p.NumBurnIter),
		slog.Int("numThinIter", p.NumThinIter),
		slog.Uint64("seed", p.Seed),
		slog.Float64("dfMin", p.DfMin),
		slog.Float64("dfMax", p.DfMax),
	)
}
