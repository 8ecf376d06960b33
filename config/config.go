// Package config loads the construction-time knobs of spec.md §6 into a
// plain Config struct, either programmatically or from an optional config
// file plus PLVERIFY_* environment variables via Viper.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/crillab/plverify/tighten"
)

// BranchingStrategy selects decision.Stack's constraint-selection heuristic,
// spec.md §6's "Branching strategy enum".
type BranchingStrategy string

const (
	// BranchLeastFix picks the candidate with the fewest historical
	// violations (spec.md §6 USE_LEAST_FIX=true).
	BranchLeastFix BranchingStrategy = "least-fix"
	// BranchScoreTracker picks the highest-scored candidate via a
	// pseudo-impact tracker (spec.md §6 USE_LEAST_FIX=false).
	BranchScoreTracker BranchingStrategy = "score-tracker"
)

// Config is spec.md §6's full set of construction-time knobs, plus
// ProduceProofs.
type Config struct {
	// ExplicitBasisBoundTighteningType is EXPLICIT_BASIS_BOUND_TIGHTENING_TYPE.
	ExplicitBasisBoundTighteningType tighten.Strategy
	// RowBoundTightenerSaturationIterations is
	// ROW_BOUND_TIGHTENER_SATURATION_ITERATIONS, a positive integer.
	RowBoundTightenerSaturationIterations int
	// ExplicitBasisBoundTighteningRoundingConstant is
	// EXPLICIT_BASIS_BOUND_TIGHTENING_ROUNDING_CONSTANT, a small
	// non-negative float.
	ExplicitBasisBoundTighteningRoundingConstant float64
	// MinimalCoefficientForTightening is MINIMAL_COEFFICIENT_FOR_TIGHTENING,
	// a positive float.
	MinimalCoefficientForTightening float64
	// UseDeepSoiLocalSearch is USE_DEEPSOI_LOCAL_SEARCH, supplemented from
	// original_source/ (SPEC_FULL.md §9): consulted only by
	// engine.Facade.ApplyAllValidConstraintCaseSplits implementations.
	UseDeepSoiLocalSearch bool
	// BranchingStrategy selects decision.LeastFix or decision.ScoreTracker.
	BranchingStrategy BranchingStrategy
	// ConstraintViolationThreshold is CONSTRAINT_VIOLATION_THRESHOLD, a
	// positive integer.
	ConstraintViolationThreshold int
	// DeepSoiRejectionThreshold is DEEP_SOI_REJECTION_THRESHOLD, a positive
	// integer.
	DeepSoiRejectionThreshold int
	// ProduceProofs gates certificate.Tree construction (spec.md §4.E).
	ProduceProofs bool
}

// Default returns the knob values spec.md and SPEC_FULL.md treat as typical.
func Default() Config {
	return Config{
		ExplicitBasisBoundTighteningType:             tighten.ComputeInvertedBasisMatrix,
		RowBoundTightenerSaturationIterations:        5,
		ExplicitBasisBoundTighteningRoundingConstant: 1e-8,
		MinimalCoefficientForTightening:              1e-10,
		UseDeepSoiLocalSearch:                        false,
		BranchingStrategy:                            BranchLeastFix,
		ConstraintViolationThreshold:                 3,
		DeepSoiRejectionThreshold:                    5,
		ProduceProofs:                                false,
	}
}

// ToTightenOptions projects the tightening-related knobs into a
// tighten.Options, ready to hand to tighten.New.
func (c Config) ToTightenOptions() tighten.Options {
	return tighten.Options{
		Strategy:              c.ExplicitBasisBoundTighteningType,
		SaturationIterations:  c.RowBoundTightenerSaturationIterations,
		RoundingConstant:      c.ExplicitBasisBoundTighteningRoundingConstant,
		MinCoeffForTightening: c.MinimalCoefficientForTightening,
	}
}

// Validate rejects knob combinations spec.md §6 marks as malformed
// ("positive integer", "positive float") rather than letting them surface
// later as a confusing tightener panic.
func (c Config) Validate() error {
	if c.RowBoundTightenerSaturationIterations <= 0 {
		return errors.New("config: ROW_BOUND_TIGHTENER_SATURATION_ITERATIONS must be positive")
	}
	if c.MinimalCoefficientForTightening <= 0 {
		return errors.New("config: MINIMAL_COEFFICIENT_FOR_TIGHTENING must be positive")
	}
	if c.ExplicitBasisBoundTighteningRoundingConstant < 0 {
		return errors.New("config: EXPLICIT_BASIS_BOUND_TIGHTENING_ROUNDING_CONSTANT must be non-negative")
	}
	if c.ConstraintViolationThreshold <= 0 {
		return errors.New("config: CONSTRAINT_VIOLATION_THRESHOLD must be positive")
	}
	if c.DeepSoiRejectionThreshold <= 0 {
		return errors.New("config: DEEP_SOI_REJECTION_THRESHOLD must be positive")
	}
	switch c.ExplicitBasisBoundTighteningType {
	case tighten.UseConstraintMatrix, tighten.ComputeInvertedBasisMatrix, tighten.UseImplicitInvertedBasisMatrix:
	default:
		return errors.Errorf("config: unknown EXPLICIT_BASIS_BOUND_TIGHTENING_TYPE %v", c.ExplicitBasisBoundTighteningType)
	}
	switch c.BranchingStrategy {
	case BranchLeastFix, BranchScoreTracker:
	default:
		return errors.Errorf("config: unknown branching strategy %q", c.BranchingStrategy)
	}
	return nil
}

func strategyFromString(s string) (tighten.Strategy, error) {
	switch strings.ToUpper(s) {
	case "USE_CONSTRAINT_MATRIX":
		return tighten.UseConstraintMatrix, nil
	case "COMPUTE_INVERTED_BASIS_MATRIX":
		return tighten.ComputeInvertedBasisMatrix, nil
	case "USE_IMPLICIT_INVERTED_BASIS_MATRIX":
		return tighten.UseImplicitInvertedBasisMatrix, nil
	default:
		return 0, errors.Errorf("config: unknown EXPLICIT_BASIS_BOUND_TIGHTENING_TYPE %q", s)
	}
}

// Load populates a Config from Default(), then an optional config file at
// path (skipped if path is empty), then PLVERIFY_* environment variables —
// the same file-then-env layering operator-framework-operator-lifecycle-manager
// wires with Viper for its operators, scaled down to one function and one
// struct. Programmatic callers that already have a Config never need this.
func Load(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetEnvPrefix("PLVERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("explicit_basis_bound_tightening_type", "COMPUTE_INVERTED_BASIS_MATRIX")
	v.SetDefault("row_bound_tightener_saturation_iterations", def.RowBoundTightenerSaturationIterations)
	v.SetDefault("explicit_basis_bound_tightening_rounding_constant", def.ExplicitBasisBoundTighteningRoundingConstant)
	v.SetDefault("minimal_coefficient_for_tightening", def.MinimalCoefficientForTightening)
	v.SetDefault("use_deepsoi_local_search", def.UseDeepSoiLocalSearch)
	v.SetDefault("use_least_fix", def.BranchingStrategy == BranchLeastFix)
	v.SetDefault("constraint_violation_threshold", def.ConstraintViolationThreshold)
	v.SetDefault("deep_soi_rejection_threshold", def.DeepSoiRejectionThreshold)
	v.SetDefault("produce_proofs", def.ProduceProofs)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "config: reading config file")
		}
	}

	strategy, err := strategyFromString(v.GetString("explicit_basis_bound_tightening_type"))
	if err != nil {
		return Config{}, err
	}

	branching := BranchScoreTracker
	if v.GetBool("use_least_fix") {
		branching = BranchLeastFix
	}

	cfg := Config{
		ExplicitBasisBoundTighteningType:             strategy,
		RowBoundTightenerSaturationIterations:        v.GetInt("row_bound_tightener_saturation_iterations"),
		ExplicitBasisBoundTighteningRoundingConstant: v.GetFloat64("explicit_basis_bound_tightening_rounding_constant"),
		MinimalCoefficientForTightening:              v.GetFloat64("minimal_coefficient_for_tightening"),
		UseDeepSoiLocalSearch:                        v.GetBool("use_deepsoi_local_search"),
		BranchingStrategy:                            branching,
		ConstraintViolationThreshold:                 v.GetInt("constraint_violation_threshold"),
		DeepSoiRejectionThreshold:                    v.GetInt("deep_soi_rejection_threshold"),
		ProduceProofs:                                v.GetBool("produce_proofs"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
