package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
)

// CompileDefaults parses a defaults block into an engine.Config. Fields left
// out keep their engine.DefaultConfig values. Out-of-range values are kept so
// Validate can report them.
func CompileDefaults(v cue.Value) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if err := v.Err(); err != nil {
		return cfg, formatCUEError(err)
	}

	if val := v.LookupPath(cue.ParsePath("count")); val.Exists() {
		n, err := val.Int64()
		if err != nil {
			return cfg, fieldError("defaults.count", err, val.Pos())
		}
		cfg.Count = int(n)
	}

	if val := v.LookupPath(cue.ParsePath("seed")); val.Exists() {
		n, err := val.Int64()
		if err != nil {
			return cfg, fieldError("defaults.seed", err, val.Pos())
		}
		cfg.Seed = n
	}

	if val := v.LookupPath(cue.ParsePath("mode")); val.Exists() {
		s, err := val.String()
		if err != nil {
			return cfg, fieldError("defaults.mode", err, val.Pos())
		}
		cfg.Mode = ir.Mode(s)
	}

	if val := v.LookupPath(cue.ParsePath("interpolate_matrices")); val.Exists() {
		b, err := val.Bool()
		if err != nil {
			return cfg, fieldError("defaults.interpolate_matrices", err, val.Pos())
		}
		cfg.InterpolateMatrices = b
	}

	if val := v.LookupPath(cue.ParsePath("deviation")); val.Exists() {
		f, err := val.Float64()
		if err != nil {
			return cfg, fieldError("defaults.deviation", err, val.Pos())
		}
		cfg.Deviation = f
	}

	return cfg, nil
}
