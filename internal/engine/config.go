package engine

import (
	"fmt"

	"github.com/roach88/spread/internal/ir"
)

// MinCount is the smallest total item count: two references plus one
// duplicate between them.
const MinCount = 3

// Config holds the parameters a new session starts with.
type Config struct {
	Count               int
	Seed                int64
	Mode                ir.Mode
	InterpolateMatrices bool
	Deviation           float64
}

// DefaultConfig returns the stock starting parameters: three items (one
// duplicate), seed 0, linear spacing, location-only placement.
func DefaultConfig() Config {
	return Config{
		Count:     MinCount,
		Seed:      0,
		Mode:      ir.ModeLinear,
		Deviation: 0.5,
	}
}

// ConfigFromParams builds a Config from journaled params.
func ConfigFromParams(p ir.Params) Config {
	return Config{
		Count:               p.Count,
		Seed:                p.Seed,
		Mode:                p.Mode,
		InterpolateMatrices: p.InterpolateMatrices,
		Deviation:           p.Deviation,
	}
}

// Validate reports values a session would have to clamp or could not use.
func (c Config) Validate() error {
	if c.Count < MinCount {
		return fmt.Errorf("count %d below minimum %d", c.Count, MinCount)
	}
	if c.Seed < 0 {
		return fmt.Errorf("seed %d is negative", c.Seed)
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Deviation < 0 || c.Deviation > 1 {
		return fmt.Errorf("deviation %g outside [0, 1]", c.Deviation)
	}
	return nil
}

// Params returns the starting session params with count and seed clamped
// and an empty mode defaulted to linear. An unknown mode is kept as is; the
// session treats it as a no-op.
func (c Config) Params() ir.Params {
	p := ir.Params{
		Count:               max(c.Count, MinCount),
		Seed:                max(c.Seed, 0),
		Mode:                c.Mode,
		InterpolateMatrices: c.InterpolateMatrices,
		Deviation:           min(max(c.Deviation, 0), 1),
	}
	if p.Mode == "" {
		p.Mode = ir.ModeLinear
	}
	return p
}
