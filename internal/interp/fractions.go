package interp

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/roach88/spread/internal/ir"
)

// ErrUnknownMode is returned for a spread mode outside ir.Modes.
var ErrUnknownMode = errors.New("unknown spread mode")

// pcgStream is the fixed PCG stream selector; only the seed varies.
const pcgStream = 0x9e3779b97f4a7c15

// DefaultDeviation is the jitter amplitude used when none is configured.
const DefaultDeviation = 0.5

// Fractions returns interior interpolation fractions in index order.
//
//   - linear:  f[i] = i/(n+1) for i = 1..n
//   - random:  n uniform draws in [0,1), in draw order
//   - deviate: linear fractions, each shifted by at most deviation/2 of the
//     spacing, so results stay strictly inside (0,1) and strictly increasing
//
// n <= 0 yields an empty slice.
func Fractions(n int, mode ir.Mode, seed int64, deviation float64) ([]float64, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if n <= 0 {
		return []float64{}, nil
	}

	rate := 1 / float64(n+1)
	out := make([]float64, n)

	switch mode {
	case ir.ModeLinear:
		for i := 1; i <= n; i++ {
			out[i-1] = float64(i) * rate
		}

	case ir.ModeRandom:
		rng := newRand(seed)
		for i := range out {
			out[i] = rng.Float64()
		}

	case ir.ModeDeviate:
		d := clamp01(deviation)
		rng := newRand(seed)
		for i := 1; i <= n; i++ {
			u := rng.Float64()*2 - 1 // [-1, 1)
			out[i-1] = float64(i)*rate + u*d*rate/2
		}
	}

	return out, nil
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
