package interp

import (
	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
)

// Request is everything Compute needs. A and B are the reference
// transforms snapshotted at session start.
type Request struct {
	A, B     geom.Mat4
	Interior int
	Params   ir.Params
}

// Compute returns one transform per interior slot, index 0 first.
// Location-only transforms are produced unless Params.InterpolateMatrices is
// set, in which case the whole affine matrix is interpolated.
func Compute(req Request) ([]ir.Transform, error) {
	fractions, err := Fractions(req.Interior, req.Params.Mode, req.Params.Seed, req.Params.Deviation)
	if err != nil {
		return nil, err
	}

	out := make([]ir.Transform, len(fractions))
	if req.Params.InterpolateMatrices {
		for i, m := range Matrices(req.A, req.B, fractions) {
			out[i] = ir.MatrixTransform(m)
		}
		return out, nil
	}

	for i, p := range Points(req.A.Location(), req.B.Location(), fractions) {
		out[i] = ir.LocationTransform(p)
	}
	return out, nil
}

// Points lerps between a and b at each fraction.
func Points(a, b geom.Vec3, fractions []float64) []geom.Vec3 {
	out := make([]geom.Vec3, len(fractions))
	for i, f := range fractions {
		out[i] = a.Lerp(b, f)
	}
	return out
}

// Matrices interpolates two affine transforms at each fraction.
func Matrices(a, b geom.Mat4, fractions []float64) []geom.Mat4 {
	out := make([]geom.Mat4, len(fractions))
	for i, f := range fractions {
		out[i] = geom.Lerp(a, b, f)
	}
	return out
}
