package geom

import "github.com/go-gl/mathgl/mgl64"

// Epsilon is the default tolerance for approximate comparisons.
const Epsilon = 1e-9

// Vec3 is a point or direction in scene space.
type Vec3 struct {
	X, Y, Z float64
}

// V3 is shorthand for Vec3{x, y, z}.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) mgl() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMGL(v mgl64.Vec3) Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Lerp interpolates component-wise: t=0 yields v, t=1 yields o.
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	a := v.mgl()
	return fromMGL(a.Add(o.mgl().Sub(a).Mul(t)))
}

// ApproxEqual reports whether every component differs by at most eps.
func (v Vec3) ApproxEqual(o Vec3, eps float64) bool {
	return v.mgl().ApproxEqualThreshold(o.mgl(), eps)
}

// Array returns the components as a slice-friendly array.
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
