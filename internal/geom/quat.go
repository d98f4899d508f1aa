package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quat is a unit rotation quaternion.
type Quat = mgl64.Quat

// IdentityQuat is the zero rotation.
func IdentityQuat() Quat {
	return mgl64.QuatIdent()
}

// QuatFromEulerDegrees builds a rotation from XYZ Euler angles in degrees
// (X applied first, then Y, then Z).
func QuatFromEulerDegrees(e Vec3) Quat {
	return mgl64.AnglesToQuat(
		mgl64.DegToRad(e.Z), mgl64.DegToRad(e.Y), mgl64.DegToRad(e.X), mgl64.ZYX)
}

// Slerp interpolates along the shortest arc between a and b.
func Slerp(a, b Quat, t float64) Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t)
}

// SameRotation reports whether a and b describe the same rotation, which
// holds for q and -q alike.
func SameRotation(a, b Quat, eps float64) bool {
	return math.Abs(math.Abs(a.Normalize().Dot(b.Normalize()))-1) <= eps
}
