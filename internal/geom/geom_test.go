package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_Lerp(t *testing.T) {
	a := V3(0, 0, 0)
	b := V3(10, -4, 2)

	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
	assert.True(t, V3(5, -2, 1).ApproxEqual(a.Lerp(b, 0.5), Epsilon))
}

func TestMat4_Location(t *testing.T) {
	m := Compose(V3(1, 2, 3), QuatFromEulerDegrees(V3(0, 0, 30)), V3(2, 2, 2))

	assert.True(t, V3(1, 2, 3).ApproxEqual(m.Location(), 1e-12))
}

func TestTranslation_RowMajor(t *testing.T) {
	m := Translation(V3(4, 5, 6))

	assert.Equal(t, 4.0, m[0][3])
	assert.Equal(t, 5.0, m[1][3])
	assert.Equal(t, 6.0, m[2][3])
	assert.Equal(t, [4]float64{0, 0, 0, 1}, m[3])
}

func TestQuatFromEulerDegrees_Order(t *testing.T) {
	// X first, then Z: the Y axis turns to +Z and stays there.
	m := Compose(V3(0, 0, 0), QuatFromEulerDegrees(V3(90, 0, 90)), V3(1, 1, 1))

	assert.InDelta(t, 0.0, m[0][1], 1e-9)
	assert.InDelta(t, 0.0, m[1][1], 1e-9)
	assert.InDelta(t, 1.0, m[2][1], 1e-9)

	z90 := Compose(V3(0, 0, 0), QuatFromEulerDegrees(V3(0, 0, 90)), V3(1, 1, 1))
	assert.InDelta(t, 0.0, z90[0][0], 1e-9)
	assert.InDelta(t, 1.0, z90[1][0], 1e-9)
}

func TestMat4_DecomposeRoundTrip(t *testing.T) {
	loc := V3(1, -2, 3)
	rot := QuatFromEulerDegrees(V3(30, 45, 60))
	scale := V3(2, 0.5, 3)

	m := Compose(loc, rot, scale)
	gotLoc, gotRot, gotScale := m.Decompose()

	assert.True(t, loc.ApproxEqual(gotLoc, 1e-9))
	assert.True(t, scale.ApproxEqual(gotScale, 1e-9))
	assert.True(t, SameRotation(rot, gotRot, 1e-9))
}

func TestMat4_DecomposeMirrored(t *testing.T) {
	m := Compose(V3(0, 0, 0), IdentityQuat(), V3(-1, -1, -1))
	back := Compose(m.Decompose())

	assert.True(t, m.ApproxEqual(back, 1e-9))
}

func TestSlerp_Endpoints(t *testing.T) {
	a := IdentityQuat()
	b := QuatFromEulerDegrees(V3(0, 0, 90))

	assert.True(t, SameRotation(a, Slerp(a, b, 0), 1e-9))
	assert.True(t, SameRotation(b, Slerp(a, b, 1), 1e-9))
	assert.True(t, SameRotation(QuatFromEulerDegrees(V3(0, 0, 45)), Slerp(a, b, 0.5), 1e-9))
}

func TestSlerp_ShortestArc(t *testing.T) {
	a := QuatFromEulerDegrees(V3(0, 0, 10))
	b := QuatFromEulerDegrees(V3(0, 0, 30)).Scale(-1)

	assert.True(t, SameRotation(QuatFromEulerDegrees(V3(0, 0, 20)), Slerp(a, b, 0.5), 1e-9))
}

func TestLerp_Matrices(t *testing.T) {
	a := Compose(V3(0, 0, 0), IdentityQuat(), V3(1, 1, 1))
	b := Compose(V3(10, 0, 0), QuatFromEulerDegrees(V3(0, 0, 90)), V3(3, 3, 3))

	mid := Lerp(a, b, 0.5)
	want := Compose(V3(5, 0, 0), QuatFromEulerDegrees(V3(0, 0, 45)), V3(2, 2, 2))

	assert.True(t, mid.ApproxEqual(want, 1e-9))
	assert.True(t, Lerp(a, b, 0).ApproxEqual(a, 1e-9))
	assert.True(t, Lerp(a, b, 1).ApproxEqual(b, 1e-9))
}
