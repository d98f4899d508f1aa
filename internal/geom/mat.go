package geom

import "github.com/go-gl/mathgl/mgl64"

// Mat4 is a row-major affine transform. Translation is column 3.
//
// The row-major array is the stored and serialized form; arithmetic goes
// through mgl64, which is column-major.
type Mat4 [4][4]float64

func (m Mat4) mgl() mgl64.Mat4 {
	var g mgl64.Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			g.Set(i, j, m[i][j])
		}
	}
	return g
}

func fromMGLMat(g mgl64.Mat4) Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = g.At(i, j)
		}
	}
	return m
}

// Identity returns the identity transform.
func Identity() Mat4 {
	return fromMGLMat(mgl64.Ident4())
}

// Translation returns an identity basis moved to loc.
func Translation(loc Vec3) Mat4 {
	return fromMGLMat(mgl64.Translate3D(loc.X, loc.Y, loc.Z))
}

// Compose builds loc · rot · scale.
func Compose(loc Vec3, rot Quat, scale Vec3) Mat4 {
	g := mgl64.Translate3D(loc.X, loc.Y, loc.Z).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(scale.X, scale.Y, scale.Z))
	return fromMGLMat(g)
}

// Location returns the translation column.
func (m Mat4) Location() Vec3 {
	return Vec3{m[0][3], m[1][3], m[2][3]}
}

// Decompose splits m into translation, rotation and per-axis scale.
// A mirrored basis (negative determinant) yields negated scale.
func (m Mat4) Decompose() (loc Vec3, rot Quat, scale Vec3) {
	g := m.mgl()

	s := mgl64.Vec3{g.Col(0).Vec3().Len(), g.Col(1).Vec3().Len(), g.Col(2).Vec3().Len()}
	if g.Mat3().Det() < 0 {
		s = s.Mul(-1)
	}

	basis := mgl64.Ident4()
	for j := 0; j < 3; j++ {
		if s[j] != 0 {
			basis.SetCol(j, g.Col(j).Mul(1/s[j]))
		}
	}

	return m.Location(), mgl64.Mat4ToQuat(basis).Normalize(), fromMGL(s)
}

// Lerp interpolates two affine transforms: translation and scale linearly,
// rotation along the shortest arc. t=0 yields a, t=1 yields b.
func Lerp(a, b Mat4, t float64) Mat4 {
	la, ra, sa := a.Decompose()
	lb, rb, sb := b.Decompose()
	return Compose(la.Lerp(lb, t), Slerp(ra, rb, t), sa.Lerp(sb, t))
}

// ApproxEqual compares every element within eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	return m.mgl().ApproxEqualThreshold(o.mgl(), eps)
}
