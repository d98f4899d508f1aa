// Package geom is the small amount of 3D math the placement engine needs:
// vectors, unit quaternions and affine 4x4 matrices, built on mgl64.
//
// Conventions follow the host scene graph:
//   - Mat4 is row-major, column vectors; translation lives in column 3 (M[i][3]).
//   - Euler angles are XYZ order (R = Rz · Ry · Rx), in degrees.
package geom
