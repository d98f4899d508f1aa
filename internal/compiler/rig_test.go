package compiler

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
)

const pairRig = `
mesh: Cube: {vertices: 8}
object: Cube: {mesh: "Cube", location: [0, 0, 0]}
object: "Cube.001": {mesh: "Cube", location: [10, 0, 0], rotation: [0, 0, 90], scale: [2, 2, 2]}
object: Lamp: {location: [0, 5, 0]}
selection: ["Cube", "Cube.001"]
`

func TestCompileRigBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(pairRig)
	require.NoError(t, v.Err())

	rig, err := CompileRig(v)
	require.NoError(t, err)

	assert.Equal(t, []ir.Mesh{{Name: "Cube", Vertices: 8}}, rig.Meshes)
	require.Len(t, rig.Objects, 3)

	cube := rig.Objects[0]
	assert.Equal(t, "Cube", cube.Name)
	assert.Equal(t, ir.KindMesh, cube.Kind())
	assert.Equal(t, geom.V3(1, 1, 1), cube.Scale, "scale defaults to one")
	assert.Equal(t, geom.Vec3{}, cube.Rotation)

	dup := rig.Objects[1]
	assert.Equal(t, "Cube.001", dup.Name)
	assert.Equal(t, geom.V3(10, 0, 0), dup.Location)
	assert.Equal(t, geom.V3(0, 0, 90), dup.Rotation)
	assert.Equal(t, geom.V3(2, 2, 2), dup.Scale)

	lamp := rig.Objects[2]
	assert.Equal(t, ir.KindEmpty, lamp.Kind())

	assert.Equal(t, []string{"Cube", "Cube.001"}, rig.Selection)
	assert.False(t, rig.HasDefaults)
	assert.Equal(t, engine.DefaultConfig(), rig.Defaults)
}

func TestRigObjectMatrix(t *testing.T) {
	obj := RigObject{
		Location: geom.V3(1, 2, 3),
		Rotation: geom.V3(0, 0, 90),
		Scale:    geom.V3(2, 2, 2),
	}

	m := obj.Matrix()
	assert.True(t, m.Location().ApproxEqual(geom.V3(1, 2, 3), 1e-9))

	_, _, scale := m.Decompose()
	assert.True(t, scale.ApproxEqual(geom.V3(2, 2, 2), 1e-9), "scale: %v", scale)
}

func TestCompileRigDefaults(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(pairRig + `
defaults: {count: 6, seed: 4, mode: "random", interpolate_matrices: true}
`)
	require.NoError(t, v.Err())

	rig, err := CompileRig(v)
	require.NoError(t, err)

	assert.True(t, rig.HasDefaults)
	assert.Equal(t, engine.Config{
		Count:               6,
		Seed:                4,
		Mode:                ir.ModeRandom,
		InterpolateMatrices: true,
		Deviation:           0.5,
	}, rig.Defaults)
}

func TestCompileDefaultsPartial(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`deviation: 0.25`)
	require.NoError(t, v.Err())

	cfg, err := CompileDefaults(v)
	require.NoError(t, err)

	want := engine.DefaultConfig()
	want.Deviation = 0.25
	assert.Equal(t, want, cfg)
}

func TestCompileDefaultsWrongType(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`count: "many"`)
	require.NoError(t, v.Err())

	_, err := CompileDefaults(v)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "defaults.count", ce.Field)
}

func TestCompileRigEmpty(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`selection: []`)
	require.NoError(t, v.Err())

	_, err := CompileRig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no meshes or objects")
}

func TestCompileRigBadVector(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
mesh: Cube: {}
object: Cube: {mesh: "Cube", location: [1, 2]}
`)
	require.NoError(t, v.Err())

	_, err := CompileRig(v)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "object.Cube.location", ce.Field)
	assert.Contains(t, ce.Message, "expected 3 components")
}

func TestCompileRigNonNumericComponent(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
mesh: Cube: {}
object: Cube: {mesh: "Cube", scale: [1, "x", 1]}
`)
	require.NoError(t, v.Err())

	_, err := CompileRig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object.Cube.scale")
}

func TestCompileRigConflict(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
object: Cube: {mesh: "Cube"}
object: Cube: {mesh: "Sphere"}
`)

	_, err := CompileRig(v)
	require.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "object.Cube", Message: "bad"}
	assert.Equal(t, "object.Cube: bad", err.Error())
}
