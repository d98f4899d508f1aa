package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
)

// Rig is a compiled scene description: the meshes and objects to create,
// the selection to leave behind, and the session defaults.
type Rig struct {
	Meshes    []ir.Mesh
	Objects   []RigObject
	Selection []string

	// Defaults holds the starting session parameters. HasDefaults is false
	// when the rig has no defaults block and Defaults is engine.DefaultConfig.
	Defaults    engine.Config
	HasDefaults bool
}

// RigObject is one object declaration. Rotation is XYZ Euler in degrees.
type RigObject struct {
	Name     string
	Mesh     string // empty for an EMPTY object
	Location geom.Vec3
	Rotation geom.Vec3
	Scale    geom.Vec3
	Pos      token.Pos
}

// Kind returns MESH when the object references a mesh, EMPTY otherwise.
func (o RigObject) Kind() ir.ObjectKind {
	if o.Mesh == "" {
		return ir.KindEmpty
	}
	return ir.KindMesh
}

// Matrix composes the object's world matrix.
func (o RigObject) Matrix() geom.Mat4 {
	return geom.Compose(o.Location, geom.QuatFromEulerDegrees(o.Rotation), o.Scale)
}

// CompileRig parses a CUE value into a Rig.
//
// The value is the root of a rig package:
//
//	mesh: Cube: {vertices: 8}
//	object: Cube: {mesh: "Cube", location: [0, 0, 0]}
//	object: "Cube.001": {mesh: "Cube", location: [10, 0, 0]}
//	selection: ["Cube", "Cube.001"]
//	defaults: {count: 5, mode: "random"}
func CompileRig(v cue.Value) (*Rig, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rig := &Rig{Defaults: engine.DefaultConfig()}

	var err error
	if rig.Meshes, err = parseMeshes(v); err != nil {
		return nil, err
	}
	if rig.Objects, err = parseObjects(v); err != nil {
		return nil, err
	}
	if len(rig.Meshes) == 0 && len(rig.Objects) == 0 {
		return nil, &CompileError{
			Field:   "object",
			Message: "rig declares no meshes or objects",
			Pos:     v.Pos(),
		}
	}

	selVal := v.LookupPath(cue.ParsePath("selection"))
	if selVal.Exists() {
		if rig.Selection, err = parseStringList(selVal, "selection"); err != nil {
			return nil, err
		}
	}

	defVal := v.LookupPath(cue.ParsePath("defaults"))
	if defVal.Exists() {
		if rig.Defaults, err = CompileDefaults(defVal); err != nil {
			return nil, err
		}
		rig.HasDefaults = true
	}

	return rig, nil
}

func parseMeshes(v cue.Value) ([]ir.Mesh, error) {
	meshesVal := v.LookupPath(cue.ParsePath("mesh"))
	if !meshesVal.Exists() {
		return nil, nil
	}

	iter, err := meshesVal.Fields()
	if err != nil {
		return nil, fieldError("mesh", err, meshesVal.Pos())
	}

	var meshes []ir.Mesh
	for iter.Next() {
		name := iter.Selector().Unquoted()
		mesh := ir.Mesh{Name: name}

		vertVal := iter.Value().LookupPath(cue.ParsePath("vertices"))
		if vertVal.Exists() {
			n, err := vertVal.Int64()
			if err != nil {
				return nil, fieldError(fmt.Sprintf("mesh.%s.vertices", name), err, vertVal.Pos())
			}
			mesh.Vertices = int(n)
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func parseObjects(v cue.Value) ([]RigObject, error) {
	objectsVal := v.LookupPath(cue.ParsePath("object"))
	if !objectsVal.Exists() {
		return nil, nil
	}

	iter, err := objectsVal.Fields()
	if err != nil {
		return nil, fieldError("object", err, objectsVal.Pos())
	}

	var objects []RigObject
	for iter.Next() {
		obj, err := parseObject(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func parseObject(name string, v cue.Value) (RigObject, error) {
	obj := RigObject{
		Name:  name,
		Scale: geom.V3(1, 1, 1),
		Pos:   v.Pos(),
	}
	field := "object." + name

	meshVal := v.LookupPath(cue.ParsePath("mesh"))
	if meshVal.Exists() {
		mesh, err := meshVal.String()
		if err != nil {
			return obj, fieldError(field+".mesh", err, meshVal.Pos())
		}
		obj.Mesh = mesh
	}

	vectors := []struct {
		label string
		dst   *geom.Vec3
	}{
		{"location", &obj.Location},
		{"rotation", &obj.Rotation},
		{"scale", &obj.Scale},
	}
	for _, vec := range vectors {
		val := v.LookupPath(cue.ParsePath(vec.label))
		if !val.Exists() {
			continue
		}
		parsed, err := parseVec3(val, field+"."+vec.label)
		if err != nil {
			return obj, err
		}
		*vec.dst = parsed
	}

	return obj, nil
}

// parseVec3 reads a three-element numeric list.
func parseVec3(v cue.Value, field string) (geom.Vec3, error) {
	iter, err := v.List()
	if err != nil {
		return geom.Vec3{}, fieldError(field, err, v.Pos())
	}

	var comps []float64
	for iter.Next() {
		f, err := iter.Value().Float64()
		if err != nil {
			return geom.Vec3{}, fieldError(field, err, iter.Value().Pos())
		}
		comps = append(comps, f)
	}
	if len(comps) != 3 {
		return geom.Vec3{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected 3 components, got %d", len(comps)),
			Pos:     v.Pos(),
		}
	}
	return geom.V3(comps[0], comps[1], comps[2]), nil
}

func parseStringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, fieldError(field, err, v.Pos())
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, fieldError(field, err, iter.Value().Pos())
		}
		out = append(out, s)
	}
	return out, nil
}
