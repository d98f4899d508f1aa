package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedType = "E200" // unsupported type for validation

	// Rig errors (E201-E219)
	ErrUnknownMesh        = "E201" // object references an undeclared mesh
	ErrReservedName       = "E202" // object name uses the anchor prefix
	ErrInvalidScale       = "E203" // zero scale component
	ErrNegativeVertices   = "E204" // mesh vertex count below zero
	ErrSelectionUnknown   = "E205" // selection names an undeclared object
	ErrSelectionDuplicate = "E206" // selection names an object twice
	ErrSelectionCount     = "E207" // selection is not exactly two objects
	ErrSelectionMesh      = "E208" // selected objects do not share a mesh
	ErrEmptyName          = "E209" // blank mesh or object name

	// Defaults errors (E220-E229)
	ErrDefaultsCount     = "E220" // count below the minimum
	ErrDefaultsSeed      = "E221" // negative seed
	ErrDefaultsMode      = "E222" // unknown mode
	ErrDefaultsDeviation = "E223" // deviation outside [0, 1]
)

// ValidationError represents a rig validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled Rig or engine.Config.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch x := v.(type) {
	case *Rig:
		return validateRig(x)
	case Rig:
		return validateRig(&x)
	case engine.Config:
		return validateDefaults(x)
	case *engine.Config:
		return validateDefaults(*x)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateRig(r *Rig) []ValidationError {
	var errs []ValidationError

	meshes := make(map[string]bool, len(r.Meshes))
	for i, m := range r.Meshes {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("mesh[%d]", i),
				Message: "mesh name must be non-empty",
				Code:    ErrEmptyName,
			})
		}
		if m.Vertices < 0 {
			errs = append(errs, ValidationError{
				Field:   "mesh." + m.Name + ".vertices",
				Message: fmt.Sprintf("vertex count %d is negative", m.Vertices),
				Code:    ErrNegativeVertices,
			})
		}
		meshes[m.Name] = true
	}

	objects := make(map[string]RigObject, len(r.Objects))
	for i, o := range r.Objects {
		field := "object." + o.Name
		line := o.Pos.Line()

		if strings.TrimSpace(o.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("object[%d]", i),
				Message: "object name must be non-empty",
				Code:    ErrEmptyName,
				Line:    line,
			})
		}
		if strings.HasPrefix(o.Name, ir.AnchorPrefix) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("names starting with %q are reserved for session anchors", ir.AnchorPrefix),
				Code:    ErrReservedName,
				Line:    line,
			})
		}
		if o.Mesh != "" && !meshes[o.Mesh] {
			errs = append(errs, ValidationError{
				Field:   field + ".mesh",
				Message: fmt.Sprintf("undeclared mesh %q", o.Mesh),
				Code:    ErrUnknownMesh,
				Line:    line,
			})
		}
		if o.Scale.X == 0 || o.Scale.Y == 0 || o.Scale.Z == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".scale",
				Message: "scale components must be non-zero",
				Code:    ErrInvalidScale,
				Line:    line,
			})
		}
		objects[o.Name] = o
	}

	errs = append(errs, validateSelection(r.Selection, objects)...)

	if r.HasDefaults {
		errs = append(errs, validateDefaults(r.Defaults)...)
	}

	return errs
}

// validateSelection checks that a non-empty selection is a usable reference
// pair: two distinct declared objects sharing one mesh.
func validateSelection(selection []string, objects map[string]RigObject) []ValidationError {
	if len(selection) == 0 {
		return nil
	}

	var errs []ValidationError
	seen := make(map[string]bool, len(selection))
	for i, name := range selection {
		field := fmt.Sprintf("selection[%d]", i)
		if _, ok := objects[name]; !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("undeclared object %q", name),
				Code:    ErrSelectionUnknown,
			})
		}
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("object %q selected twice", name),
				Code:    ErrSelectionDuplicate,
			})
		}
		seen[name] = true
	}

	if len(selection) != 2 {
		errs = append(errs, ValidationError{
			Field:   "selection",
			Message: fmt.Sprintf("expected 2 selected objects, got %d", len(selection)),
			Code:    ErrSelectionCount,
		})
		return errs
	}

	a, okA := objects[selection[0]]
	b, okB := objects[selection[1]]
	if okA && okB && (a.Mesh == "" || a.Mesh != b.Mesh) {
		errs = append(errs, ValidationError{
			Field:   "selection",
			Message: fmt.Sprintf("selected objects must share a mesh (got %q and %q)", a.Mesh, b.Mesh),
			Code:    ErrSelectionMesh,
		})
	}
	return errs
}

func validateDefaults(c engine.Config) []ValidationError {
	var errs []ValidationError

	if c.Count < engine.MinCount {
		errs = append(errs, ValidationError{
			Field:   "defaults.count",
			Message: fmt.Sprintf("count %d below minimum %d", c.Count, engine.MinCount),
			Code:    ErrDefaultsCount,
		})
	}
	if c.Seed < 0 {
		errs = append(errs, ValidationError{
			Field:   "defaults.seed",
			Message: fmt.Sprintf("seed %d is negative", c.Seed),
			Code:    ErrDefaultsSeed,
		})
	}
	if !c.Mode.Valid() {
		errs = append(errs, ValidationError{
			Field:   "defaults.mode",
			Message: fmt.Sprintf("unknown mode %q (want one of %v)", c.Mode, ir.Modes),
			Code:    ErrDefaultsMode,
		})
	}
	if c.Deviation < 0 || c.Deviation > 1 {
		errs = append(errs, ValidationError{
			Field:   "defaults.deviation",
			Message: fmt.Sprintf("deviation %g outside [0, 1]", c.Deviation),
			Code:    ErrDefaultsDeviation,
		})
	}

	return errs
}
