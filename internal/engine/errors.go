package engine

import (
	"errors"
	"fmt"
)

// PreconditionError reports why a session could not start.
// Nothing in the scene is mutated when Start returns one.
type PreconditionError struct {
	// Code identifies the failed precondition.
	Code PreconditionCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// PreconditionCode categorizes start failures.
type PreconditionCode string

const (
	// ErrCodeNoView3D indicates the operator was invoked outside a 3D view.
	ErrCodeNoView3D PreconditionCode = "NO_VIEW_3D"

	// ErrCodeSelectionCount indicates the selection does not hold exactly two mesh objects.
	ErrCodeSelectionCount PreconditionCode = "SELECTION_COUNT"

	// ErrCodeMeshMismatch indicates the two references do not share one mesh.
	ErrCodeMeshMismatch PreconditionCode = "MESH_MISMATCH"
)

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsPrecondition returns true if err is a PreconditionError.
// Uses errors.As to handle wrapped errors.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// PreconditionCodeOf returns the code of a wrapped PreconditionError, or "".
func PreconditionCodeOf(err error) PreconditionCode {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func newNoView3DError(area string) *PreconditionError {
	return &PreconditionError{
		Code:    ErrCodeNoView3D,
		Message: "View3D not found, cannot run operator",
		Details: map[string]string{"area": area},
	}
}

func newSelectionCountError(meshes int) *PreconditionError {
	return &PreconditionError{
		Code:    ErrCodeSelectionCount,
		Message: fmt.Sprintf("need exactly 2 selected mesh objects, have %d", meshes),
		Details: map[string]string{"meshes": fmt.Sprintf("%d", meshes)},
	}
}

func newMeshMismatchError(a, b string) *PreconditionError {
	return &PreconditionError{
		Code:    ErrCodeMeshMismatch,
		Message: fmt.Sprintf("references use different meshes (%q, %q)", a, b),
		Details: map[string]string{"mesh_a": a, "mesh_b": b},
	}
}

// ErrSessionActive is returned by Start while a session is running or
// after it has ended. A Controller runs one session.
var ErrSessionActive = errors.New("controller already started")
