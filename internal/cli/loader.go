package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/spread/internal/compiler"
)

// LoadMode controls how errors are handled during rig loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all validation errors before returning.
	LoadModeCollectAll
)

// LoadResult contains a compiled rig and what it was built from.
type LoadResult struct {
	Rig       *compiler.Rig
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during rig loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Details returns the CUE position as error details, or nil without one.
func (e *LoadError) Details() *ErrorDetails {
	if !e.Pos.IsValid() {
		return nil
	}
	return &ErrorDetails{File: e.Pos.Filename(), Line: e.Pos.Line(), Column: e.Pos.Column()}
}

// LoadRig compiles and validates the rig in dir.
//
// Structural problems (missing directory, no files, CUE errors) always stop
// loading and come back as a single *LoadError. Validation findings come back
// as compiler.ValidationError values: all of them in LoadModeCollectAll,
// only the first in LoadModeFailFast.
func LoadRig(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rig directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rig directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}

	value, err := compiler.LoadValue(dir)
	if err != nil {
		if errors.Is(err, compiler.ErrNoCUEFiles) {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
		}
		return nil, []error{convertCompileError(err, ErrCodeBuildFailed)}
	}

	rig, err := compiler.CompileRig(value)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeGeneric)}
	}

	result := &LoadResult{Rig: rig, FileCount: len(files)}

	var errs []error
	for _, verr := range compiler.Validate(rig) {
		errs = append(errs, verr)
		if mode == LoadModeFailFast {
			break
		}
	}
	return result, errs
}

// convertCompileError converts a compiler error to a LoadError with position
// info. fallback is used when the error carries no rig field.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field, fallback),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    fallback,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // Scene database write error

	// Rig compile errors
	ErrCodeRigMesh     = "E101" // Malformed mesh block
	ErrCodeRigObject   = "E102" // Malformed object block, or no objects at all
	ErrCodeRigSelect   = "E103" // Malformed selection list
	ErrCodeRigDefaults = "E110" // Malformed defaults block
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field, fallback string) string {
	switch {
	case field == "cue":
		return ErrCodeLoadFailed
	case field == "mesh" || strings.HasPrefix(field, "mesh."):
		return ErrCodeRigMesh
	case field == "object" || strings.HasPrefix(field, "object."):
		return ErrCodeRigObject
	case field == "selection":
		return ErrCodeRigSelect
	case field == "defaults" || strings.HasPrefix(field, "defaults."):
		return ErrCodeRigDefaults
	default:
		return fallback
	}
}
