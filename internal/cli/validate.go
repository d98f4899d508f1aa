package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/spread/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Meshes  int                        `json:"meshes,omitempty"`
	Objects int                        `json:"objects,omitempty"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rig-dir>",
		Short: "Validate a rig without touching a scene",
		Long: `Compile and validate a CUE rig without writing it anywhere.

Checks CUE syntax, the rig schema (meshes, objects, selection, defaults)
and consistency: declared meshes, usable reference pair, sane defaults.

Exit codes:
  0 - Rig is valid
  1 - Rig has errors
  2 - Command error (directory not found, no CUE files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, rigDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadRig(rigDir, LoadModeCollectAll)
	if loadResult == nil {
		var loadErr *LoadError
		if !errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
		}
		if isCommandError(loadErr.Code) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidationErrors(formatter, []compiler.ValidationError{{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    lineOf(loadErr.Pos),
		}})
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, rigDir)

	validationErrors := toValidationErrors(loadErrors)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, loadResult.Rig)
}

// isCommandError reports whether a load error code means the rig could not
// be read at all, as opposed to being read and found wrong.
func isCommandError(code string) bool {
	switch code {
	case ErrCodeNotFound, ErrCodeScanError, ErrCodeNoFiles:
		return true
	}
	return false
}

func toValidationErrors(errs []error) []compiler.ValidationError {
	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		var verr compiler.ValidationError
		if errors.As(err, &verr) {
			out = append(out, verr)
			continue
		}
		out = append(out, compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric})
	}
	return out
}

func validationDetails(e compiler.ValidationError) *ErrorDetails {
	if e.Line == 0 {
		return nil
	}
	return &ErrorDetails{Line: e.Line}
}

// lineOf extracts the line number from a token.Pos.
func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, rig *compiler.Rig) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:   true,
			Meshes:  len(rig.Meshes),
			Objects: len(rig.Objects),
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Rig valid (%d mesh(es), %d object(s))\n", len(rig.Meshes), len(rig.Objects))
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
				Details: validationDetails(errs[0]),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
