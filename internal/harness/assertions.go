package harness

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/scene"
)

// defaultTolerance is the slot_location tolerance when none is given.
const defaultTolerance = 1e-6

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Slots    []Slot // Final slots for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Slots) > 0 {
		fmt.Fprintf(&buf, "\nSlots:\n")
		for _, s := range e.Slots {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", s.Index, s.Name, s.Location)
		}
	}

	return buf.String()
}

// AssertionContext provides scene access for assertions that look past the
// session's slots.
type AssertionContext struct {
	Store     *scene.Store
	Ctx       context.Context
	SessionID string
}

// assertSlotCount checks the number of session slots.
func assertSlotCount(slots []Slot, assertion Assertion) error {
	if len(slots) != *assertion.Count {
		return &AssertionError{
			Type:     AssertSlotCount,
			Expected: fmt.Sprintf("%d slots", *assertion.Count),
			Actual:   fmt.Sprintf("%d slots", len(slots)),
			Slots:    slots,
		}
	}
	return nil
}

// assertSlotLocation checks one slot's location within a tolerance.
func assertSlotLocation(slots []Slot, assertion Assertion) error {
	index := *assertion.Index
	tol := assertion.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}

	for _, s := range slots {
		if s.Index != index {
			continue
		}
		for c := 0; c < 3; c++ {
			if math.Abs(s.Location[c]-assertion.Location[c]) > tol {
				return &AssertionError{
					Type:     AssertSlotLocation,
					Expected: fmt.Sprintf("slot %d at %v (±%g)", index, assertion.Location, tol),
					Actual:   fmt.Sprintf("slot %d at %v", index, s.Location),
					Slots:    slots,
				}
			}
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertSlotLocation,
		Expected: fmt.Sprintf("slot %d at %v", index, assertion.Location),
		Actual:   fmt.Sprintf("no slot %d", index),
		Slots:    slots,
	}
}

// assertContiguous checks that slot indices are exactly 0..n-1.
// slots must be in index order.
func assertContiguous(slots []Slot) error {
	for i, s := range slots {
		if s.Index != i {
			return &AssertionError{
				Type:     AssertContiguous,
				Expected: fmt.Sprintf("indices 0..%d", len(slots)-1),
				Actual:   fmt.Sprintf("index %d at position %d", s.Index, i),
				Slots:    slots,
			}
		}
	}
	return nil
}

// assertAnchor checks whether the session anchor exists.
func assertAnchor(actx *AssertionContext, assertion Assertion) error {
	_, err := actx.Store.FindObject(actx.Ctx, ir.AnchorName(actx.SessionID))
	exists := err == nil
	if err != nil && !errors.Is(err, scene.ErrNotFound) {
		return fmt.Errorf("anchor lookup: %w", err)
	}

	if exists != *assertion.Present {
		return &AssertionError{
			Type:     AssertAnchor,
			Expected: fmt.Sprintf("anchor present=%t", *assertion.Present),
			Actual:   fmt.Sprintf("anchor present=%t", exists),
		}
	}
	return nil
}

// assertObjectCount checks the total number of scene objects.
func assertObjectCount(actx *AssertionContext, assertion Assertion) error {
	n, err := actx.Store.CountObjects(actx.Ctx)
	if err != nil {
		return fmt.Errorf("count objects: %w", err)
	}
	if n != *assertion.Count {
		return &AssertionError{
			Type:     AssertObjectCount,
			Expected: fmt.Sprintf("%d objects", *assertion.Count),
			Actual:   fmt.Sprintf("%d objects", n),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides scene access for anchor and object_count.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			errs = append(errs, err.Error())
			continue
		}

		var err error
		switch assertion.Type {
		case AssertSlotCount:
			err = assertSlotCount(result.Slots, assertion)
		case AssertSlotLocation:
			err = assertSlotLocation(result.Slots, assertion)
		case AssertContiguous:
			err = assertContiguous(result.Slots)
		case AssertAnchor, AssertObjectCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires scene context", i, assertion.Type)
			} else if assertion.Type == AssertAnchor {
				err = assertAnchor(actx, assertion)
			} else {
				err = assertObjectCount(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
