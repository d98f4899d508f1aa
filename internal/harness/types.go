package harness

import "github.com/roach88/spread/internal/ir"

// TraceEvent records one step of a scenario run: the session start or one
// input event, with the params in force after it.
type TraceEvent struct {
	Seq     int64     `json:"seq"`
	Event   string    `json:"event"` // "start" or the event token
	Outcome string    `json:"outcome"`
	Params  ir.Params `json:"params"`
}

// Slot is a duplicate slot in the final scene.
type Slot struct {
	Index    int        `json:"index"`
	Name     string     `json:"name"`
	Location [3]float64 `json:"location"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if the expect clause and all assertions held.
	Pass bool `json:"pass"`

	SessionID string    `json:"session_id,omitempty"`
	State     ir.State  `json:"state"`
	Params    ir.Params `json:"params"`

	// StartError is the precondition code when the session was refused.
	StartError string `json:"start_error,omitempty"`

	Trace []TraceEvent `json:"trace"`

	// Slots lists the session's duplicates in index order.
	Slots []Slot `json:"slots"`

	// Digest is ir.SlotDigest of the final slot set.
	Digest string `json:"digest,omitempty"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		State:  ir.StateIdle,
		Trace:  []TraceEvent{},
		Slots:  []Slot{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace step.
func (r *Result) AddTrace(seq int64, event, outcome string, params ir.Params) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Event:   event,
		Outcome: outcome,
		Params:  params,
	})
}
