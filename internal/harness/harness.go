package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/scene"
	"github.com/roach88/spread/internal/testutil"
)

// Harness drives one scenario through a real controller.
type Harness struct {
	store     *scene.Store
	ctrl      *engine.Controller
	clock     *testutil.DeterministicClock
	sessionID string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory scene for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory scene
// 2. Compile the rig (or inline scene) and write it into the scene
// 3. Start a session on the rig's selection
// 4. Feed the scenario's events one at a time
// 5. Check the expect clause and assertions against the final scene
//
// A returned error means the scenario could not be executed; expectation
// and assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := scene.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory scene: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	rig, err := scenario.rig()
	if err != nil {
		return nil, fmt.Errorf("failed to compile rig: %w", err)
	}
	if _, err := rig.Apply(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to apply rig: %w", err)
	}

	events, err := scenario.events()
	if err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}

	ids := testutil.NewFixedSessionGenerator(scenario.SessionID)
	h := &Harness{
		store:     st,
		clock:     testutil.NewDeterministicClock(),
		sessionID: ids.Generate(),
	}
	h.ctrl = engine.New(st,
		engine.WithConfig(scenario.Params.config(rig.Defaults)),
		engine.WithIDGenerator(ids),
		engine.WithClock(h.clock),
		engine.WithJournal(st),
	)

	result := NewResult()
	result.SessionID = h.sessionID

	if err := h.start(ctx, scenario.view(), result); err != nil {
		return nil, err
	}
	if result.StartError == "" {
		h.play(ctx, events, result)
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	checkExpect(scenario.Expect, result)

	actx := &AssertionContext{
		Store:     st,
		Ctx:       ctx,
		SessionID: h.sessionID,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// start opens the session. A precondition refusal is recorded in the
// result; any other failure aborts the run.
func (h *Harness) start(ctx context.Context, view engine.View, result *Result) error {
	err := h.ctrl.Start(ctx, view)
	if code := engine.PreconditionCodeOf(err); code != "" {
		result.StartError = string(code)
		result.AddTrace(h.clock.Current(), "start", "rejected", h.ctrl.Params())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	result.AddTrace(h.clock.Current(), "start", "started", h.ctrl.Params())
	return nil
}

// play feeds events until the session ends. Events after a terminal state
// are not delivered.
func (h *Harness) play(ctx context.Context, events []ir.InputEvent, result *Result) {
	for i, ev := range events {
		if h.ctrl.State().Terminal() {
			slog.Debug("scenario events after session end", "skipped", len(events)-i)
			return
		}
		outcome := h.ctrl.Handle(ctx, ev)
		result.AddTrace(h.clock.Current(), ev.String(), string(outcome), h.ctrl.Params())

		if err := h.ctrl.LastError(); err != nil {
			result.AddError(fmt.Sprintf("event %d (%s): %v", i+1, ev, err))
			return
		}
	}
}

// collect reads the final controller state and the session's slots.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	result.State = h.ctrl.State()
	result.Params = h.ctrl.Params()

	objs, err := h.store.ListTagged(ctx, h.sessionID)
	if err != nil {
		return fmt.Errorf("failed to list slots: %w", err)
	}
	for _, o := range objs {
		result.Slots = append(result.Slots, Slot{
			Index:    o.Tag.Index,
			Name:     o.Name,
			Location: o.Location().Array(),
		})
	}

	digest, err := ir.SlotDigest(objs)
	if err != nil {
		return fmt.Errorf("failed to digest slots: %w", err)
	}
	result.Digest = digest
	return nil
}

// checkExpect compares the final controller state with the expect clause.
// A refused start is a failure unless the scenario expects it.
func checkExpect(expect *ExpectClause, result *Result) {
	if expect == nil {
		if result.StartError != "" {
			result.AddError(fmt.Sprintf("session refused: %s", result.StartError))
		}
		return
	}

	switch {
	case expect.Error != "" && expect.Error != result.StartError:
		result.AddError(fmt.Sprintf("expect.error: want %s, got %q", expect.Error, result.StartError))
	case expect.Error == "" && result.StartError != "" && expect.State != string(ir.StateIdle):
		result.AddError(fmt.Sprintf("session refused: %s", result.StartError))
	}

	if expect.State != "" && expect.State != string(result.State) {
		result.AddError(fmt.Sprintf("expect.state: want %s, got %s", expect.State, result.State))
	}
	if expect.Count != nil && *expect.Count != result.Params.Count {
		result.AddError(fmt.Sprintf("expect.count: want %d, got %d", *expect.Count, result.Params.Count))
	}
	if expect.Seed != nil && *expect.Seed != result.Params.Seed {
		result.AddError(fmt.Sprintf("expect.seed: want %d, got %d", *expect.Seed, result.Params.Seed))
	}
	if expect.Mode != "" && expect.Mode != string(result.Params.Mode) {
		result.AddError(fmt.Sprintf("expect.mode: want %s, got %s", expect.Mode, result.Params.Mode))
	}
}
