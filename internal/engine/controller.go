package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/spread/internal/dupset"
	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/interp"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/metrics"
)

// AreaView3D is the only view area a session may start in.
const AreaView3D = "VIEW_3D"

// View describes where the operator was invoked.
type View struct {
	Area string
}

// Scene is everything the controller needs from the host scene graph.
type Scene interface {
	dupset.Scene
	Selection(ctx context.Context) ([]ir.Object, error)
	FindMesh(ctx context.Context, name string) (ir.Mesh, error)
}

// Journal records sessions and their events. Implemented by scene.Store.
type Journal interface {
	BeginSession(ctx context.Context, rec ir.SessionRecord) error
	AppendEvent(ctx context.Context, ev ir.EventRecord) error
	EndSession(ctx context.Context, id string, state ir.State, final ir.Params, endSeq int64) error
}

// ReferencePair is the two reference objects a session spreads between,
// snapshotted at start.
type ReferencePair struct {
	A, B     ir.Object
	Mesh     string
	BaseName string
}

// Outcome is how the controller treated one input event.
type Outcome string

const (
	// OutcomeHandled means the event changed params and the scene was reconciled.
	OutcomeHandled Outcome = "handled"
	// OutcomePassThrough means the event is not ours; the host should process it.
	OutcomePassThrough Outcome = "pass_through"
	// OutcomeFinished means the session was confirmed.
	OutcomeFinished Outcome = "finished"
	// OutcomeCancelled means the session was cancelled and its duplicates removed.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeIgnored means no session is running.
	OutcomeIgnored Outcome = "ignored"
)

// Controller runs one interactive spread session.
//
// A Controller moves IDLE -> RUNNING -> CONFIRMED | CANCELLED and is not
// reused. Start and Handle must be called from one goroutine; feed events
// from other goroutines through a Queue and Run.
type Controller struct {
	scene   Scene
	dups    *dupset.Manager
	config  Config
	ids     SessionIDGenerator
	clock   Sequencer
	journal Journal
	metrics *metrics.Recorder
	observe func(Status)

	state   ir.State
	id      string
	pair    ReferencePair
	params  ir.Params
	report  dupset.Report
	lastErr error
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig sets the starting params. Default: DefaultConfig().
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.config = cfg
	}
}

// WithIDGenerator sets the session id source. Default: UUIDv7Generator.
func WithIDGenerator(gen SessionIDGenerator) Option {
	return func(c *Controller) {
		c.ids = gen
	}
}

// Sequencer stamps journal entries with increasing sequence numbers.
// Implemented by Clock and testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
}

// WithClock sets the logical clock used to stamp journal entries.
func WithClock(clock Sequencer) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithJournal records the session and every event it receives.
func WithJournal(j Journal) Option {
	return func(c *Controller) {
		c.journal = j
	}
}

// WithMetrics counts sessions, events and slot changes.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Controller) {
		c.metrics = r
	}
}

// WithObserver calls fn with a status snapshot after every handled event.
// fn runs on the goroutine that calls Handle and must not block for long.
func WithObserver(fn func(Status)) Option {
	return func(c *Controller) {
		c.observe = fn
	}
}

// Status is a snapshot of a session for hosts that render it.
type Status struct {
	SessionID string
	State     ir.State
	Params    ir.Params
	Event     ir.InputEvent // zero before the first event
	Outcome   Outcome
	Report    dupset.Report
	Err       error
}

// New creates an idle Controller over s.
func New(s Scene, opts ...Option) *Controller {
	c := &Controller{
		scene:  s,
		config: DefaultConfig(),
		ids:    UUIDv7Generator{},
		clock:  NewClock(),
		state:  ir.StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dups = dupset.NewManager(s, dupset.WithMetrics(c.metrics))
	return c
}

// Start validates the invocation context, snapshots the reference pair and
// places the initial duplicates.
//
// Precondition failures return a *PreconditionError and leave the scene and
// the controller untouched. A failure of the first reconcile cancels the
// session, removes anything it placed and returns the error.
func (c *Controller) Start(ctx context.Context, view View) error {
	if c.state != ir.StateIdle {
		return ErrSessionActive
	}

	pair, err := c.checkPreconditions(ctx, view)
	if err != nil {
		var pe *PreconditionError
		if errors.As(err, &pe) {
			slog.Warn("cannot start spread session", "code", pe.Code, "reason", pe.Message)
			c.metrics.Session("rejected")
		}
		return err
	}

	c.id = c.ids.Generate()
	c.pair = pair
	c.params = c.config.Params()
	c.state = ir.StateRunning
	c.metrics.Session("started")

	seq := c.clock.Next()
	c.journalBegin(ctx, seq)

	slog.Info("spread session started",
		"session", c.id,
		"a", pair.A.Name,
		"b", pair.B.Name,
		"mesh", pair.Mesh,
		"params", c.params.String())

	if err := c.recompute(ctx); err != nil {
		if _, clearErr := c.dups.Clear(ctx, c.id); clearErr != nil {
			slog.Error("cleanup after failed start", "session", c.id, "error", clearErr)
		}
		c.finish(ctx, ir.StateCancelled, c.clock.Next())
		return fmt.Errorf("start session %s: %w", c.id, err)
	}
	return nil
}

func (c *Controller) checkPreconditions(ctx context.Context, view View) (ReferencePair, error) {
	if view.Area != AreaView3D {
		return ReferencePair{}, newNoView3DError(view.Area)
	}

	selected, err := c.scene.Selection(ctx)
	if err != nil {
		return ReferencePair{}, fmt.Errorf("read selection: %w", err)
	}

	var meshes []ir.Object
	for _, obj := range selected {
		if obj.Kind == ir.KindMesh {
			meshes = append(meshes, obj)
		}
	}
	if len(meshes) != 2 {
		return ReferencePair{}, newSelectionCountError(len(meshes))
	}

	a, b := meshes[0], meshes[1]
	if a.Mesh == "" || a.Mesh != b.Mesh {
		return ReferencePair{}, newMeshMismatchError(a.Mesh, b.Mesh)
	}
	if _, err := c.scene.FindMesh(ctx, a.Mesh); err != nil {
		return ReferencePair{}, fmt.Errorf("shared mesh: %w", err)
	}

	base := a.Name
	if b.Name < base {
		base = b.Name
	}
	return ReferencePair{A: a, B: b, Mesh: a.Mesh, BaseName: base}, nil
}

// Handle processes one input event synchronously.
//
// Count and seed changes, mode cycling and the matrix toggle are applied on
// key press and followed by a full recompute and reconcile. Cancel and
// confirm act on any phase. Errors are logged and kept in LastError; the
// session keeps running.
func (c *Controller) Handle(ctx context.Context, ev ir.InputEvent) Outcome {
	if c.state != ir.StateRunning {
		return OutcomeIgnored
	}

	seq := c.clock.Next()
	outcome := c.dispatch(ctx, ev)

	c.metrics.Event(string(outcome))
	if c.journal != nil {
		rec := ir.EventRecord{SessionID: c.id, Seq: seq, Event: ev, Outcome: string(outcome)}
		if err := c.journal.AppendEvent(ctx, rec); err != nil {
			c.fail("journal event", err)
		}
	}

	switch outcome {
	case OutcomeFinished:
		c.finish(ctx, ir.StateConfirmed, seq)
	case OutcomeCancelled:
		c.finish(ctx, ir.StateCancelled, seq)
	}

	if c.observe != nil {
		st := c.Status()
		st.Event = ev
		st.Outcome = outcome
		c.observe(st)
	}
	return outcome
}

func (c *Controller) dispatch(ctx context.Context, ev ir.InputEvent) Outcome {
	switch {
	case ev.Key == ir.KeyEscape || ev.Key == ir.KeyRightMouse:
		report, err := c.dups.Clear(ctx, c.id)
		c.report = report
		if err != nil {
			c.fail("clear duplicates", err)
		}
		return OutcomeCancelled

	case ev.Key == ir.KeyReturn && ev.Ctrl:
		return OutcomeFinished

	case ev.Phase != ir.PhasePress:
		return OutcomePassThrough
	}

	if !c.apply(ev) {
		return OutcomePassThrough
	}

	slog.Debug("params changed", "session", c.id, "event", ev.String(), "params", c.params.String())
	if err := c.recompute(ctx); err != nil {
		c.fail("reconcile", err)
	}
	return OutcomeHandled
}

// apply mutates params for a recognized press and reports whether it did.
func (c *Controller) apply(ev ir.InputEvent) bool {
	if !ev.Ctrl {
		switch ev.Key {
		case ir.KeyRightBracket:
			c.params.Count++
		case ir.KeyLeftBracket:
			c.params.Count = max(c.params.Count-1, MinCount)
		case ir.KeyM:
			c.params.Mode = c.params.Mode.Next()
		case ir.KeyI:
			c.params.InterpolateMatrices = !c.params.InterpolateMatrices
		default:
			return false
		}
		return true
	}

	switch ev.Key {
	case ir.KeyUpArrow:
		c.params.Seed++
	case ir.KeyDownArrow:
		c.params.Seed = max(c.params.Seed-1, 0)
	default:
		return false
	}
	return true
}

// recompute places duplicates for the current params. An unknown mode
// leaves the scene as it is.
func (c *Controller) recompute(ctx context.Context) error {
	transforms, err := interp.Compute(interp.Request{
		A:        c.pair.A.Matrix,
		B:        c.pair.B.Matrix,
		Interior: c.params.Interior(),
		Params:   c.params,
	})
	if errors.Is(err, interp.ErrUnknownMode) {
		slog.Debug("skipping recompute", "session", c.id, "mode", c.params.Mode)
		return nil
	}
	if err != nil {
		return err
	}

	report, err := c.dups.Reconcile(ctx, dupset.Request{
		SessionID:  c.id,
		Transforms: transforms,
		Mesh:       c.pair.Mesh,
		BaseName:   c.pair.BaseName,
	})
	c.report = report
	return err
}

func (c *Controller) finish(ctx context.Context, state ir.State, seq int64) {
	c.state = state
	c.metrics.Session(outcomeLabel(state))
	if c.journal != nil {
		if err := c.journal.EndSession(ctx, c.id, state, c.params, seq); err != nil {
			c.fail("journal end", err)
		}
	}
	slog.Info("spread session ended", "session", c.id, "state", state, "params", c.params.String())
}

func outcomeLabel(state ir.State) string {
	switch state {
	case ir.StateConfirmed:
		return "confirmed"
	case ir.StateCancelled:
		return "cancelled"
	default:
		return string(state)
	}
}

func (c *Controller) journalBegin(ctx context.Context, seq int64) {
	if c.journal == nil {
		return
	}
	err := c.journal.BeginSession(ctx, ir.SessionRecord{
		ID:        c.id,
		State:     ir.StateRunning,
		Mesh:      c.pair.Mesh,
		BaseName:  c.pair.BaseName,
		RefA:      c.pair.A.Name,
		RefB:      c.pair.B.Name,
		MatrixA:   c.pair.A.Matrix,
		MatrixB:   c.pair.B.Matrix,
		Initial:   c.params,
		StartSeq:  seq,
		IRVersion: ir.IRVersion,
	})
	if err != nil {
		c.fail("journal begin", err)
	}
}

func (c *Controller) fail(what string, err error) {
	c.lastErr = fmt.Errorf("%s: %w", what, err)
	slog.Error("spread session error", "session", c.id, "op", what, "error", err)
}

// Status returns a snapshot of the session.
func (c *Controller) Status() Status {
	return Status{
		SessionID: c.id,
		State:     c.state,
		Params:    c.params,
		Report:    c.report,
		Err:       c.lastErr,
	}
}

// State returns the lifecycle state.
func (c *Controller) State() ir.State { return c.state }

// SessionID returns the running or ended session's id, or "" before Start.
func (c *Controller) SessionID() string { return c.id }

// Params returns the current params.
func (c *Controller) Params() ir.Params { return c.params }

// Pair returns the reference pair snapshotted at Start.
func (c *Controller) Pair() ReferencePair { return c.pair }

// LastReport returns what the most recent reconcile or clear changed.
func (c *Controller) LastReport() dupset.Report { return c.report }

// LastError returns the most recent error swallowed by Handle, or nil.
func (c *Controller) LastError() error { return c.lastErr }

// Endpoints returns the reference locations, for display.
func (c *Controller) Endpoints() (a, b geom.Vec3) {
	return c.pair.A.Location(), c.pair.B.Location()
}
