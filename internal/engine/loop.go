package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/spread/internal/ir"
)

// Run feeds events from src to Handle until the session ends, the source is
// exhausted, or ctx is done. It returns the final state.
//
// The controller must have been started. Run is the only goroutine that
// touches the controller while it runs; producers talk to it through src.
//
// A source error other than io.EOF ends the loop and is returned; the
// session is left running so the caller may cancel or resume it.
func (c *Controller) Run(ctx context.Context, src Source) (ir.State, error) {
	if c.state != ir.StateRunning {
		return c.state, fmt.Errorf("run: session not running (state %s)", c.state)
	}

	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			slog.Debug("event source exhausted", "session", c.id, "state", c.state)
			return c.state, nil
		}
		if err != nil {
			return c.state, err
		}

		if outcome := c.Handle(ctx, ev); outcome == OutcomeFinished || outcome == OutcomeCancelled {
			return c.state, nil
		}
	}
}

// Play starts a session and runs it over a fixed event list.
func (c *Controller) Play(ctx context.Context, view View, events []ir.InputEvent) (ir.State, error) {
	if err := c.Start(ctx, view); err != nil {
		return c.state, err
	}
	return c.Run(ctx, NewSliceSource(events...))
}
