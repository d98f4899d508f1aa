package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
)

// statusBuffer bounds how far the controller may run ahead of rendering.
const statusBuffer = 64

// Host connects a controller to a terminal program.
type Host struct {
	queue   *engine.Queue
	updates chan engine.Status
}

// NewHost creates a host. Pass Observer() to engine.New for the controller
// it will run.
func NewHost() *Host {
	return &Host{
		queue:   engine.NewQueue(),
		updates: make(chan engine.Status, statusBuffer),
	}
}

// Observer returns the controller option that feeds status to the host.
func (h *Host) Observer() engine.Option {
	return engine.WithObserver(func(st engine.Status) {
		h.updates <- st
	})
}

type runResult struct {
	state ir.State
	err   error
}

// Run drives a started controller from the terminal until the session ends
// or the program exits. A session still running when the program exits, or
// when ctx is cancelled, is cancelled. Returns the final session state.
func (h *Host) Run(ctx context.Context, ctrl *engine.Controller, opts ...tea.ProgramOption) (ir.State, error) {
	model := New(h.queue, h.updates, ctrl.Status(), ctrl.Pair())

	done := make(chan runResult, 1)
	go func() {
		state, err := ctrl.Run(ctx, h.queue)
		if state == ir.StateRunning && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// The queue is no longer read once ctx is done.
			ctrl.Handle(context.WithoutCancel(ctx), ir.Press(ir.KeyEscape))
			state, err = ctrl.State(), nil
		}
		close(h.updates)
		done <- runResult{state: state, err: err}
	}()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, progErr := tea.NewProgram(model, opts...).Run()

	go func() {
		for range h.updates {
		}
	}()
	h.queue.Enqueue(ir.Press(ir.KeyEscape))
	h.queue.Close()

	res := <-done
	if res.err != nil {
		return res.state, fmt.Errorf("session loop: %w", res.err)
	}
	if progErr != nil && ctx.Err() == nil {
		return res.state, fmt.Errorf("terminal program: %w", progErr)
	}
	return res.state, nil
}
