package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	SessionFlags
	Keys string
	View string
}

// PlayResult reports a scripted session.
type PlayResult struct {
	SessionID string     `json:"session_id"`
	State     ir.State   `json:"state"`
	Params    ir.Params  `json:"params"`
	Events    int        `json:"events"`
	Slots     []SlotView `json:"slots"`
	Error     string     `json:"error,omitempty"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run a session from a scripted key sequence",
		Long: `Start a session on the scene's selection and feed it a scripted sequence
of input events.

Keys are space-separated tokens: "]" and "[" change the count, "ctrl+up"
and "ctrl+down" change the seed, "m" cycles the mode, "i" toggles matrix
interpolation, "ctrl+enter" confirms, "esc" cancels. A script that ends
while the session is still running cancels it.

Exit codes:
  0 - Session ran to a terminal state
  1 - Session refused (bad selection) or an event failed
  2 - Command error (database not found, bad keys)

Examples:
  spread play --db scene.db --keys "] ] ctrl+enter"
  spread play --db scene.db --count 6 --mode random --keys "ctrl+up ctrl+enter"
  spread play --db scene.db --rig ./rigs/pair --keys "m ctrl+enter" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	opts.SessionFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Keys, "keys", "", "space-separated input events")
	cmd.Flags().StringVar(&opts.View, "view", engine.AreaView3D, "area the session is invoked from")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	events, err := engine.ParseEvents(opts.Keys)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --keys", err)
	}
	cfg, err := opts.config(cmd)
	if err != nil {
		return err
	}

	st, err := openScene(opts.Database, true)
	if err != nil {
		return err
	}
	defer st.Close()

	ctrl, err := newController(ctx, st, cfg, nil)
	if err != nil {
		return err
	}

	formatter.VerboseLog("Playing %d event(s) with %s", len(events), cfg.Params())
	if _, err := ctrl.Play(ctx, engine.View{Area: opts.View}, events); err != nil {
		if code := engine.PreconditionCodeOf(err); code != "" {
			_ = formatter.Error(string(code), err.Error(), &ErrorDetails{Database: opts.Database})
		}
		return startError(err)
	}
	if ctrl.State() == ir.StateRunning {
		formatter.VerboseLog("Script ended with session running, cancelling")
		ctrl.Handle(ctx, ir.Press(ir.KeyEscape))
	}

	slots, err := st.ListTagged(ctx, ctrl.SessionID())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list slots", err)
	}

	result := PlayResult{
		SessionID: ctrl.SessionID(),
		State:     ctrl.State(),
		Params:    ctrl.Params(),
		Events:    len(events),
		Slots:     slotViews(slots),
	}
	if lastErr := ctrl.LastError(); lastErr != nil {
		result.Error = lastErr.Error()
	}

	if err := formatter.Success(result); err != nil {
		return err
	}

	if result.Error != "" {
		return NewExitError(ExitFailure, fmt.Sprintf("session %s: %s", result.SessionID, result.Error))
	}
	return nil
}

func (r PlayResult) writeText(w io.Writer) {
	mark := "✓"
	if r.State != ir.StateConfirmed || r.Error != "" {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s Session %s %s\n", mark, r.SessionID, r.State)
	fmt.Fprintf(w, "  Params: %s\n", r.Params)
	fmt.Fprintf(w, "  Events: %d\n", r.Events)
	fmt.Fprintf(w, "  Slots: %d\n", len(r.Slots))
	for _, s := range r.Slots {
		fmt.Fprintf(w, "    [%d] %s at (%g, %g, %g)\n", s.Index, s.Name, s.Location[0], s.Location[1], s.Location[2])
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", r.Error)
	}
}
