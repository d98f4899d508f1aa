package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/scene"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - show one session in detail
	Outcome   string // optional - filter the timeline to one outcome
}

// SessionSummary is one row of the session list.
type SessionSummary struct {
	ID       string    `json:"id"`
	State    ir.State  `json:"state"`
	Mesh     string    `json:"mesh"`
	RefA     string    `json:"ref_a"`
	RefB     string    `json:"ref_b"`
	Initial  ir.Params `json:"initial"`
	Final    ir.Params `json:"final"`
	StartSeq int64     `json:"start_seq"`
	EndSeq   int64     `json:"end_seq,omitempty"`
	Events   int       `json:"events"`
	Slots    int       `json:"slots"`
}

// TimelineEvent is one journaled input event.
type TimelineEvent struct {
	Seq     int64  `json:"seq"`
	Event   string `json:"event"`
	Outcome string `json:"outcome"`
}

// TraceResult holds the detail of one session.
type TraceResult struct {
	Session  SessionSummary  `json:"session"`
	Timeline []TimelineEvent `json:"timeline"`
	Slots    []SlotView      `json:"slots"`
	Stats    TraceStats      `json:"stats"`
}

// TraceStats counts a session's events by outcome.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByOutcome   map[string]int `json:"by_outcome"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect journaled sessions",
		Long: `List the sessions journaled in a scene database, or show one in detail.

Without --session, prints one line per session: state, references, the
params it started and ended with, and how many duplicates it owns now.

With --session, prints the session's event timeline (seq, event, outcome)
and the duplicates it left in the scene.

Examples:
  spread trace --db scene.db
  spread trace --db scene.db --session 0192f4c8-...
  spread trace --db scene.db --session 0192f4c8-... --outcome handled
  spread trace --db scene.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to scene database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session id to trace")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only show events with this outcome")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openScene(opts.Database, true)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.SessionID == "" {
		return traceSessions(ctx, st, opts, cmd)
	}

	rec, err := st.ReadSession(ctx, opts.SessionID)
	if errors.Is(err, scene.ErrNotFound) {
		if opts.Format == "json" {
			return outputTraceJSON(cmd, CLIResponse{
				Status: "error",
				Error: &CLIError{
					Code:    ErrCodeNotFound,
					Message: fmt.Sprintf("session not found: %s", opts.SessionID),
					Details: &ErrorDetails{Database: opts.Database, Session: opts.SessionID},
				},
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No session found: %s\n", opts.SessionID)
		return NewExitError(ExitFailure, fmt.Sprintf("session not found: %s", opts.SessionID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	events, err := st.ReadEvents(ctx, rec.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	slots, err := st.ListTagged(ctx, rec.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list slots", err)
	}

	result := TraceResult{
		Session:  summarize(rec, len(events), len(slots)),
		Timeline: buildTimeline(events, opts.Outcome),
		Slots:    slotViews(slots),
		Stats:    countOutcomes(events),
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func traceSessions(ctx context.Context, st *scene.Store, opts *TraceOptions, cmd *cobra.Command) error {
	records, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	summaries := make([]SessionSummary, 0, len(records))
	for _, rec := range records {
		events, err := st.ReadEvents(ctx, rec.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
		slots, err := st.ListTagged(ctx, rec.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list slots", err)
		}
		summaries = append(summaries, summarize(rec, len(events), len(slots)))
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, CLIResponse{Status: "ok", Data: summaries})
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}
	fmt.Fprintf(w, "Sessions: %d\n\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(w, "%s %-9s %s <-> %s (%s)\n", truncateID(s.ID), s.State, s.RefA, s.RefB, s.Mesh)
		fmt.Fprintf(w, "  Start: %s\n", s.Initial)
		if s.State.Terminal() {
			fmt.Fprintf(w, "  End:   %s\n", s.Final)
		}
		fmt.Fprintf(w, "  Events: %d, slots: %d\n", s.Events, s.Slots)
		if opts.Verbose {
			fmt.Fprintf(w, "  ID: %s\n", s.ID)
			fmt.Fprintf(w, "  Seq: %d..%d\n", s.StartSeq, s.EndSeq)
		}
	}
	return nil
}

func summarize(rec ir.SessionRecord, events, slots int) SessionSummary {
	return SessionSummary{
		ID:       rec.ID,
		State:    rec.State,
		Mesh:     rec.Mesh,
		RefA:     rec.RefA,
		RefB:     rec.RefB,
		Initial:  rec.Initial,
		Final:    rec.Final,
		StartSeq: rec.StartSeq,
		EndSeq:   rec.EndSeq,
		Events:   events,
		Slots:    slots,
	}
}

// buildTimeline converts journaled events to timeline entries. When
// outcomeFilter is set, only events with that outcome are kept.
func buildTimeline(events []ir.EventRecord, outcomeFilter string) []TimelineEvent {
	timeline := []TimelineEvent{}
	for _, ev := range events {
		if outcomeFilter != "" && ev.Outcome != outcomeFilter {
			continue
		}
		timeline = append(timeline, TimelineEvent{
			Seq:     ev.Seq,
			Event:   ev.Event.String(),
			Outcome: ev.Outcome,
		})
	}
	return timeline
}

func countOutcomes(events []ir.EventRecord) TraceStats {
	stats := TraceStats{TotalEvents: len(events), ByOutcome: map[string]int{}}
	for _, ev := range events {
		stats.ByOutcome[ev.Outcome]++
	}
	return stats
}

// outputTraceJSON outputs a trace response as JSON.
func outputTraceJSON(cmd *cobra.Command, response CLIResponse) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return NewExitError(ExitFailure, response.Error.Message)
	}
	return nil
}

// outputTraceText outputs one session's trace as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	s := result.Session
	fmt.Fprintf(w, "Trace for Session: %s\n", s.ID)
	fmt.Fprintf(w, "State: %s\n", s.State)
	fmt.Fprintf(w, "References: %s <-> %s (%s)\n", s.RefA, s.RefB, s.Mesh)
	fmt.Fprintf(w, "Start: %s\n", s.Initial)
	if s.State.Terminal() {
		fmt.Fprintf(w, "End:   %s\n", s.Final)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %-14s %s\n", ev.Seq, ev.Event, ev.Outcome)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Slots ===")
	if len(result.Slots) == 0 {
		fmt.Fprintln(w, "  (no duplicates)")
	}
	for _, slot := range result.Slots {
		fmt.Fprintf(w, "  [%d] %s", slot.Index, slot.Name)
		if verbose {
			fmt.Fprintf(w, " at (%g, %g, %g)", slot.Location[0], slot.Location[1], slot.Location[2])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	for _, outcome := range []string{"handled", "pass_through", "finished", "cancelled", "ignored"} {
		if n := result.Stats.ByOutcome[outcome]; n > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", outcome+":", n)
		}
	}
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
