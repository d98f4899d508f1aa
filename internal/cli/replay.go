package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/scene"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string   `json:"session_id"`
	State         ir.State `json:"state"`
	ReplayState   ir.State `json:"replay_state"`
	Events        int      `json:"events"`
	Slots         int      `json:"slots"`
	LiveSlots     int      `json:"live_slots"`
	Digest        string   `json:"digest"`
	LiveDigest    string   `json:"live_digest"`
	Deterministic bool     `json:"deterministic"`
	MatchesLive   bool     `json:"matches_live"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions      []ReplaySessionResult `json:"sessions"`
	TotalSessions int                   `json:"total_sessions"`
	AllVerified   bool                  `json:"all_verified"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled sessions and verify determinism",
		Long: `Replay every journaled session and verify it reproduces its duplicates.

Each session is rebuilt from its recorded reference pair in a private
in-memory scene and its events are handled again in order, twice. Both
replays must produce the same slot digest, and that digest must match the
duplicates the session owns in the live scene.

Exit codes:
  0 - All sessions verified
  1 - Verification failed (non-deterministic, or live scene differs)
  2 - Command error (database not found, etc.)

Examples:
  spread replay --db scene.db
  spread replay --db scene.db --session 0192f4c8-...
  spread replay --db scene.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to scene database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openScene(opts.Database, true)
	if err != nil {
		return err
	}
	defer st.Close()

	var records []ir.SessionRecord
	if opts.SessionID != "" {
		rec, err := st.ReadSession(ctx, opts.SessionID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		records = []ir.SessionRecord{rec}
	} else {
		records, err = st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	result := ReplayResult{
		Sessions:      make([]ReplaySessionResult, 0, len(records)),
		TotalSessions: len(records),
		AllVerified:   true,
	}

	if len(records) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in database.")
		return nil
	}

	for _, rec := range records {
		sessionResult, err := replayAndVerifySession(ctx, st, rec)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", rec.ID), err)
		}

		result.Sessions = append(result.Sessions, sessionResult)
		if !sessionResult.Deterministic || !sessionResult.MatchesLive {
			result.AllVerified = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerifySession replays one session twice and compares both runs
// with each other and with the live scene.
func replayAndVerifySession(ctx context.Context, st *scene.Store, rec ir.SessionRecord) (ReplaySessionResult, error) {
	events, err := st.ReadEvents(ctx, rec.ID)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	first, err := engine.Replay(ctx, rec, events)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := engine.Replay(ctx, rec, events)
	if err != nil {
		return ReplaySessionResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	live, err := st.ListTagged(ctx, rec.ID)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	liveDigest, err := ir.SlotDigest(live)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	return ReplaySessionResult{
		SessionID:     rec.ID,
		State:         rec.State,
		ReplayState:   first.State,
		Events:        len(events),
		Slots:         first.Slots,
		LiveSlots:     len(live),
		Digest:        first.Digest,
		LiveDigest:    liveDigest,
		Deterministic: first.Digest == second.Digest && first.State == second.State,
		MatchesLive:   first.Digest == liveDigest,
	}, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllVerified {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "replay verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllVerified {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic || !s.MatchesLive {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s (%s)\n", status, s.SessionID, s.State)
		fmt.Fprintf(w, "  Events: %d, slots: %d replayed, %d live\n", s.Events, s.Slots, s.LiveSlots)
		if verbose {
			fmt.Fprintf(w, "  Replay state: %s\n", s.ReplayState)
			fmt.Fprintf(w, "  Digest: %s\n", s.Digest)
			fmt.Fprintf(w, "  Live:   %s\n", s.LiveDigest)
		}

		if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		if !s.MatchesLive {
			fmt.Fprintln(w, "  Warning: Live duplicates differ from replay")
		}
		fmt.Fprintln(w)
	}

	if result.AllVerified {
		fmt.Fprintln(w, "✓ All sessions verified")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
