package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/metrics"
	"github.com/roach88/spread/internal/scene"
)

// SessionFlags are the flags shared by commands that run a session.
type SessionFlags struct {
	Database string
	RigDir   string // optional: take starting params from the rig's defaults
	Count    int
	Seed     int64
	Mode     string
	Matrices bool
}

func (f *SessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Database, "db", "", "path to scene database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&f.RigDir, "rig", "", "read starting params from this rig's defaults block")
	cmd.Flags().IntVar(&f.Count, "count", engine.MinCount, "starting item count, references included")
	cmd.Flags().Int64Var(&f.Seed, "seed", 0, "starting seed")
	cmd.Flags().StringVar(&f.Mode, "mode", string(ir.ModeLinear), "starting mode (linear|deviate|random)")
	cmd.Flags().BoolVar(&f.Matrices, "matrices", false, "interpolate full matrices instead of locations")
}

// config resolves the starting params: stock defaults, then the rig's
// defaults block, then any flag set explicitly.
func (f *SessionFlags) config(cmd *cobra.Command) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if f.RigDir != "" {
		result, errs := LoadRig(f.RigDir, LoadModeFailFast)
		if result == nil {
			return cfg, WrapExitError(ExitCommandError, "failed to load rig defaults", errs[0])
		}
		cfg = result.Rig.Defaults
	}

	flags := cmd.Flags()
	if flags.Changed("count") {
		cfg.Count = f.Count
	}
	if flags.Changed("seed") {
		cfg.Seed = f.Seed
	}
	if flags.Changed("mode") {
		cfg.Mode = ir.Mode(f.Mode)
	}
	if flags.Changed("matrices") {
		cfg.InterpolateMatrices = f.Matrices
	}

	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid session params", err)
	}
	return cfg, nil
}

// openScene opens the scene database at path. When mustExist is set a
// missing file is a command error instead of a fresh empty scene.
func openScene(path string, mustExist bool) (*scene.Store, error) {
	if mustExist {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
		}
	}
	st, err := scene.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// newController builds a controller journaling into st. Its clock resumes
// after the last journaled seq so sessions in one database never share
// sequence numbers.
func newController(ctx context.Context, st *scene.Store, cfg engine.Config, rec *metrics.Recorder, opts ...engine.Option) (*engine.Controller, error) {
	last, err := st.LastSeq(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	base := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithClock(engine.NewClockAt(last)),
		engine.WithJournal(st),
		engine.WithMetrics(rec),
	}
	return engine.New(st, append(base, opts...)...), nil
}

// startError turns a refused start into an exit error. Precondition
// failures are user errors (exit 1); anything else is a command error.
func startError(err error) error {
	if code := engine.PreconditionCodeOf(err); code != "" {
		return WrapExitError(ExitFailure, fmt.Sprintf("session refused [%s]", code), err)
	}
	return WrapExitError(ExitCommandError, "failed to start session", err)
}

// SlotView is one duplicate as reported by play and trace.
type SlotView struct {
	Index    int        `json:"index"`
	Name     string     `json:"name"`
	Location [3]float64 `json:"location"`
}

func slotViews(objs []ir.Object) []SlotView {
	views := make([]SlotView, 0, len(objs))
	for _, o := range objs {
		if o.Tag == nil {
			continue
		}
		views = append(views, SlotView{
			Index:    o.Tag.Index,
			Name:     o.Name,
			Location: o.Location().Array(),
		})
	}
	return views
}
