package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/metrics"
	"github.com/roach88/spread/internal/scene"
	"github.com/roach88/spread/internal/testutil"
)

const testSession = "session-1"

var view3D = View{Area: AreaView3D}

// setupPair returns a scene with references at (0,0,0) and (10,0,0) and a
// controller over it using a fixed session id.
func setupPair(t *testing.T, opts ...Option) (*scene.Store, *Controller) {
	t.Helper()
	s := testutil.OpenScene(t)
	testutil.SeedPair(t, s, geom.V3(0, 0, 0), geom.V3(10, 0, 0))
	opts = append([]Option{WithIDGenerator(NewFixedGenerator(testSession))}, opts...)
	return s, New(s, opts...)
}

func xs(locs []geom.Vec3) []float64 {
	out := make([]float64, len(locs))
	for i, l := range locs {
		out[i] = l.X
	}
	return out
}

func press(t *testing.T, c *Controller, tokens string) []Outcome {
	t.Helper()
	events, err := ParseEvents(tokens)
	require.NoError(t, err)
	outcomes := make([]Outcome, len(events))
	for i, ev := range events {
		outcomes[i] = c.Handle(context.Background(), ev)
	}
	return outcomes
}

func TestStart_PlacesMidpoint(t *testing.T) {
	s, c := setupPair(t)

	require.NoError(t, c.Start(context.Background(), view3D))

	assert.Equal(t, ir.StateRunning, c.State())
	assert.Equal(t, testSession, c.SessionID())
	assert.Equal(t, ir.Params{Count: 3, Mode: ir.ModeLinear, Deviation: 0.5}, c.Params())
	assert.Equal(t, "Cube", c.Pair().BaseName)
	assert.Equal(t, "Cube", c.Pair().Mesh)

	locs := testutil.SlotLocations(t, s, testSession)
	require.Len(t, locs, 1)
	assert.True(t, geom.V3(5, 0, 0).ApproxEqual(locs[0], 1e-12))
}

func TestStart_TwoIncrementsGiveThreeSlots(t *testing.T) {
	s, c := setupPair(t)
	require.NoError(t, c.Start(context.Background(), view3D))

	outcomes := press(t, c, "] ]")
	assert.Equal(t, []Outcome{OutcomeHandled, OutcomeHandled}, outcomes)
	assert.Equal(t, 5, c.Params().Count)

	locs := testutil.SlotLocations(t, s, testSession)
	assert.InDeltaSlice(t, []float64{2.5, 5, 7.5}, xs(locs), 1e-12)
	assert.NoError(t, c.LastError())
}

func TestStart_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("not a 3D view", func(t *testing.T) {
		s, c := setupPair(t)
		err := c.Start(ctx, View{Area: "IMAGE_EDITOR"})
		require.Error(t, err)
		assert.True(t, IsPrecondition(err))
		assert.Equal(t, ErrCodeNoView3D, PreconditionCodeOf(err))
		assertUntouched(t, s, c)
	})

	t.Run("one mesh selected", func(t *testing.T) {
		s, c := setupPair(t)
		require.NoError(t, s.SetSelection(ctx, "Cube"))
		err := c.Start(ctx, view3D)
		assert.Equal(t, ErrCodeSelectionCount, PreconditionCodeOf(err))
		assertUntouched(t, s, c)
	})

	t.Run("nothing selected", func(t *testing.T) {
		s, c := setupPair(t)
		require.NoError(t, s.SetSelection(ctx))
		err := c.Start(ctx, view3D)
		assert.Equal(t, ErrCodeSelectionCount, PreconditionCodeOf(err))
		assertUntouched(t, s, c)
	})

	t.Run("three meshes selected", func(t *testing.T) {
		s, c := setupPair(t)
		_, err := s.CreateObject(ctx, ir.NewObject{Name: "Cube", Kind: ir.KindMesh, Mesh: "Cube", Matrix: geom.Identity()})
		require.NoError(t, err)
		require.NoError(t, s.SetSelection(ctx, "Cube", "Cube.001", "Cube.002"))
		err = c.Start(ctx, view3D)
		assert.Equal(t, ErrCodeSelectionCount, PreconditionCodeOf(err))
		assertUntouched(t, s, c)
	})

	t.Run("different meshes", func(t *testing.T) {
		s, c := setupPair(t)
		require.NoError(t, s.CreateMesh(ctx, ir.Mesh{Name: "Sphere"}))
		_, err := s.CreateObject(ctx, ir.NewObject{Name: "Ball", Kind: ir.KindMesh, Mesh: "Sphere", Matrix: geom.Identity()})
		require.NoError(t, err)
		require.NoError(t, s.SetSelection(ctx, "Cube", "Ball"))
		err = c.Start(ctx, view3D)
		assert.Equal(t, ErrCodeMeshMismatch, PreconditionCodeOf(err))
		assertUntouched(t, s, c)
	})
}

func assertUntouched(t *testing.T, s *scene.Store, c *Controller) {
	t.Helper()
	n, err := s.CountObjects(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
	tagged, err := s.Tagged(context.Background(), scene.TagQuery{})
	require.NoError(t, err)
	assert.Empty(t, tagged)
	assert.Equal(t, ir.StateIdle, c.State())
	assert.Empty(t, c.SessionID())
}

func TestStart_IgnoresSelectedEmpties(t *testing.T) {
	s, c := setupPair(t)
	ctx := context.Background()

	_, err := s.CreateObject(ctx, ir.NewObject{Name: "Empty", Kind: ir.KindEmpty, Matrix: geom.Identity()})
	require.NoError(t, err)
	require.NoError(t, s.SetSelection(ctx, "Empty", "Cube.001", "Cube"))

	require.NoError(t, c.Start(ctx, view3D))
	assert.Equal(t, "Cube.001", c.Pair().A.Name, "selection order decides A")
	assert.Equal(t, "Cube", c.Pair().BaseName, "base name is the lexicographically first reference")
}

func TestStart_Twice(t *testing.T) {
	_, c := setupPair(t)
	require.NoError(t, c.Start(context.Background(), view3D))
	assert.ErrorIs(t, c.Start(context.Background(), view3D), ErrSessionActive)
}

func TestHandle_CountClampsAtMinimum(t *testing.T) {
	s, c := setupPair(t)
	require.NoError(t, c.Start(context.Background(), view3D))

	outcomes := press(t, c, "[ [ [")
	assert.Equal(t, []Outcome{OutcomeHandled, OutcomeHandled, OutcomeHandled}, outcomes)
	assert.Equal(t, MinCount, c.Params().Count)
	assert.Len(t, testutil.SlotLocations(t, s, testSession), 1)
}

func TestHandle_ShrinkAndGrow(t *testing.T) {
	s, c := setupPair(t)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx, view3D))

	press(t, c, "] ] ]")
	require.Len(t, testutil.SlotLocations(t, s, testSession), 4)
	first, err := s.FindTagged(ctx, testSession, 0)
	require.NoError(t, err)

	press(t, c, "[ [")
	assert.Len(t, testutil.SlotLocations(t, s, testSession), 2)
	assert.Equal(t, []int{2, 3}, c.LastReport().Removed)

	press(t, c, "]")
	locs := testutil.SlotLocations(t, s, testSession)
	assert.InDeltaSlice(t, []float64{2.5, 5, 7.5}, xs(locs), 1e-12)

	again, err := s.FindTagged(ctx, testSession, 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "slot 0 keeps its object")
}

func TestHandle_SeedClampsAtZero(t *testing.T) {
	_, c := setupPair(t)
	require.NoError(t, c.Start(context.Background(), view3D))

	press(t, c, "ctrl+down ctrl+down")
	assert.Equal(t, int64(0), c.Params().Seed)

	press(t, c, "ctrl+up ctrl+up ctrl+down")
	assert.Equal(t, int64(1), c.Params().Seed)
}

func TestHandle_SeedDrivesRandomMode(t *testing.T) {
	s, c := setupPair(t, WithConfig(Config{Count: 6, Mode: ir.ModeRandom}))
	require.NoError(t, c.Start(context.Background(), view3D))

	seed0 := xs(testutil.SlotLocations(t, s, testSession))
	press(t, c, "ctrl+up")
	seed1 := xs(testutil.SlotLocations(t, s, testSession))
	press(t, c, "ctrl+down")
	back := xs(testutil.SlotLocations(t, s, testSession))

	assert.NotEqual(t, seed0, seed1)
	assert.Equal(t, seed0, back, "same seed, same placement")
	for _, x := range seed1 {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 10.0)
	}
}

func TestHandle_PassThrough(t *testing.T) {
	s, c := setupPair(t)
	require.NoError(t, c.Start(context.Background(), view3D))
	before, err := s.ListObjects(context.Background())
	require.NoError(t, err)

	outcomes := press(t, c, "]:release ctrl+] up down a enter ctrl+m")
	for i, o := range outcomes {
		assert.Equal(t, OutcomePassThrough, o, "event %d", i)
	}
	assert.Equal(t, 3, c.Params().Count)
	assert.Equal(t, int64(0), c.Params().Seed)

	after, err := s.ListObjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHandle_ModeAndMatrixToggles(t *testing.T) {
	s, c := setupPair(t)
	require.NoError(t, c.Start(context.Background(), view3D))

	press(t, c, "m")
	assert.Equal(t, ir.ModeDeviate, c.Params().Mode)
	press(t, c, "m")
	assert.Equal(t, ir.ModeRandom, c.Params().Mode)
	press(t, c, "m")
	assert.Equal(t, ir.ModeLinear, c.Params().Mode)

	press(t, c, "i")
	assert.True(t, c.Params().InterpolateMatrices)
	slot, err := s.FindTagged(context.Background(), testSession, 0)
	require.NoError(t, err)
	assert.True(t, geom.Translation(geom.V3(5, 0, 0)).ApproxEqual(slot.Matrix, 1e-9))
}

func TestHandle_MatrixInterpolation(t *testing.T) {
	s := testutil.OpenScene(t)
	a := geom.Compose(geom.V3(0, 0, 0), geom.IdentityQuat(), geom.V3(1, 1, 1))
	b := geom.Compose(geom.V3(10, 0, 0), geom.QuatFromEulerDegrees(geom.V3(0, 0, 90)), geom.V3(3, 3, 3))
	testutil.SeedPairMatrices(t, s, a, b)

	c := New(s, WithIDGenerator(NewFixedGenerator(testSession)), WithConfig(Config{Count: 3, Mode: ir.ModeLinear, InterpolateMatrices: true}))
	require.NoError(t, c.Start(context.Background(), view3D))

	slot, err := s.FindTagged(context.Background(), testSession, 0)
	require.NoError(t, err)
	want := geom.Compose(geom.V3(5, 0, 0), geom.QuatFromEulerDegrees(geom.V3(0, 0, 45)), geom.V3(2, 2, 2))
	assert.True(t, want.ApproxEqual(slot.Matrix, 1e-9))
}

func TestHandle_MatrixToggleLeavesNoStaleBasis(t *testing.T) {
	rot := geom.QuatFromEulerDegrees(geom.V3(0, 0, 45))
	a := geom.Compose(geom.V3(0, 0, 0), rot, geom.V3(2, 2, 2))
	b := geom.Compose(geom.V3(10, 0, 0), rot, geom.V3(2, 2, 2))

	toggled := testutil.OpenScene(t)
	testutil.SeedPairMatrices(t, toggled, a, b)
	c := New(toggled, WithIDGenerator(NewFixedGenerator(testSession)))
	require.NoError(t, c.Start(context.Background(), view3D))
	press(t, c, "i i ]")
	require.NoError(t, c.LastError())

	fresh := testutil.OpenScene(t)
	testutil.SeedPairMatrices(t, fresh, a, b)
	f := New(fresh, WithIDGenerator(NewFixedGenerator(testSession)), WithConfig(Config{Count: 4, Mode: ir.ModeLinear}))
	require.NoError(t, f.Start(context.Background(), view3D))

	got, err := toggled.ListTagged(context.Background(), testSession)
	require.NoError(t, err)
	want, err := fresh.ListTagged(context.Background(), testSession)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, want, 2)

	for i := range got {
		assert.True(t, geom.Translation(got[i].Location()).ApproxEqual(got[i].Matrix, 1e-9),
			"slot %d keeps an identity basis", i)
		assert.True(t, want[i].Matrix.ApproxEqual(got[i].Matrix, 1e-9),
			"slot %d matches a fresh session", i)
	}
}

func TestHandle_CancelRemovesEverything(t *testing.T) {
	for _, token := range []string{"esc", "rmb", "esc:release", "rmb:release"} {
		t.Run(token, func(t *testing.T) {
			s, c := setupPair(t)
			ctx := context.Background()
			require.NoError(t, c.Start(ctx, view3D))
			press(t, c, "] ] ]")

			outcomes := press(t, c, token)
			assert.Equal(t, []Outcome{OutcomeCancelled}, outcomes)
			assert.Equal(t, ir.StateCancelled, c.State())

			tagged, err := s.Tagged(ctx, scene.TagQuery{})
			require.NoError(t, err)
			assert.Empty(t, tagged)
			_, err = s.FindObject(ctx, ir.AnchorName(testSession))
			assert.ErrorIs(t, err, scene.ErrNotFound)

			n, err := s.CountObjects(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n, "only the references remain")
		})
	}
}

func TestHandle_ConfirmKeepsDuplicates(t *testing.T) {
	s, c := setupPair(t)
	require.NoError(t, c.Start(context.Background(), view3D))
	press(t, c, "]")

	assert.Equal(t, []Outcome{OutcomePassThrough}, press(t, c, "enter"), "RET needs ctrl")
	assert.Equal(t, []Outcome{OutcomeFinished}, press(t, c, "ctrl+enter:release"))
	assert.Equal(t, ir.StateConfirmed, c.State())
	assert.Len(t, testutil.SlotLocations(t, s, testSession), 2)
}

func TestHandle_IgnoredOutsideSession(t *testing.T) {
	_, c := setupPair(t)
	assert.Equal(t, []Outcome{OutcomeIgnored}, press(t, c, "]"), "before start")

	require.NoError(t, c.Start(context.Background(), view3D))
	press(t, c, "ctrl+enter")
	assert.Equal(t, []Outcome{OutcomeIgnored, OutcomeIgnored}, press(t, c, "] esc"))
	assert.Equal(t, ir.StateConfirmed, c.State())
}

func TestHandle_UnknownModeIsSilentNoOp(t *testing.T) {
	s, c := setupPair(t, WithConfig(Config{Count: 4, Mode: ir.Mode("spiral")}))
	require.NoError(t, c.Start(context.Background(), view3D))

	assert.Empty(t, testutil.SlotLocations(t, s, testSession))
	assert.Equal(t, []Outcome{OutcomeHandled}, press(t, c, "]"))
	assert.Empty(t, testutil.SlotLocations(t, s, testSession))
	assert.NoError(t, c.LastError())

	// Cycling out of the unknown mode recovers.
	press(t, c, "m")
	assert.Equal(t, ir.ModeLinear, c.Params().Mode)
	assert.Len(t, testutil.SlotLocations(t, s, testSession), 3)
}

// brokenScene fails every write once the session is running.
type brokenScene struct {
	*scene.Store
	broken bool
}

func (b *brokenScene) SetMatrix(ctx context.Context, id int64, m geom.Mat4) error {
	if b.broken {
		return errors.New("read-only scene")
	}
	return b.Store.SetMatrix(ctx, id, m)
}

func TestHandle_ErrorsAreRecordedNotReturned(t *testing.T) {
	s := testutil.OpenScene(t)
	testutil.SeedPair(t, s, geom.V3(0, 0, 0), geom.V3(10, 0, 0))
	bs := &brokenScene{Store: s}
	c := New(bs, WithIDGenerator(NewFixedGenerator(testSession)))
	require.NoError(t, c.Start(context.Background(), view3D))

	bs.broken = true
	assert.Equal(t, []Outcome{OutcomeHandled}, press(t, c, "ctrl+up"))
	require.Error(t, c.LastError())
	assert.Contains(t, c.LastError().Error(), "read-only scene")
	assert.Equal(t, ir.StateRunning, c.State(), "session keeps running")

	assert.Equal(t, []Outcome{OutcomeCancelled}, press(t, c, "esc"))
}

func TestController_Journal(t *testing.T) {
	s := testutil.OpenScene(t)
	testutil.SeedPair(t, s, geom.V3(0, 0, 0), geom.V3(10, 0, 0))
	c := New(s,
		WithIDGenerator(NewFixedGenerator(testSession)),
		WithJournal(s),
		WithClock(testutil.NewDeterministicClock()),
	)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, view3D))
	press(t, c, "] ctrl+up a ctrl+enter")

	rec, err := s.ReadSession(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, ir.StateConfirmed, rec.State)
	assert.Equal(t, int64(1), rec.StartSeq)
	assert.Equal(t, int64(5), rec.EndSeq)
	assert.Equal(t, "Cube", rec.RefA)
	assert.Equal(t, "Cube.001", rec.RefB)
	assert.Equal(t, 3, rec.Initial.Count)
	assert.Equal(t, ir.Params{Count: 4, Seed: 1, Mode: ir.ModeLinear, Deviation: 0.5}, rec.Final)

	events, err := s.ReadEvents(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, events, 4)
	var outcomes []string
	for _, e := range events {
		outcomes = append(outcomes, e.Outcome)
	}
	assert.Equal(t, []string{"handled", "handled", "pass_through", "finished"}, outcomes)
}

func TestController_Metrics(t *testing.T) {
	rec := metrics.New()
	_, c := setupPair(t, WithMetrics(rec))
	require.NoError(t, c.Start(context.Background(), view3D))
	press(t, c, "] a esc")

	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			got[key] += m.GetCounter().GetValue()
		}
	}

	assert.Equal(t, 1.0, got["spread_sessions_total/started"])
	assert.Equal(t, 1.0, got["spread_sessions_total/cancelled"])
	assert.Equal(t, 1.0, got["spread_events_total/handled"])
	assert.Equal(t, 1.0, got["spread_events_total/pass_through"])
	assert.Equal(t, 1.0, got["spread_events_total/cancelled"])
	assert.Equal(t, 2.0, got["spread_slots_created_total"])
	assert.Equal(t, 2.0, got["spread_slots_removed_total"])
}

func TestController_Observer(t *testing.T) {
	var seen []Status
	_, c := setupPair(t, WithObserver(func(st Status) { seen = append(seen, st) }))
	require.NoError(t, c.Start(context.Background(), view3D))

	press(t, c, "] q ctrl+enter")

	require.Len(t, seen, 3)
	assert.Equal(t, OutcomeHandled, seen[0].Outcome)
	assert.Equal(t, ir.Press(ir.KeyRightBracket), seen[0].Event)
	assert.Equal(t, 4, seen[0].Params.Count)
	assert.Equal(t, ir.StateRunning, seen[0].State)
	assert.Equal(t, []int{1}, seen[0].Report.Created)

	assert.Equal(t, OutcomePassThrough, seen[1].Outcome)
	assert.Equal(t, ir.Key("Q"), seen[1].Event.Key)

	assert.Equal(t, OutcomeFinished, seen[2].Outcome)
	assert.Equal(t, ir.StateConfirmed, seen[2].State)
	assert.Equal(t, testSession, seen[2].SessionID)
	assert.NoError(t, seen[2].Err)

	assert.Equal(t, ir.StateConfirmed, c.Status().State)
}
