package engine

import (
	"context"
	"fmt"

	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/scene"
)

// ReplayResult is the outcome of re-running a journaled session.
type ReplayResult struct {
	SessionID string    `json:"session_id"`
	State     ir.State  `json:"state"`
	Params    ir.Params `json:"params"`
	Slots     int       `json:"slots"`
	Digest    string    `json:"digest"`
}

// Replay rebuilds a journaled session from scratch and returns a digest of
// the duplicates it leaves behind.
//
// The reference pair is recreated from the recorded matrices in a private
// in-memory scene, the session restarts with its recorded id, initial params
// and sequence numbers, and every journaled event is handled again in seq
// order. Two replays of the same record always produce the same digest, and
// a confirmed session's digest matches its live slots as long as nobody
// edited them.
func Replay(ctx context.Context, rec ir.SessionRecord, events []ir.EventRecord) (ReplayResult, error) {
	s, err := scene.OpenMemory()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", rec.ID, err)
	}
	defer s.Close()

	if err := seedReferences(ctx, s, rec); err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", rec.ID, err)
	}

	c := New(s,
		WithConfig(ConfigFromParams(rec.Initial)),
		WithIDGenerator(NewFixedGenerator(rec.ID)),
		WithClock(NewClockAt(rec.StartSeq-1)),
	)
	if err := c.Start(ctx, View{Area: AreaView3D}); err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", rec.ID, err)
	}

	for _, ev := range events {
		if c.State().Terminal() {
			break
		}
		c.Handle(ctx, ev.Event)
		if err := c.LastError(); err != nil {
			return ReplayResult{}, fmt.Errorf("replay %s: seq %d: %w", rec.ID, ev.Seq, err)
		}
	}

	slots, err := s.ListTagged(ctx, rec.ID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", rec.ID, err)
	}
	digest, err := ir.SlotDigest(slots)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", rec.ID, err)
	}

	return ReplayResult{
		SessionID: rec.ID,
		State:     c.State(),
		Params:    c.Params(),
		Slots:     len(slots),
		Digest:    digest,
	}, nil
}

// seedReferences recreates the recorded reference pair, selected A then B.
func seedReferences(ctx context.Context, s *scene.Store, rec ir.SessionRecord) error {
	if err := s.CreateMesh(ctx, ir.Mesh{Name: rec.Mesh}); err != nil {
		return err
	}
	for _, ref := range []struct {
		name   string
		matrix geom.Mat4
	}{
		{rec.RefA, rec.MatrixA},
		{rec.RefB, rec.MatrixB},
	} {
		_, err := s.CreateObject(ctx, ir.NewObject{
			Name:   ref.name,
			Kind:   ir.KindMesh,
			Mesh:   rec.Mesh,
			Matrix: ref.matrix,
		})
		if err != nil {
			return err
		}
	}
	return s.SetSelection(ctx, rec.RefA, rec.RefB)
}
