// Package dupset keeps a session's duplicate objects in step with a list of
// target transforms.
//
// Each duplicate is tagged (session, index). Reconcile updates slots that
// exist in place, creates missing ones, and deletes any slot whose index is
// past the end of the list. Object identity is preserved across passes: slot
// i is the same object for as long as the session keeps at least i+1 slots.
package dupset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/metrics"
	"github.com/roach88/spread/internal/scene"
)

// Scene is the part of the host scene graph the manager needs.
// Lookups report missing objects with errors wrapping scene.ErrNotFound.
type Scene interface {
	FindObject(ctx context.Context, name string) (ir.Object, error)
	CreateObject(ctx context.Context, obj ir.NewObject) (ir.Object, error)
	SetMatrix(ctx context.Context, id int64, m geom.Mat4) error
	SetParent(ctx context.Context, id, parent int64) error
	DeleteObject(ctx context.Context, id int64) error
	DeleteTagged(ctx context.Context, q scene.TagQuery) (int64, error)
	FindTagged(ctx context.Context, session string, index int) (ir.Object, error)
	ListTagged(ctx context.Context, session string) ([]ir.Object, error)
}

// Request is one reconcile pass.
type Request struct {
	SessionID  string
	Transforms []ir.Transform
	// Mesh is the shared mesh every duplicate references.
	Mesh string
	// BaseName names new duplicates; the scene appends ".NNN" on collision.
	BaseName string
}

// Report lists the slot indices touched by a pass, each in ascending order.
type Report struct {
	Created []int `json:"created"`
	Updated []int `json:"updated"`
	Removed []int `json:"removed"`
}

// Changed reports whether the pass created or removed any object.
func (r Report) Changed() bool {
	return len(r.Created) > 0 || len(r.Removed) > 0
}

// Manager reconciles duplicate sets against a Scene.
type Manager struct {
	scene   Scene
	metrics *metrics.Recorder
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics counts created, updated and removed slots on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) {
		m.metrics = r
	}
}

// NewManager creates a Manager over s.
func NewManager(s Scene, opts ...Option) *Manager {
	m := &Manager{scene: s}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reconcile makes the session's slots match req.Transforms exactly.
//
// After a successful pass the session has exactly len(req.Transforms) tagged
// objects with indices 0..len-1. Calling Reconcile twice with the same
// request leaves the scene unchanged by the second call.
func (m *Manager) Reconcile(ctx context.Context, req Request) (Report, error) {
	var report Report
	if req.SessionID == "" {
		return report, errors.New("reconcile: empty session id")
	}

	var anchor *ir.Object
	for i, tr := range req.Transforms {
		obj, err := m.scene.FindTagged(ctx, req.SessionID, i)
		switch {
		case err == nil:
			if err := m.place(ctx, obj.ID, tr); err != nil {
				return report, fmt.Errorf("reconcile slot %d: %w", i, err)
			}
			report.Updated = append(report.Updated, i)

		case errors.Is(err, scene.ErrNotFound):
			if anchor == nil {
				a, err := m.anchor(ctx, req.SessionID)
				if err != nil {
					return report, fmt.Errorf("reconcile: %w", err)
				}
				anchor = &a
			}
			if err := m.create(ctx, req, i, tr, anchor.ID); err != nil {
				return report, fmt.Errorf("reconcile slot %d: %w", i, err)
			}
			report.Created = append(report.Created, i)

		default:
			return report, fmt.Errorf("reconcile slot %d: %w", i, err)
		}
	}

	removed, err := m.removeFrom(ctx, req.SessionID, len(req.Transforms))
	report.Removed = removed
	m.metrics.Reconciled(len(report.Created), len(report.Updated), len(report.Removed))
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}

	slog.Debug("reconciled duplicates",
		"session", req.SessionID,
		"slots", len(req.Transforms),
		"created", len(report.Created),
		"updated", len(report.Updated),
		"removed", len(report.Removed))

	return report, nil
}

// Clear deletes every slot of the session and its anchor.
func (m *Manager) Clear(ctx context.Context, session string) (Report, error) {
	removed, err := m.removeFrom(ctx, session, 0)
	report := Report{Removed: removed}
	m.metrics.Reconciled(0, 0, len(removed))
	if err != nil {
		return report, fmt.Errorf("clear: %w", err)
	}

	anchor, err := m.scene.FindObject(ctx, ir.AnchorName(session))
	switch {
	case errors.Is(err, scene.ErrNotFound):
	case err != nil:
		return report, fmt.Errorf("clear: %w", err)
	default:
		if err := m.scene.DeleteObject(ctx, anchor.ID); err != nil {
			return report, fmt.Errorf("clear: delete anchor: %w", err)
		}
	}

	slog.Debug("cleared duplicates", "session", session, "removed", len(removed))
	return report, nil
}

// slotMatrix is the whole transform a slot gets for tr. Location-only
// transforms carry an identity basis, so a slot never keeps the rotation or
// scale of an earlier pass.
func slotMatrix(tr ir.Transform) geom.Mat4 {
	if tr.Full {
		return tr.Matrix
	}
	return geom.Translation(tr.Location())
}

func (m *Manager) place(ctx context.Context, id int64, tr ir.Transform) error {
	return m.scene.SetMatrix(ctx, id, slotMatrix(tr))
}

func (m *Manager) create(ctx context.Context, req Request, index int, tr ir.Transform, parent int64) error {
	obj, err := m.scene.CreateObject(ctx, ir.NewObject{
		Name:   req.BaseName,
		Kind:   ir.KindMesh,
		Mesh:   req.Mesh,
		Matrix: slotMatrix(tr),
		Tag:    &ir.Tag{SessionID: req.SessionID, Index: index},
	})
	if err != nil {
		return err
	}
	return m.scene.SetParent(ctx, obj.ID, parent)
}

// anchor returns the session anchor, creating it on first use. An existing
// object with the anchor's name is reused.
func (m *Manager) anchor(ctx context.Context, session string) (ir.Object, error) {
	name := ir.AnchorName(session)
	obj, err := m.scene.FindObject(ctx, name)
	if err == nil {
		return obj, nil
	}
	if !errors.Is(err, scene.ErrNotFound) {
		return ir.Object{}, fmt.Errorf("find anchor: %w", err)
	}

	obj, err = m.scene.CreateObject(ctx, ir.NewObject{
		Name:     name,
		Kind:     ir.KindEmpty,
		Matrix:   geom.Identity(),
		AnchorOf: session,
	})
	if err != nil {
		return ir.Object{}, fmt.Errorf("create anchor: %w", err)
	}
	return obj, nil
}

// removeFrom deletes every slot of the session with index >= from and
// returns the removed indices in ascending order.
func (m *Manager) removeFrom(ctx context.Context, session string, from int) ([]int, error) {
	slots, err := m.scene.ListTagged(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	var removed []int
	for _, obj := range slots {
		if obj.Tag != nil && obj.Tag.Index >= from {
			removed = append(removed, obj.Tag.Index)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	n, err := m.scene.DeleteTagged(ctx, scene.From(session, from))
	if err != nil {
		return nil, fmt.Errorf("delete slots from %d: %w", from, err)
	}
	if int(n) != len(removed) {
		slog.Warn("slot count changed during delete",
			"session", session, "listed", len(removed), "deleted", n)
	}
	return removed, nil
}
