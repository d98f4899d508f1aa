package compiler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/spread/internal/ir"
)

// SceneWriter is the part of the scene store a rig is written through.
type SceneWriter interface {
	CreateMesh(ctx context.Context, m ir.Mesh) error
	CreateObject(ctx context.Context, obj ir.NewObject) (ir.Object, error)
	SetSelection(ctx context.Context, names ...string) error
}

// Apply writes the rig's meshes and objects into s and selects the rig's
// selection. The store may rename objects whose names are taken; the
// returned map goes from declared name to stored name.
func (r *Rig) Apply(ctx context.Context, s SceneWriter) (map[string]string, error) {
	for _, m := range r.Meshes {
		if err := s.CreateMesh(ctx, m); err != nil {
			return nil, fmt.Errorf("creating mesh %s: %w", m.Name, err)
		}
	}

	names := make(map[string]string, len(r.Objects))
	for _, o := range r.Objects {
		created, err := s.CreateObject(ctx, ir.NewObject{
			Name:   o.Name,
			Kind:   o.Kind(),
			Mesh:   o.Mesh,
			Matrix: o.Matrix(),
		})
		if err != nil {
			return nil, fmt.Errorf("creating object %s: %w", o.Name, err)
		}
		if created.Name != o.Name {
			slog.Debug("rig object renamed", "declared", o.Name, "stored", created.Name)
		}
		names[o.Name] = created.Name
	}

	if len(r.Selection) > 0 {
		selected := make([]string, 0, len(r.Selection))
		for _, name := range r.Selection {
			if stored, ok := names[name]; ok {
				name = stored
			}
			selected = append(selected, name)
		}
		if err := s.SetSelection(ctx, selected...); err != nil {
			return nil, fmt.Errorf("selecting %v: %w", selected, err)
		}
	}

	return names, nil
}
