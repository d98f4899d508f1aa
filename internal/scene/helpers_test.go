package scene

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scene.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedCubes creates mesh "Cube" with objects "Cube" at the origin and
// "Cube.001" at (10,0,0), both selected in that order.
func seedCubes(t *testing.T, s *Store) (a, b ir.Object) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.CreateMesh(ctx, ir.Mesh{Name: "Cube", Vertices: 8}))
	a, err := s.CreateObject(ctx, ir.NewObject{Name: "Cube", Kind: ir.KindMesh, Mesh: "Cube", Matrix: geom.Identity()})
	require.NoError(t, err)
	b, err = s.CreateObject(ctx, ir.NewObject{Name: "Cube.001", Kind: ir.KindMesh, Mesh: "Cube", Matrix: geom.Translation(geom.V3(10, 0, 0))})
	require.NoError(t, err)
	require.NoError(t, s.SetSelection(ctx, a.Name, b.Name))
	return a, b
}
