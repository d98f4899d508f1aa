package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/scene"
)

// OpenScene opens an in-memory scene closed at test cleanup.
func OpenScene(t testing.TB) *scene.Store {
	t.Helper()
	s, err := scene.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// SeedPair adds mesh "Cube" and two objects sharing it, "Cube" at a and
// "Cube.001" at b, selected in that order.
func SeedPair(t testing.TB, s *scene.Store, a, b geom.Vec3) {
	t.Helper()
	SeedPairMatrices(t, s, geom.Translation(a), geom.Translation(b))
}

// SeedPairMatrices is SeedPair with full reference matrices.
func SeedPairMatrices(t testing.TB, s *scene.Store, a, b geom.Mat4) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.CreateMesh(ctx, ir.Mesh{Name: "Cube", Vertices: 8}))
	_, err := s.CreateObject(ctx, ir.NewObject{Name: "Cube", Kind: ir.KindMesh, Mesh: "Cube", Matrix: a})
	require.NoError(t, err)
	_, err = s.CreateObject(ctx, ir.NewObject{Name: "Cube.001", Kind: ir.KindMesh, Mesh: "Cube", Matrix: b})
	require.NoError(t, err)
	require.NoError(t, s.SetSelection(ctx, "Cube", "Cube.001"))
}

// SlotLocations returns the locations of a session's slots in index order.
func SlotLocations(t testing.TB, s *scene.Store, session string) []geom.Vec3 {
	t.Helper()
	slots, err := s.ListTagged(context.Background(), session)
	require.NoError(t, err)

	locs := make([]geom.Vec3, len(slots))
	for i, o := range slots {
		require.Equal(t, i, o.Tag.Index, "slot indices must be contiguous")
		locs[i] = o.Location()
	}
	return locs
}
