package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spread/internal/compiler"
	"github.com/roach88/spread/internal/scene"
)

func TestLoadMissingDatabaseFlag(t *testing.T) {
	_, err := execute(t, NewLoadCommand(&RootOptions{Format: "text"}), writeRig(t, pairRig))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestLoad_WritesScene(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "scene.db")

	out, err := execute(t, NewLoadCommand(&RootOptions{Format: "text"}), "--db", dbPath, writeRig(t, pairRig))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Loaded 1 mesh(es), 2 object(s)")
	assert.Contains(t, out, "Selected: [Cube Cube.001]")
	assert.NotContains(t, out, "stored as")

	st, err := scene.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sel, err := st.Selection(ctx)
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, "Cube", sel[0].Name)
	assert.Equal(t, "Cube.001", sel[1].Name)
	assert.InDelta(t, 10.0, sel[1].Location().X, 1e-9)

	mesh, err := st.FindMesh(ctx, "Cube")
	require.NoError(t, err)
	assert.Equal(t, 8, mesh.Vertices)
}

func TestLoad_TwiceRenames(t *testing.T) {
	dbPath := loadedScene(t)

	out, err := execute(t, NewLoadCommand(&RootOptions{Format: "json"}), "--db", dbPath, writeRig(t, pairRig))
	require.NoError(t, err)

	status, summary := decodeData[LoadSummary](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, "Cube.002", summary.Names["Cube"])
	assert.Equal(t, "Cube.003", summary.Names["Cube.001"])
	assert.Equal(t, []string{"Cube.002", "Cube.003"}, summary.Selection)
}

func TestLoad_Reset(t *testing.T) {
	ctx := context.Background()
	dbPath := loadedScene(t)

	out, err := execute(t, NewLoadCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--reset", writeRig(t, pairRig))
	require.NoError(t, err)
	assert.NotContains(t, out, "stored as")

	st, err := scene.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	n, err := st.CountObjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoad_InvalidRig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scene.db")
	rigDir := writeRig(t, `package rig

mesh: Cube: {}
object: Cube: {mesh: "Cube"}
object: Cone: {mesh: "Cone"}
`)

	out, err := execute(t, NewLoadCommand(&RootOptions{Format: "text"}), "--db", dbPath, rigDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, compiler.ErrUnknownMesh)
}

func TestLoad_MissingRig(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, NewLoadCommand(&RootOptions{Format: "text"}),
		"--db", filepath.Join(dir, "scene.db"), filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
