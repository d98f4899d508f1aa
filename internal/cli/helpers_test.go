package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// pairRig is two cubes ten units apart on X, selected as a reference pair.
const pairRig = `package rig

mesh: Cube: {vertices: 8}

object: Cube: {mesh: "Cube", location: [0, 0, 0]}
object: "Cube.001": {mesh: "Cube", location: [10, 0, 0]}

selection: ["Cube", "Cube.001"]
`

// writeRig writes src as rig.cue in a fresh directory and returns it.
func writeRig(t *testing.T, src string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "rig")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rig.cue"), []byte(src), 0644))
	return dir
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// loadedScene returns a scene database holding the pair rig.
func loadedScene(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "scene.db")
	_, err := execute(t, NewLoadCommand(&RootOptions{Format: "text"}), "--db", dbPath, writeRig(t, pairRig))
	require.NoError(t, err)
	return dbPath
}

// decodeData decodes a CLIResponse whose data has type T.
func decodeData[T any](t *testing.T, out string) (string, T) {
	t.Helper()
	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp.Status, resp.Data
}
