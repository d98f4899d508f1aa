package scene

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
)

// marshalMatrix stores a matrix as a canonical JSON array of 16 numbers in
// row-major order. Shortest round-trip float formatting keeps it lossless.
func marshalMatrix(m geom.Mat4) (string, error) {
	flat := make([]float64, 0, 16)
	for r := 0; r < 4; r++ {
		flat = append(flat, m[r][:]...)
	}
	data, err := ir.MarshalCanonical(flat)
	if err != nil {
		return "", fmt.Errorf("marshal matrix: %w", err)
	}
	return string(data), nil
}

func unmarshalMatrix(data string) (geom.Mat4, error) {
	var flat []float64
	if err := json.Unmarshal([]byte(data), &flat); err != nil {
		return geom.Mat4{}, fmt.Errorf("unmarshal matrix: %w", err)
	}
	if len(flat) != 16 {
		return geom.Mat4{}, fmt.Errorf("unmarshal matrix: want 16 values, got %d", len(flat))
	}
	var m geom.Mat4
	for i, v := range flat {
		m[i/4][i%4] = v
	}
	return m, nil
}

func marshalParams(p ir.Params) (string, error) {
	data, err := ir.MarshalCanonical(map[string]any{
		"count":                p.Count,
		"seed":                 p.Seed,
		"mode":                 string(p.Mode),
		"interpolate_matrices": p.InterpolateMatrices,
		"deviation":            p.Deviation,
	})
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

func unmarshalParams(data string) (ir.Params, error) {
	var p ir.Params
	if data == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ir.Params{}, fmt.Errorf("unmarshal params: %w", err)
	}
	return p, nil
}

func marshalEvent(e ir.InputEvent) (string, error) {
	data, err := ir.MarshalCanonical(map[string]any{
		"key":   string(e.Key),
		"ctrl":  e.Ctrl,
		"phase": string(e.Phase),
	})
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(data), nil
}

func unmarshalEvent(data string) (ir.InputEvent, error) {
	var e ir.InputEvent
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return ir.InputEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return e, nil
}
