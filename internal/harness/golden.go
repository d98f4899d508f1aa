package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/spread/internal/ir"
)

// SceneSnapshot captures the outcome of a scenario run for golden comparison.
// All fields use canonical JSON serialization for deterministic comparison.
type SceneSnapshot struct {
	ScenarioName string
	SessionID    string
	State        ir.State
	Params       ir.Params
	Trace        []TraceEvent
	Slots        []Slot
	Digest       string
}

// NewSceneSnapshot builds the snapshot of a scenario result.
func NewSceneSnapshot(name string, result *Result) SceneSnapshot {
	return SceneSnapshot{
		ScenarioName: name,
		SessionID:    result.SessionID,
		State:        result.State,
		Params:       result.Params,
		Trace:        result.Trace,
		Slots:        result.Slots,
		Digest:       result.Digest,
	}
}

// toCanonicalMap converts a snapshot to a map[string]any for canonical JSON
// serialization. Locations are rounded like slot digests.
func (s SceneSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = map[string]any{
			"seq":     ev.Seq,
			"event":   ev.Event,
			"outcome": ev.Outcome,
			"count":   ev.Params.Count,
			"seed":    ev.Params.Seed,
			"mode":    string(ev.Params.Mode),
		}
	}

	slots := make([]any, len(s.Slots))
	for i, slot := range s.Slots {
		slots[i] = map[string]any{
			"index": slot.Index,
			"name":  slot.Name,
			"location": []any{
				ir.Round(slot.Location[0]),
				ir.Round(slot.Location[1]),
				ir.Round(slot.Location[2]),
			},
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"session_id":    s.SessionID,
		"state":         string(s.State),
		"params": map[string]any{
			"count":                s.Params.Count,
			"seed":                 s.Params.Seed,
			"mode":                 string(s.Params.Mode),
			"interpolate_matrices": s.Params.InterpolateMatrices,
			"deviation":            ir.Round(s.Params.Deviation),
		},
		"trace":  trace,
		"slots":  slots,
		"digest": s.Digest,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s SceneSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
// unless opts override the fixture dir.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result, opts...); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	data, err := NewSceneSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := newGoldie(t, opts...)
	g.Assert(t, scenarioName, data)
	return nil
}

// UpdateGolden writes result's snapshot as the golden file for scenarioName.
func UpdateGolden(t *testing.T, scenarioName string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	data, err := NewSceneSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}
	return newGoldie(t, opts...).Update(t, scenarioName, data)
}

func newGoldie(t *testing.T, opts ...goldie.Option) *goldie.Goldie {
	base := []goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}
	return goldie.New(t, append(base, opts...)...)
}
