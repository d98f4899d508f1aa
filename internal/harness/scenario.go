package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/spread/internal/compiler"
	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
)

// Scenario defines one scripted session and the scene it should leave.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rig is a CUE rig directory. Relative paths are resolved against the
	// scenario file's directory. Mutually exclusive with Scene.
	Rig string `yaml:"rig,omitempty"`

	// Scene is an inline scene. Mutually exclusive with Rig.
	Scene *SceneSpec `yaml:"scene,omitempty"`

	// View is the invoking editor area. Defaults to VIEW_3D.
	View string `yaml:"view,omitempty"`

	// SessionID fixes the session id. Defaults to testutil.DefaultSessionID.
	SessionID string `yaml:"session_id,omitempty"`

	// Params overrides the rig defaults for the session's starting params.
	Params *ParamsSpec `yaml:"params,omitempty"`

	// Events are event tokens in engine.ParseEvents syntax. One entry may
	// hold several whitespace-separated tokens.
	Events []string `yaml:"events,omitempty"`

	// Expect checks the controller's final state and params.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the final scene.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SceneSpec is an inline scene description.
type SceneSpec struct {
	Meshes    []MeshSpec   `yaml:"meshes"`
	Objects   []ObjectSpec `yaml:"objects"`
	Selection []string     `yaml:"selection,omitempty"`
}

// MeshSpec declares a mesh.
type MeshSpec struct {
	Name     string `yaml:"name"`
	Vertices int    `yaml:"vertices,omitempty"`
}

// ObjectSpec declares an object. Rotation is XYZ Euler in degrees; scale
// defaults to [1, 1, 1].
type ObjectSpec struct {
	Name     string    `yaml:"name"`
	Mesh     string    `yaml:"mesh,omitempty"`
	Location []float64 `yaml:"location,omitempty"`
	Rotation []float64 `yaml:"rotation,omitempty"`
	Scale    []float64 `yaml:"scale,omitempty"`
}

// ParamsSpec overrides individual starting params.
type ParamsSpec struct {
	Count               *int     `yaml:"count,omitempty"`
	Seed                *int64   `yaml:"seed,omitempty"`
	Mode                *string  `yaml:"mode,omitempty"`
	InterpolateMatrices *bool    `yaml:"interpolate_matrices,omitempty"`
	Deviation           *float64 `yaml:"deviation,omitempty"`
}

// ExpectClause specifies the expected controller outcome.
type ExpectClause struct {
	// State is the expected final session state (RUNNING, CONFIRMED, CANCELLED,
	// or IDLE when the session never started).
	State string `yaml:"state,omitempty"`

	// Error is the expected precondition code when start is refused.
	Error string `yaml:"error,omitempty"`

	Count *int   `yaml:"count,omitempty"`
	Seed  *int64 `yaml:"seed,omitempty"`
	Mode  string `yaml:"mode,omitempty"`
}

// Assertion validates the final scene.
type Assertion struct {
	// Type specifies the assertion type:
	// - "slot_count": number of session slots equals Count
	// - "slot_location": slot Index sits at Location (within Tolerance)
	// - "contiguous": slot indices are 0..n-1
	// - "anchor": the session anchor exists iff Present
	// - "object_count": total scene objects equals Count
	Type string `yaml:"type"`

	Count     *int      `yaml:"count,omitempty"`
	Index     *int      `yaml:"index,omitempty"`
	Location  []float64 `yaml:"location,omitempty"`
	Tolerance float64   `yaml:"tolerance,omitempty"`
	Present   *bool     `yaml:"present,omitempty"`
}

// Assertion type constants.
const (
	AssertSlotCount    = "slot_count"
	AssertSlotLocation = "slot_location"
	AssertContiguous   = "contiguous"
	AssertAnchor       = "anchor"
	AssertObjectCount  = "object_count"
)

// LoadScenario reads and parses a scenario YAML file, resolving a relative
// rig path against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative rig path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Rig != "" && !filepath.IsAbs(scenario.Rig) && basePath != "" {
		scenario.Rig = filepath.Join(basePath, scenario.Rig)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Rig == "" && s.Scene == nil:
		return fmt.Errorf("one of rig or scene is required")
	case s.Rig != "" && s.Scene != nil:
		return fmt.Errorf("rig and scene are mutually exclusive")
	}

	if s.Rig != "" {
		if info, err := os.Stat(s.Rig); err != nil || !info.IsDir() {
			return fmt.Errorf("rig directory not found: %s", s.Rig)
		}
	}

	if s.Scene != nil {
		for i, obj := range s.Scene.Objects {
			if obj.Name == "" {
				return fmt.Errorf("scene.objects[%d]: name is required", i)
			}
			for field, vec := range map[string][]float64{
				"location": obj.Location,
				"rotation": obj.Rotation,
				"scale":    obj.Scale,
			} {
				if vec != nil && len(vec) != 3 {
					return fmt.Errorf("scene.objects[%d].%s: expected 3 components, got %d", i, field, len(vec))
				}
			}
		}
	}

	if _, err := s.events(); err != nil {
		return fmt.Errorf("events: %w", err)
	}

	if s.Params != nil && s.Params.Mode != nil && !ir.Mode(*s.Params.Mode).Valid() {
		return fmt.Errorf("params.mode: unknown mode %q", *s.Params.Mode)
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSlotCount, AssertObjectCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertSlotLocation:
		if a.Index == nil {
			return fmt.Errorf("assertions[%d]: index is required for slot_location", index)
		}
		if len(a.Location) != 3 {
			return fmt.Errorf("assertions[%d]: location needs 3 components for slot_location", index)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertContiguous:
	case AssertAnchor:
		if a.Present == nil {
			return fmt.Errorf("assertions[%d]: present is required for anchor", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// events parses the scenario's event tokens.
func (s *Scenario) events() ([]ir.InputEvent, error) {
	var all []ir.InputEvent
	for i, tokens := range s.Events {
		evs, err := engine.ParseEvents(tokens)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		all = append(all, evs...)
	}
	return all, nil
}

// view returns the invoking area, VIEW_3D unless overridden.
func (s *Scenario) view() engine.View {
	if s.View == "" {
		return engine.View{Area: engine.AreaView3D}
	}
	return engine.View{Area: s.View}
}

// rig compiles the scenario's scene source.
func (s *Scenario) rig() (*compiler.Rig, error) {
	if s.Rig != "" {
		return compiler.LoadRig(s.Rig)
	}
	return s.Scene.Rig(), nil
}

// Rig converts the inline scene into a compiler.Rig.
func (sc *SceneSpec) Rig() *compiler.Rig {
	rig := &compiler.Rig{
		Selection: sc.Selection,
		Defaults:  engine.DefaultConfig(),
	}
	for _, m := range sc.Meshes {
		rig.Meshes = append(rig.Meshes, ir.Mesh{Name: m.Name, Vertices: m.Vertices})
	}
	for _, o := range sc.Objects {
		rig.Objects = append(rig.Objects, compiler.RigObject{
			Name:     o.Name,
			Mesh:     o.Mesh,
			Location: vec3(o.Location, geom.Vec3{}),
			Rotation: vec3(o.Rotation, geom.Vec3{}),
			Scale:    vec3(o.Scale, geom.V3(1, 1, 1)),
		})
	}
	return rig
}

// config layers the params overrides over base.
func (p *ParamsSpec) config(base engine.Config) engine.Config {
	if p == nil {
		return base
	}
	if p.Count != nil {
		base.Count = *p.Count
	}
	if p.Seed != nil {
		base.Seed = *p.Seed
	}
	if p.Mode != nil {
		base.Mode = ir.Mode(*p.Mode)
	}
	if p.InterpolateMatrices != nil {
		base.InterpolateMatrices = *p.InterpolateMatrices
	}
	if p.Deviation != nil {
		base.Deviation = *p.Deviation
	}
	return base
}

func vec3(v []float64, def geom.Vec3) geom.Vec3 {
	if len(v) != 3 {
		return def
	}
	return geom.V3(v[0], v[1], v[2])
}
