// Package harness runs scripted spread sessions from YAML scenario files and
// checks the resulting scene.
//
// # Scenario Format
//
//	name: grow_and_confirm
//	description: "Two increments then confirm"
//	rig: rigs/pair          # CUE rig directory, relative to the scenario file
//	scene:                  # or an inline scene instead of rig
//	  meshes: [{name: Cube, vertices: 8}]
//	  objects:
//	    - {name: Cube, mesh: Cube, location: [0, 0, 0]}
//	    - {name: Cube.001, mesh: Cube, location: [10, 0, 0]}
//	  selection: [Cube, Cube.001]
//	view: VIEW_3D
//	session_id: grow-1
//	params: {count: 3, mode: linear}
//	events: ["]", "]", "ctrl+enter"]
//	expect: {state: CONFIRMED, count: 5}
//	assertions:
//	  - type: slot_count
//	    count: 3
//	  - type: slot_location
//	    index: 0
//	    location: [2.5, 0, 0]
//	  - type: contiguous
//	  - type: anchor
//	    present: true
//	  - type: object_count
//	    count: 6
//
// # Assertion Types
//
//   - slot_count: number of tagged objects of the session
//   - slot_location: location of one slot, within an optional tolerance
//   - contiguous: slot indices are exactly 0..n-1
//   - anchor: whether the session anchor exists
//   - object_count: total number of objects in the scene
//
// # Deterministic Testing
//
// Each scenario runs in a fresh in-memory scene with a fixed session id
// (testutil.FixedSessionGenerator) and a logical clock starting at 1
// (testutil.DeterministicClock), so repeated runs produce identical scenes,
// journals and slot digests.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/grow.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
