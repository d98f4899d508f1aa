// Package ir provides the typed records shared by every spread package:
// scene objects, duplicate tags, session parameters, input events and the
// journal records written for each session.
//
// This package contains type definitions and canonical serialization only.
// It imports nothing internal except geom, so it remains the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Tags are explicit typed records, never ad hoc key/value metadata.
//   - Duplicate indices are 0-based and contiguous per session.
//   - Logical clocks (seq) order journal records, never wall-clock time.
//   - All JSON tags use snake_case.
package ir
