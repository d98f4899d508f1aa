// Package scene provides a SQLite-backed scene graph: meshes, objects,
// the ordered selection, and a journal of interactive sessions.
//
// It plays the host application's part for everything that places
// duplicates. Objects store world matrices; a parent link groups objects
// under an anchor but does not change their placement.
//
// # Tags
//
// Duplicate slots are tagged with (tag_session, tag_index). A unique index on
// that pair guarantees at most one object per slot. Anchors record their
// session in anchor_of, which is also unique. Tagged objects are queried
// through TagQuery, which compiles to parameterized SQL.
//
// # Deterministic Results
//
// Every list query has a total ORDER BY with an id tiebreaker, so two stores
// built by the same operations list identical objects in identical order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Parent deletes cascade to children
//
// Use ":memory:" as the path for throwaway scenes (tests, replay).
package scene
