// Package engine runs interactive spread sessions.
//
// A Controller owns one session. Start checks the invocation context (a 3D
// view, exactly two selected mesh objects sharing one mesh), snapshots the
// reference pair, mints a session id and places the first duplicate. Every
// accepted input event then mutates the session params and triggers a full
// recompute and reconcile:
//
//	input event -> params -> interp.Compute -> dupset.Reconcile -> scene
//
// Key bindings:
//
//	]  / [              count +1 / -1 (never below MinCount)
//	ctrl+up / ctrl+down seed +1 / -1 (never below 0)
//	M                   cycle mode linear -> deviate -> random
//	I                   toggle full-matrix interpolation
//	ctrl+RET            confirm, keep the duplicates
//	ESC / RIGHTMOUSE    cancel, remove every duplicate and the anchor
//
// Anything else passes through to the host.
//
// ARCHITECTURE:
//
// Single-goroutine controller. Start, Handle and Run are called from one
// goroutine and the controller holds no locks. Other goroutines deliver input
// by enqueuing into a Queue that Run drains. Each event is handled to
// completion, scene writes included, before the next one is read.
//
// Logical Clock. Journal entries are stamped with a monotonic seq from a
// Clock, never wall time, so Replay reproduces a session event for event.
//
// Errors inside Handle are logged and kept in LastError; they never stop the
// session. Start reports failed preconditions as *PreconditionError.
package engine
