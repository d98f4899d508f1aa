package ir

import (
	"fmt"

	"github.com/roach88/spread/internal/geom"
)

// ObjectKind distinguishes geometry-carrying objects from empties.
type ObjectKind string

const (
	// KindMesh objects reference mesh data.
	KindMesh ObjectKind = "MESH"
	// KindEmpty objects carry only a transform (used for session anchors).
	KindEmpty ObjectKind = "EMPTY"
)

// AnchorPrefix prefixes the deterministic name of a session anchor.
const AnchorPrefix = "ANCHOR_"

// AnchorName returns the anchor object name for a session.
func AnchorName(sessionID string) string {
	return AnchorPrefix + sessionID
}

// Mesh is shared geometry data. Objects reference it by name.
type Mesh struct {
	Name     string `json:"name"`
	Vertices int    `json:"vertices"`
}

// Tag marks an object as duplicate slot Index of session SessionID.
type Tag struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// Object is a scene object as read from the scene store.
type Object struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Kind     ObjectKind `json:"kind"`
	Mesh     string     `json:"mesh,omitempty"`
	Matrix   geom.Mat4  `json:"matrix"`
	ParentID int64      `json:"parent_id,omitempty"` // 0 = no parent
	Tag      *Tag       `json:"tag,omitempty"`
	AnchorOf string     `json:"anchor_of,omitempty"` // session id when this is an anchor
	Selected bool       `json:"selected"`
}

// Location returns the object's translation.
func (o Object) Location() geom.Vec3 {
	return o.Matrix.Location()
}

// NewObject describes an object to create. The store may rename it to keep
// names unique.
type NewObject struct {
	Name     string
	Kind     ObjectKind
	Mesh     string
	Matrix   geom.Mat4
	ParentID int64
	Tag      *Tag
	AnchorOf string
}

// Transform is a target placement for one duplicate slot.
// When Full is false only the location is applied and the object's basis
// (rotation/scale) is left as it is.
type Transform struct {
	Matrix geom.Mat4 `json:"matrix"`
	Full   bool      `json:"full"`
}

// LocationTransform targets a location only.
func LocationTransform(loc geom.Vec3) Transform {
	return Transform{Matrix: geom.Translation(loc)}
}

// MatrixTransform targets a full affine matrix.
func MatrixTransform(m geom.Mat4) Transform {
	return Transform{Matrix: m, Full: true}
}

// Location returns the targeted translation.
func (t Transform) Location() geom.Vec3 {
	return t.Matrix.Location()
}

// Mode selects how interpolation fractions are spread.
type Mode string

const (
	ModeLinear  Mode = "linear"
	ModeDeviate Mode = "deviate"
	ModeRandom  Mode = "random"
)

// Modes lists the recognized modes in cycling order.
var Modes = []Mode{ModeLinear, ModeDeviate, ModeRandom}

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// Next returns the mode after m in cycling order. Unknown modes cycle to linear.
func (m Mode) Next() Mode {
	for i, known := range Modes {
		if m == known {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeLinear
}

// Params is the mutable state of a running session.
type Params struct {
	// Count is the total number of items including both reference objects.
	Count int `json:"count"`
	// Seed drives random and deviate modes.
	Seed int64 `json:"seed"`
	Mode Mode  `json:"mode"`
	// InterpolateMatrices places duplicates with full interpolated matrices
	// instead of locations only.
	InterpolateMatrices bool `json:"interpolate_matrices"`
	// Deviation is the jitter amplitude for deviate mode, in [0, 1].
	Deviation float64 `json:"deviation"`
}

// Interior returns the number of duplicates strictly between the references.
func (p Params) Interior() int {
	return p.Count - 2
}

// String renders params for logs and the terminal host.
func (p Params) String() string {
	return fmt.Sprintf("count=%d seed=%d mode=%s matrices=%t", p.Count, p.Seed, p.Mode, p.InterpolateMatrices)
}

// State is the lifecycle state of a session.
type State string

const (
	StateIdle      State = "IDLE"
	StateRunning   State = "RUNNING"
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled
}

// Key names a physical key or button as delivered by the host.
type Key string

const (
	KeyLeftBracket  Key = "LEFT_BRACKET"
	KeyRightBracket Key = "RIGHT_BRACKET"
	KeyUpArrow      Key = "UP_ARROW"
	KeyDownArrow    Key = "DOWN_ARROW"
	KeyReturn       Key = "RET"
	KeyEscape       Key = "ESC"
	KeyRightMouse   Key = "RIGHTMOUSE"
	KeyM            Key = "M"
	KeyI            Key = "I"
)

// Phase is the press/release phase of an input event.
type Phase string

const (
	PhasePress   Phase = "PRESS"
	PhaseRelease Phase = "RELEASE"
)

// InputEvent is one discrete input delivered by the host.
type InputEvent struct {
	Key   Key   `json:"key"`
	Ctrl  bool  `json:"ctrl,omitempty"`
	Phase Phase `json:"phase"`
}

// Press returns a press event for key.
func Press(key Key) InputEvent {
	return InputEvent{Key: key, Phase: PhasePress}
}

// CtrlPress returns a press event for key with the ctrl modifier held.
func CtrlPress(key Key) InputEvent {
	return InputEvent{Key: key, Ctrl: true, Phase: PhasePress}
}

// String renders the event as "ctrl+UP_ARROW" or "RIGHT_BRACKET:RELEASE".
func (e InputEvent) String() string {
	s := string(e.Key)
	if e.Ctrl {
		s = "ctrl+" + s
	}
	if e.Phase == PhaseRelease {
		s += ":" + string(PhaseRelease)
	}
	return s
}

// SessionRecord is the journal row written when a session starts and
// updated when it ends.
type SessionRecord struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Mesh      string    `json:"mesh"`
	BaseName  string    `json:"base_name"`
	RefA      string    `json:"ref_a"`
	RefB      string    `json:"ref_b"`
	MatrixA   geom.Mat4 `json:"matrix_a"`
	MatrixB   geom.Mat4 `json:"matrix_b"`
	Initial   Params    `json:"initial"`
	Final     Params    `json:"final"`
	StartSeq  int64     `json:"start_seq"`
	EndSeq    int64     `json:"end_seq,omitempty"`
	IRVersion string    `json:"ir_version"`
}

// EventRecord is one journaled input event and how the session treated it.
type EventRecord struct {
	SessionID string     `json:"session_id"`
	Seq       int64      `json:"seq"`
	Event     InputEvent `json:"event"`
	Outcome   string     `json:"outcome"`
}
