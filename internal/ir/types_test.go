package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spread/internal/geom"
)

func TestMode_Next(t *testing.T) {
	assert.Equal(t, ModeDeviate, ModeLinear.Next())
	assert.Equal(t, ModeRandom, ModeDeviate.Next())
	assert.Equal(t, ModeLinear, ModeRandom.Next())
	assert.Equal(t, ModeLinear, Mode("spiral").Next())
}

func TestMode_Valid(t *testing.T) {
	assert.True(t, ModeRandom.Valid())
	assert.False(t, Mode("spiral").Valid())
}

func TestParams_Interior(t *testing.T) {
	assert.Equal(t, 1, Params{Count: 3}.Interior())
	assert.Equal(t, 3, Params{Count: 5}.Interior())
}

func TestInputEvent_String(t *testing.T) {
	assert.Equal(t, "RIGHT_BRACKET", Press(KeyRightBracket).String())
	assert.Equal(t, "ctrl+UP_ARROW", CtrlPress(KeyUpArrow).String())
	assert.Equal(t, "ESC:RELEASE", InputEvent{Key: KeyEscape, Phase: PhaseRelease}.String())
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.True(t, StateConfirmed.Terminal())
	assert.True(t, StateCancelled.Terminal())
}

func TestAnchorName(t *testing.T) {
	assert.Equal(t, "ANCHOR_abc", AnchorName("abc"))
}

func slot(id int64, index int, x float64) Object {
	return Object{
		ID:     id,
		Name:   "Cube.001",
		Kind:   KindMesh,
		Mesh:   "Cube",
		Matrix: geom.Translation(geom.V3(x, 0, 0)),
		Tag:    &Tag{SessionID: "s", Index: index},
	}
}

func TestSlotDigest_OrderAndIDIndependent(t *testing.T) {
	a := []Object{slot(1, 0, 2.5), slot(2, 1, 5)}
	b := []Object{slot(9, 1, 5), slot(7, 0, 2.5)}

	da, err := SlotDigest(a)
	require.NoError(t, err)
	db, err := SlotDigest(b)
	require.NoError(t, err)

	assert.Equal(t, da, db)
}

func TestSlotDigest_IgnoresUntagged(t *testing.T) {
	tagged := []Object{slot(1, 0, 2.5)}
	withRef := append([]Object{{ID: 5, Name: "Cube", Kind: KindMesh, Mesh: "Cube", Matrix: geom.Identity()}}, tagged...)

	d1, err := SlotDigest(tagged)
	require.NoError(t, err)
	d2, err := SlotDigest(withRef)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}

func TestSlotDigest_DetectsMovedSlot(t *testing.T) {
	d1, err := SlotDigest([]Object{slot(1, 0, 2.5)})
	require.NoError(t, err)
	d2, err := SlotDigest([]Object{slot(1, 0, 2.6)})
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}
