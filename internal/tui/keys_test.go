package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/spread/internal/ir"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyEvents(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want []ir.InputEvent
	}{
		{"right bracket", runes("]"), []ir.InputEvent{ir.Press(ir.KeyRightBracket)}},
		{"left bracket", runes("["), []ir.InputEvent{ir.Press(ir.KeyLeftBracket)}},
		{"burst", runes("]]m"), []ir.InputEvent{
			ir.Press(ir.KeyRightBracket), ir.Press(ir.KeyRightBracket), ir.Press(ir.KeyM),
		}},
		{"upper case", runes("I"), []ir.InputEvent{ir.Press(ir.KeyI)}},
		{"ctrl up", tea.KeyMsg{Type: tea.KeyCtrlUp}, []ir.InputEvent{ir.CtrlPress(ir.KeyUpArrow)}},
		{"ctrl down", tea.KeyMsg{Type: tea.KeyCtrlDown}, []ir.InputEvent{ir.CtrlPress(ir.KeyDownArrow)}},
		{"plain up", tea.KeyMsg{Type: tea.KeyUp}, []ir.InputEvent{ir.Press(ir.KeyUpArrow)}},
		{"enter confirms", tea.KeyMsg{Type: tea.KeyEnter}, []ir.InputEvent{ir.CtrlPress(ir.KeyReturn)}},
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, []ir.InputEvent{ir.Press(ir.KeyEscape)}},
		{"other letter passes", runes("g"), []ir.InputEvent{ir.Press(ir.Key("G"))}},
		{"space dropped", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, nil},
		{"alt dropped", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m"), Alt: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyEvents(tt.msg))
		})
	}
}
