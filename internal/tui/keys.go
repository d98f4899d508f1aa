package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
)

// KeyEvents translates a terminal key message into session input events.
//
// Terminals report no key releases and cannot tell ctrl+enter from enter,
// so every event is a press and enter confirms. Runes typed in one burst
// arrive as a single message and become one event each. Keys that do not
// parse as event tokens (space, alt combinations) are dropped.
func KeyEvents(msg tea.KeyMsg) []ir.InputEvent {
	switch {
	case msg.Type == tea.KeyEnter:
		return []ir.InputEvent{ir.CtrlPress(ir.KeyReturn)}
	case msg.Type == tea.KeyEsc:
		return []ir.InputEvent{ir.Press(ir.KeyEscape)}
	case msg.Alt:
		return nil
	case msg.Type == tea.KeyRunes:
		var events []ir.InputEvent
		for _, r := range msg.Runes {
			if ev, err := engine.ParseEvent(string(r)); err == nil {
				events = append(events, ev)
			}
		}
		return events
	}

	ev, err := engine.ParseEvent(msg.String())
	if err != nil {
		return nil
	}
	return []ir.InputEvent{ev}
}
