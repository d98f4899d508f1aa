package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/spread/internal/ir"
)

// keyAliases maps lower-case token names to keys. Canonical key names
// (as printed by ir.InputEvent.String) are accepted too.
var keyAliases = map[string]ir.Key{
	"[":          ir.KeyLeftBracket,
	"]":          ir.KeyRightBracket,
	"up":         ir.KeyUpArrow,
	"down":       ir.KeyDownArrow,
	"enter":      ir.KeyReturn,
	"return":     ir.KeyReturn,
	"esc":        ir.KeyEscape,
	"escape":     ir.KeyEscape,
	"rmb":        ir.KeyRightMouse,
	"rightmouse": ir.KeyRightMouse,
	"m":          ir.KeyM,
	"i":          ir.KeyI,
}

func init() {
	for _, k := range []ir.Key{
		ir.KeyLeftBracket, ir.KeyRightBracket, ir.KeyUpArrow, ir.KeyDownArrow,
		ir.KeyReturn, ir.KeyEscape, ir.KeyRightMouse, ir.KeyM, ir.KeyI,
	} {
		keyAliases[strings.ToLower(string(k))] = k
	}
}

var otherKey = regexp.MustCompile(`^[a-z0-9_]+$`)

// ParseEvent parses one event token.
//
// Syntax: [ctrl+]key[:release]. Keys are the aliases "[", "]", up, down,
// enter, esc, rmb, m, i, or any canonical key name; matching is
// case-insensitive. Other plain words become keys the session passes
// through. Events are presses unless suffixed with ":release".
func ParseEvent(token string) (ir.InputEvent, error) {
	s := strings.ToLower(strings.TrimSpace(token))
	ev := ir.InputEvent{Phase: ir.PhasePress}

	if rest, ok := strings.CutSuffix(s, ":release"); ok {
		s = rest
		ev.Phase = ir.PhaseRelease
	} else if rest, ok := strings.CutSuffix(s, ":press"); ok {
		s = rest
	}
	if rest, ok := strings.CutPrefix(s, "ctrl+"); ok {
		s = rest
		ev.Ctrl = true
	}

	if key, ok := keyAliases[s]; ok {
		ev.Key = key
		return ev, nil
	}
	if otherKey.MatchString(s) {
		ev.Key = ir.Key(strings.ToUpper(s))
		return ev, nil
	}
	return ir.InputEvent{}, fmt.Errorf("invalid event token %q", token)
}

// ParseEvents parses a whitespace-separated token list such as
// "] ] ctrl+up ctrl+enter".
func ParseEvents(s string) ([]ir.InputEvent, error) {
	fields := strings.Fields(s)
	events := make([]ir.InputEvent, 0, len(fields))
	for i, f := range fields {
		ev, err := ParseEvent(f)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// FormatEvents renders events so ParseEvents reads them back unchanged.
func FormatEvents(events []ir.InputEvent) string {
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}
