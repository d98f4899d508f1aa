// Package tui is a terminal host for a spread session.
//
// The model never touches the controller. Key presses are pushed onto an
// engine.Queue drained by Controller.Run on its own goroutine, and the
// controller's observer sends back engine.Status snapshots for rendering.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/geom"
	"github.com/roach88/spread/internal/ir"
)

// Theme holds the color scheme.
type Theme struct {
	Title   lipgloss.Color
	Label   lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Title:   lipgloss.Color("#5FAFD7"), // light blue
	Label:   lipgloss.Color("#AFAFAF"), // gray
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Label).Width(10)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// EventSink receives translated key presses. Implemented by engine.Queue.
type EventSink interface {
	Enqueue(ev ir.InputEvent) bool
}

// statusMsg carries a controller snapshot.
type statusMsg engine.Status

// closedMsg reports that the status channel was closed.
type closedMsg struct{}

// Model is the bubbletea model for one session.
type Model struct {
	sink    EventSink
	updates <-chan engine.Status
	status  engine.Status
	pair    engine.ReferencePair
	theme   Theme

	last     string // last key and its outcome
	quitting bool
}

// New creates a model for a started session. initial is the controller's
// status right after Start.
func New(sink EventSink, updates <-chan engine.Status, initial engine.Status, pair engine.ReferencePair) Model {
	return Model{
		sink:    sink,
		updates: updates,
		status:  initial,
		pair:    pair,
		theme:   defaultTheme,
	}
}

// Status returns the last snapshot the model received.
func (m Model) Status() engine.Status {
	return m.status
}

// Init starts listening for status updates.
func (m Model) Init() tea.Cmd {
	return waitForStatus(m.updates)
}

// waitForStatus blocks until the controller reports or the channel closes.
func waitForStatus(ch <-chan engine.Status) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return statusMsg(st)
	}
}

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// Cancel the session and leave once the controller reports.
			m.quitting = true
			if m.status.State.Terminal() || !m.sink.Enqueue(ir.Press(ir.KeyEscape)) {
				return m, tea.Quit
			}
			return m, nil
		}
		if m.status.State.Terminal() {
			return m, tea.Quit
		}
		for _, ev := range KeyEvents(msg) {
			m.sink.Enqueue(ev)
		}
		return m, nil

	case statusMsg:
		m.status = engine.Status(msg)
		m.last = fmt.Sprintf("%s → %s", msg.Event, msg.Outcome)
		if m.status.State.Terminal() {
			return m, tea.Quit
		}
		return m, waitForStatus(m.updates)

	case closedMsg:
		return m, tea.Quit
	}

	return m, nil
}

// View renders the session panel.
func (m Model) View() string {
	var b strings.Builder
	t := m.theme

	b.WriteString(t.titleStyle().Render("spread duplicates"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(t.labelStyle().Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	p := m.status.Params
	row("session", m.status.SessionID)
	row("between", fmt.Sprintf("%s %s and %s %s",
		m.pair.A.Name, formatVec(m.pair.A.Location()),
		m.pair.B.Name, formatVec(m.pair.B.Location())))
	row("count", fmt.Sprintf("%d (%d duplicates)", p.Count, max(p.Interior(), 0)))
	row("seed", fmt.Sprintf("%d", p.Seed))
	row("mode", string(p.Mode))
	row("matrices", fmt.Sprintf("%t", p.InterpolateMatrices))

	if r := m.status.Report; r.Changed() || len(r.Updated) > 0 {
		row("last", fmt.Sprintf("+%d ~%d -%d", len(r.Created), len(r.Updated), len(r.Removed)))
	}
	if m.last != "" {
		row("key", m.last)
	}

	b.WriteString("\n")
	switch m.status.State {
	case ir.StateConfirmed:
		b.WriteString(t.successStyle().Render("✓ confirmed"))
	case ir.StateCancelled:
		b.WriteString(t.errorStyle().Render("✗ cancelled"))
	default:
		b.WriteString(string(m.status.State))
	}
	b.WriteString("\n")

	if m.status.Err != nil {
		b.WriteString(t.errorStyle().Render("error: " + m.status.Err.Error()))
		b.WriteString("\n")
	}

	if !m.status.State.Terminal() {
		b.WriteString("\n")
		b.WriteString(t.hintStyle().Render("] / [ count · ctrl+↑/↓ seed · m mode · i matrices · enter confirm · esc cancel"))
		b.WriteString("\n")
	}

	return b.String()
}

func formatVec(v geom.Vec3) string {
	return fmt.Sprintf("(%.3g, %.3g, %.3g)", v.X, v.Y, v.Z)
}
