package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/utter/internal/speech"
)

// statusDisplay renders the dispatcher state for the status bar.
type statusDisplay struct {
	state   speech.StateType
	pending int
}

func (s statusDisplay) icon() string {
	switch s.state {
	case speech.StateSpeaking:
		return "▶"
	case speech.StateReady:
		return "■"
	case speech.StateInitializing:
		return "⟳"
	case speech.StateStopping:
		return "◼"
	case speech.StateError:
		return "✗"
	default:
		return "○"
	}
}

func (s statusDisplay) color() lipgloss.Color {
	switch s.state {
	case speech.StateSpeaking:
		return lipgloss.Color("#00FF00")
	case speech.StateReady:
		return lipgloss.Color("#888888")
	case speech.StateInitializing:
		return lipgloss.Color("#00AAFF")
	case speech.StateStopping:
		return lipgloss.Color("#FF8800")
	case speech.StateError:
		return lipgloss.Color("#FF0000")
	default:
		return lipgloss.Color("#666666")
	}
}

// Render returns the compact status string, e.g. "▶ speaking · 2 queued".
func (s statusDisplay) Render() string {
	stateStyle := lipgloss.NewStyle().Foreground(s.color())
	out := stateStyle.Render(fmt.Sprintf("%s %s", s.icon(), s.state))
	if s.pending > 0 {
		out += dimStyle.Render(fmt.Sprintf(" · %d queued", s.pending))
	}
	return out
}
