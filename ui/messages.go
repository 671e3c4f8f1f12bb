package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/utter/internal/speech"
)

// Message types for the Bubble Tea command pattern. Dispatcher events happen
// on the worker goroutine; they reach the UI only as messages so the Update
// loop never touches speech state concurrently.

// resultMsg is sent when a playback request finishes, fails, or is canceled.
type resultMsg struct {
	Request *speech.Request
}

// statusTickMsg drives the periodic status line refresh while speech is
// active.
type statusTickMsg time.Time

// waitForResult blocks on the result channel and delivers the next finished
// request. Re-armed after every resultMsg.
func waitForResult(ch <-chan resultMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// statusTick schedules the next status refresh.
func statusTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}
