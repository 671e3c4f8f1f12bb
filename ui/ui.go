// Package ui provides the interactive prompt for speaking typed text.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/utter/internal/sanitize"
	"github.com/dgnsrekt/utter/internal/speech"
)

const resultBuffer = 16

// NewProgram returns a new Tea program wired to the given sanitizer and
// dispatcher. The caller owns both and shuts the dispatcher down after the
// program exits.
func NewProgram(cfg Config, sanitizer *sanitize.Sanitizer, dispatcher *speech.Dispatcher) *tea.Program {
	log.Info("starting ui", "engine", cfg.Engine)
	m := newModel(cfg, sanitizer, dispatcher)
	return tea.NewProgram(m, tea.WithAltScreen())
}

type model struct {
	cfg        Config
	sanitizer  *sanitize.Sanitizer
	dispatcher *speech.Dispatcher

	input   textinput.Model
	results chan resultMsg

	status   statusDisplay
	lastSaid string
	errText  string
	width    int
	quitting bool
}

func newModel(cfg Config, sanitizer *sanitize.Sanitizer, dispatcher *speech.Dispatcher) model {
	ti := textinput.New()
	ti.Placeholder = "Type something to say it aloud"
	ti.PromptStyle = promptStyle
	ti.CharLimit = cfg.MaxLength
	ti.Focus()

	m := model{
		cfg:        cfg,
		sanitizer:  sanitizer,
		dispatcher: dispatcher,
		input:      ti,
		results:    make(chan resultMsg, resultBuffer),
		status:     statusDisplay{state: dispatcher.State()},
	}

	// Results arrive on the worker goroutine. The channel send must never
	// block it, so a full buffer drops the update; the next status tick
	// catches the UI up.
	dispatcher.OnResult(func(req *speech.Request, _ error) {
		select {
		case m.results <- resultMsg{Request: req}:
		default:
		}
	})

	return m
}

func (m model) statusInterval() time.Duration {
	if m.cfg.StatusInterval <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(m.cfg.StatusInterval) * time.Millisecond
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForResult(m.results),
		statusTick(m.statusInterval()),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			m.dispatcher.CancelAll()
			return m, tea.Quit

		case tea.KeyEsc:
			if m.input.Value() != "" {
				m.input.Reset()
				return m, nil
			}
			m.dispatcher.CancelAll()
			m.errText = ""
			return m, nil

		case tea.KeyEnter:
			return m.speak()
		}

	case resultMsg:
		m.applyResult(msg.Request)
		return m, waitForResult(m.results)

	case statusTickMsg:
		m.status = statusDisplay{
			state:   m.dispatcher.State(),
			pending: m.dispatcher.Pending(),
		}
		return m, statusTick(m.statusInterval())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// speak sanitizes the current input and hands it to the dispatcher. Enqueue
// never blocks, so this is safe from the Update loop.
func (m model) speak() (tea.Model, tea.Cmd) {
	text := m.input.Value()

	utt, err := m.sanitizer.Sanitize(text)
	if err != nil {
		m.errText = err.Error()
		log.Debug("input rejected", "err", err)
		return m, nil
	}

	if _, err := m.dispatcher.Enqueue(utt); err != nil {
		m.errText = err.Error()
		log.Debug("enqueue failed", "err", err)
		return m, nil
	}

	m.errText = ""
	m.input.Reset()
	m.status.pending = m.dispatcher.Pending()
	return m, nil
}

// applyResult records a finished request on the status area.
func (m *model) applyResult(req *speech.Request) {
	m.status.pending = m.dispatcher.Pending()
	switch req.State() {
	case speech.RequestDone:
		m.lastSaid = req.Text()
		m.errText = ""
	case speech.RequestFailed:
		m.errText = req.Err().Error()
	case speech.RequestCanceled:
		m.lastSaid = ""
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("utter") + "\n\n")
	b.WriteString("  " + m.input.View() + "\n\n")
	b.WriteString("  " + m.status.Render() + "\n")

	if m.errText != "" {
		b.WriteString("  " + errorStyle.Render(m.fit("✗ "+m.errText)) + "\n")
	} else if m.lastSaid != "" {
		b.WriteString("  " + spokenStyle.Render(m.fit(fmt.Sprintf("said: %q", m.lastSaid))) + "\n")
	}

	b.WriteString("\n  " + helpStyle.Render("enter: speak • esc: cancel • ctrl+c: quit") + "\n")
	return b.String()
}

// fit truncates a status line to the window width.
func (m model) fit(s string) string {
	if m.width <= 4 {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width-4), "…")
}
