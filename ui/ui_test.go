package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/utter/internal/sanitize"
	"github.com/dgnsrekt/utter/internal/speech"
	"github.com/dgnsrekt/utter/internal/speech/engines/mock"
)

type nopPlayer struct{}

func (nopPlayer) Play(*speech.Audio) error { return nil }
func (nopPlayer) Stop() error              { return nil }
func (nopPlayer) Close() error             { return nil }

func newTestModel(t *testing.T) (model, *mock.Engine) {
	t.Helper()

	engine := mock.New()
	dispatcher := speech.New(engine, nopPlayer{}, speech.DefaultDispatcherConfig())
	sanitizer := sanitize.New(sanitize.DefaultPolicy())
	m := newModel(Config{Engine: "mock", MaxLength: sanitize.DefaultMaxLength}, sanitizer, dispatcher)

	if err := dispatcher.Initialize(speech.EngineConfig{Rate: 1.0, Volume: 1.0}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = dispatcher.Shutdown(ctx)
	})

	return m, engine
}

func typeText(m model, text string) model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(model)
}

func pressKey(m model, key tea.KeyType) (model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(model), cmd
}

func waitForCalls(t *testing.T, engine *mock.Engine, want int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := engine.Calls(); len(calls) >= want {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("engine saw %d calls, want %d", len(engine.Calls()), want)
	return nil
}

func TestSpeakOnEnter(t *testing.T) {
	m, engine := newTestModel(t)

	m = typeText(m, "hello world")
	m, _ = pressKey(m, tea.KeyEnter)

	if m.input.Value() != "" {
		t.Errorf("input not cleared after enter: %q", m.input.Value())
	}
	if m.errText != "" {
		t.Errorf("unexpected error: %q", m.errText)
	}

	calls := waitForCalls(t, engine, 1)
	if calls[0] != "hello world" {
		t.Errorf("engine got %q, want %q", calls[0], "hello world")
	}
}

func TestEnterWithEmptyInputShowsError(t *testing.T) {
	m, engine := newTestModel(t)

	m, _ = pressKey(m, tea.KeyEnter)

	if m.errText == "" {
		t.Fatal("expected an error for empty input")
	}
	if calls := engine.Calls(); len(calls) != 0 {
		t.Errorf("engine called %d times for empty input", len(calls))
	}
}

func TestInputStrippedToNothingShowsError(t *testing.T) {
	m, engine := newTestModel(t)

	m = typeText(m, "$|<>&")
	m, _ = pressKey(m, tea.KeyEnter)

	if m.errText == "" {
		t.Fatal("expected an error when stripping removes everything")
	}
	if calls := engine.Calls(); len(calls) != 0 {
		t.Errorf("engine called %d times, want 0", len(calls))
	}
}

func TestEscClearsInputFirst(t *testing.T) {
	m, _ := newTestModel(t)

	m = typeText(m, "half-typed")
	m, _ = pressKey(m, tea.KeyEsc)

	if m.input.Value() != "" {
		t.Errorf("esc did not clear input: %q", m.input.Value())
	}
}

func TestFailedRequestSurfacesError(t *testing.T) {
	m, engine := newTestModel(t)
	engine.SetFailure(speech.ErrPlayback)

	m = typeText(m, "doomed")
	m, _ = pressKey(m, tea.KeyEnter)

	waitForCalls(t, engine, 1)

	// The worker delivers the failure on the result channel.
	select {
	case msg := <-m.results:
		next, _ := m.Update(msg)
		m = next.(model)
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
	}

	if m.errText == "" {
		t.Error("failure not shown in status area")
	}
}

func TestViewShowsHelp(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	for _, want := range []string{"utter", "enter: speak", "ctrl+c: quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestStatusDisplayRender(t *testing.T) {
	tests := []struct {
		name    string
		display statusDisplay
		want    string
	}{
		{"ready", statusDisplay{state: speech.StateReady}, "ready"},
		{"speaking", statusDisplay{state: speech.StateSpeaking}, "speaking"},
		{"queued count", statusDisplay{state: speech.StateSpeaking, pending: 3}, "3 queued"},
		{"error", statusDisplay{state: speech.StateError}, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.display.Render(); !strings.Contains(got, tt.want) {
				t.Errorf("Render() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
