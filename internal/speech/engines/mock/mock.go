// Package mock provides an in-memory speech engine for tests and for
// running the UI without audio hardware.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/utter/internal/speech"
)

// SampleRate of the generated audio.
const SampleRate = 22050

// Engine implements speech.Engine without any external dependency. It
// produces silence sized to the text and records every synthesis call, so
// tests can assert on ordering and delivery.
type Engine struct {
	mu        sync.Mutex
	config    speech.EngineConfig
	available bool

	delay   time.Duration
	failure error
	failAt  map[int]error // 1-based call number -> scripted failure

	calls []string
}

// New creates a mock engine.
func New() *Engine {
	return &Engine{
		available: true,
		failAt:    make(map[int]error),
	}
}

// Initialize prepares the mock engine.
func (e *Engine) Initialize(config speech.EngineConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure != nil {
		return e.failure
	}
	e.config = config
	return nil
}

// Synthesize generates silent PCM16 sized to the text length.
func (e *Engine) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	call := len(e.calls)
	delay := e.delay
	err := e.failure
	if scripted, ok := e.failAt[call]; ok {
		err = scripted
	}
	e.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Roughly 60ms of silence per character.
	duration := time.Duration(len(text)) * 60 * time.Millisecond
	samples := int(duration.Seconds() * SampleRate)
	return &speech.Audio{
		Data:       make([]byte, samples*2),
		SampleRate: SampleRate,
		Channels:   1,
		Duration:   duration,
	}, nil
}

// IsAvailable returns the mock availability state.
func (e *Engine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Voices returns a fixed mock voice.
func (e *Engine) Voices() []speech.Voice {
	return []speech.Voice{
		{ID: "mock", Name: "Mock Voice", Language: "en-US"},
	}
}

// Shutdown marks the engine unavailable.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = false
	return nil
}

// Test controls

// SetDelay sets a simulated synthesis delay.
func (e *Engine) SetDelay(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = d
}

// SetFailure makes every call (including Initialize) fail with err. Pass
// nil to clear.
func (e *Engine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failure = err
}

// FailOnCall scripts a failure for the nth Synthesize call (1-based).
func (e *Engine) FailOnCall(n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failAt[n] = err
}

// SetAvailable overrides the availability state.
func (e *Engine) SetAvailable(ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = ok
}

// Calls returns the texts passed to Synthesize, in call order.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}
