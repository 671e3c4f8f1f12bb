// Package piper implements the speech engine using the Piper TTS binary.
package piper

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/utter/internal/speech"
)

// Piper emits 16-bit mono PCM at the model's native rate; 22050 Hz covers
// the medium-quality voices.
const defaultSampleRate = 22050

// Engine synthesizes speech by invoking the piper binary per utterance with
// --output-raw. Text goes in on stdin, PCM16 comes back on stdout.
type Engine struct {
	binary     string
	modelPath  string
	sampleRate int

	mu          sync.Mutex
	config      speech.EngineConfig
	initialized bool

	proc *speech.Subprocess
}

// Option configures the engine.
type Option func(*Engine)

// WithSampleRate overrides the output sample rate for models that don't run
// at the default 22050 Hz.
func WithSampleRate(rate int) Option {
	return func(e *Engine) { e.sampleRate = rate }
}

// New creates a Piper engine for the given model file.
func New(modelPath string, opts ...Option) *Engine {
	e := &Engine{
		binary:     "piper",
		modelPath:  modelPath,
		sampleRate: defaultSampleRate,
		proc:       speech.NewSubprocess(30 * time.Second),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize verifies the binary and model are present.
func (e *Engine) Initialize(config speech.EngineConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	path, err := speech.LookPath(e.binary)
	if err != nil {
		return err
	}
	if e.modelPath == "" {
		return fmt.Errorf("piper model path not configured")
	}
	if _, err := os.Stat(e.modelPath); err != nil {
		return fmt.Errorf("piper model not accessible: %w", err)
	}

	e.config = config
	e.initialized = true
	log.Debug("piper ready", "binary", path, "model", e.modelPath)
	return nil
}

// Synthesize runs piper once for the given text.
func (e *Engine) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil, speech.ErrEngineNotAvailable
	}
	args := []string{"--model", e.modelPath, "--output-raw"}
	if e.config.Rate > 0 && e.config.Rate != 1.0 {
		// Piper's length_scale is the inverse of speaking rate.
		args = append(args, "--length_scale", strconv.FormatFloat(1.0/e.config.Rate, 'f', 2, 64))
	}
	if e.config.Voice != "" {
		args = append(args, "--speaker", e.config.Voice)
	}
	rate := e.sampleRate
	e.mu.Unlock()

	pcm, err := e.proc.RunWithStdin(ctx, text+"\n", e.binary, args...)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("piper produced no audio")
	}

	return &speech.Audio{
		Data:       pcm,
		SampleRate: rate,
		Channels:   1,
		Duration:   speech.PCMDuration(len(pcm), rate, 1),
	}, nil
}

// IsAvailable reports whether Initialize succeeded.
func (e *Engine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Voices returns the configured model as the single available voice. Piper
// voices are model files; switching means pointing at another model.
func (e *Engine) Voices() []speech.Voice {
	return []speech.Voice{
		{ID: e.modelPath, Name: "Piper model", Language: ""},
	}
}

// Shutdown releases the engine. Piper runs per-request, so there is no
// process to tear down.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	return nil
}
