// Package espeak implements the speech engine using espeak-ng.
package espeak

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/utter/internal/speech"
)

// espeak-ng speaks rate in words per minute; 175 is its default.
const baseWPM = 175

// Engine synthesizes speech with the espeak-ng binary, reading RIFF WAV
// from stdout. Fully offline and installed nearly everywhere, it is the
// fallback when no Piper model is configured.
type Engine struct {
	binary string

	mu          sync.Mutex
	config      speech.EngineConfig
	initialized bool

	proc *speech.Subprocess
}

// New creates an espeak-ng engine.
func New() *Engine {
	return &Engine{
		binary: "espeak-ng",
		proc:   speech.NewSubprocess(15 * time.Second),
	}
}

// Initialize verifies espeak-ng is installed.
func (e *Engine) Initialize(config speech.EngineConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	path, err := speech.LookPath(e.binary)
	if err != nil {
		// Some distributions still ship the binary as plain espeak.
		alt, altErr := speech.LookPath("espeak")
		if altErr != nil {
			return err
		}
		e.binary = "espeak"
		path = alt
	}

	e.config = config
	e.initialized = true
	log.Debug("espeak ready", "binary", path, "voice", config.Voice)
	return nil
}

// Synthesize runs espeak-ng once for the given text.
func (e *Engine) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil, speech.ErrEngineNotAvailable
	}
	args := []string{"--stdin", "--stdout"}
	if e.config.Voice != "" {
		args = append(args, "-v", e.config.Voice)
	}
	if e.config.Rate > 0 && e.config.Rate != 1.0 {
		wpm := int(baseWPM * e.config.Rate)
		args = append(args, "-s", strconv.Itoa(wpm))
	}
	if e.config.Volume > 0 && e.config.Volume != 1.0 {
		// espeak amplitude is 0-200 with 100 as normal.
		args = append(args, "-a", strconv.Itoa(int(e.config.Volume*100)))
	}
	binary := e.binary
	e.mu.Unlock()

	wav, err := e.proc.RunWithStdin(ctx, text, binary, args...)
	if err != nil {
		return nil, err
	}
	return ParseWAV(wav)
}

// IsAvailable reports whether Initialize succeeded.
func (e *Engine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Voices returns a small set of commonly installed espeak voices. The full
// list depends on the local installation.
func (e *Engine) Voices() []speech.Voice {
	return []speech.Voice{
		{ID: "en", Name: "English", Language: "en"},
		{ID: "en-us", Name: "English (US)", Language: "en-US"},
		{ID: "de", Name: "German", Language: "de"},
		{ID: "fr", Name: "French", Language: "fr"},
		{ID: "es", Name: "Spanish", Language: "es"},
	}
}

// Shutdown releases the engine.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	return nil
}

// ParseWAV extracts PCM16 audio from a RIFF WAV stream. espeak-ng writes a
// standard 44-byte header followed by the sample data, but the chunk walk
// below tolerates extra chunks before "data".
func ParseWAV(wav []byte) (*speech.Audio, error) {
	if len(wav) < 44 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF WAV stream")
	}

	var (
		sampleRate int
		channels   int
		bits       int
	)

	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if body+16 > len(wav) {
				return nil, fmt.Errorf("truncated fmt chunk")
			}
			channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(wav[body+14 : body+16]))

		case "data":
			if sampleRate == 0 || channels == 0 {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			if bits != 16 {
				return nil, fmt.Errorf("unsupported bit depth: %d", bits)
			}
			end := body + size
			// espeak streams to a pipe and cannot backpatch the size
			// field, so clamp to whatever was actually written.
			if end > len(wav) || size <= 0 {
				end = len(wav)
			}
			data := wav[body:end]
			if len(data) == 0 {
				return nil, fmt.Errorf("empty audio data")
			}
			return &speech.Audio{
				Data:       data,
				SampleRate: sampleRate,
				Channels:   channels,
				Duration:   speech.PCMDuration(len(data), sampleRate, channels),
			}, nil
		}

		if size%2 == 1 {
			size++ // chunks are word-aligned
		}
		pos = body + size
	}

	return nil, fmt.Errorf("no data chunk found")
}
