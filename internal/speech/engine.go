// Package speech schedules sanitized utterances onto a background worker
// that owns the speech engine and audio device exclusively.
package speech

import (
	"context"
	"time"
)

// Engine defines the capability set of a text-to-speech backend. The set of
// implementations is fixed; which one runs is chosen at configuration time.
type Engine interface {
	// Initialize prepares the engine for use with the given configuration.
	Initialize(config EngineConfig) error

	// Synthesize converts text to audio. The context bounds the operation;
	// implementations must return promptly once it is canceled.
	Synthesize(ctx context.Context, text string) (*Audio, error)

	// IsAvailable checks if the engine is ready for use.
	IsAvailable() bool

	// Voices returns the list of voices the engine can speak with.
	Voices() []Voice

	// Shutdown cleanly stops the engine and releases resources.
	Shutdown() error
}

// Player defines the audio output the worker plays synthesized audio
// through. Play blocks until the audio finishes or Stop is called; the
// worker goroutine is the only caller of Play.
type Player interface {
	// Play writes the audio to the output device and blocks until done.
	Play(audio *Audio) error

	// Stop interrupts the current playback, if any.
	Stop() error

	// Close releases the output device.
	Close() error
}

// EngineConfig holds voice and delivery settings for synthesis.
type EngineConfig struct {
	Voice  string  // Voice identifier, engine-specific
	Rate   float64 // Speech rate multiplier (1.0 = normal)
	Volume float64 // Volume level (0.0 to 1.0)
}

// DefaultEngineConfig returns neutral delivery settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Rate: 1.0, Volume: 1.0}
}

// Audio is synthesized audio ready for playback.
type Audio struct {
	Data       []byte        // Signed 16-bit little-endian PCM
	SampleRate int           // Sample rate in Hz
	Channels   int           // Number of audio channels
	Duration   time.Duration // Duration of the audio
}

// PCMDuration computes the playback duration of PCM16 data.
func PCMDuration(dataLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	samples := dataLen / (2 * channels)
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// Voice describes a voice an engine can speak with.
type Voice struct {
	ID       string // Voice identifier
	Name     string // Human-readable name
	Language string // Language code (e.g., "en-US")
}
