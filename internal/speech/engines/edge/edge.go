// Package edge implements the speech engine using Microsoft Edge TTS over
// the network.
package edge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	mp3 "github.com/hajimehoshi/go-mp3"
	edgetts "github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/dgnsrekt/utter/internal/speech"
)

const defaultVoice = "en-US-AriaNeural"

// Engine synthesizes speech through the Edge TTS websocket service. The
// service streams MP3, which is decoded to PCM16 before playback. Requires
// a network connection; no API key.
type Engine struct {
	mu          sync.Mutex
	voice       string
	initialized bool
}

// New creates an Edge TTS engine.
func New() *Engine {
	return &Engine{}
}

// Initialize records the voice selection. Availability is only truly known
// per request, since the service is remote.
func (e *Engine) Initialize(config speech.EngineConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.voice = config.Voice
	if e.voice == "" {
		e.voice = defaultVoice
	}
	e.initialized = true
	log.Debug("edge-tts ready", "voice", e.voice)
	return nil
}

// Synthesize requests MP3 audio from the service and decodes it to PCM16.
func (e *Engine) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil, speech.ErrEngineNotAvailable
	}
	voice := e.voice
	e.mu.Unlock()

	comm, err := edgetts.NewCommunicate(text, edgetts.WithVoice(voice))
	if err != nil {
		return nil, fmt.Errorf("edge-tts connect: %w", err)
	}

	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("edge-tts stream: %w", err)
	}

	var mp3Buf bytes.Buffer
	for msg := range ch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if t, ok := msg["type"].(string); ok && t == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}
	if mp3Buf.Len() == 0 {
		return nil, fmt.Errorf("edge-tts returned no audio")
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(mp3Buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 read: %w", err)
	}

	// go-mp3 always emits 16-bit stereo at the stream's sample rate.
	rate := decoder.SampleRate()
	return &speech.Audio{
		Data:       pcm,
		SampleRate: rate,
		Channels:   2,
		Duration:   speech.PCMDuration(len(pcm), rate, 2),
	}, nil
}

// IsAvailable reports whether Initialize succeeded.
func (e *Engine) IsAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Voices returns a selection of Edge neural voices.
func (e *Engine) Voices() []speech.Voice {
	return []speech.Voice{
		{ID: "en-US-AriaNeural", Name: "Aria", Language: "en-US"},
		{ID: "en-US-GuyNeural", Name: "Guy", Language: "en-US"},
		{ID: "en-GB-SoniaNeural", Name: "Sonia", Language: "en-GB"},
		{ID: "de-DE-KatjaNeural", Name: "Katja", Language: "de-DE"},
		{ID: "fr-FR-DeniseNeural", Name: "Denise", Language: "fr-FR"},
	}
}

// Shutdown releases the engine. Connections are per-request.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initialized = false
	return nil
}
