//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/utter/internal/speech"
)

// The oto context is created once per process, so the device runs at a
// fixed format and incoming audio is converted to match.
const (
	deviceRate     = 24000
	deviceChannels = 2
)

// Player plays PCM16 audio through oto. It is owned by the dispatcher's
// worker goroutine; only Stop and Close may be called from elsewhere.
type Player struct {
	ctx    *oto.Context
	volume float64

	mu      sync.Mutex
	current *oto.Player
	closed  bool
}

// NewPlayer opens the audio device.
func NewPlayer(volume float64) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   deviceRate,
		ChannelCount: deviceChannels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	<-ready

	if volume <= 0 || volume > 2.0 {
		volume = 1.0
	}

	log.Debug("audio device ready", "rate", deviceRate, "channels", deviceChannels)
	return &Player{ctx: ctx, volume: volume}, nil
}

// Play converts the audio to the device format, writes it out, and blocks
// until playback finishes or Stop is called.
func (p *Player) Play(audio *speech.Audio) error {
	data := ToStereo(audio.Data, audio.Channels)
	data = Resample(data, audio.SampleRate, deviceRate)
	if len(data) == 0 {
		return fmt.Errorf("no audio after conversion")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("player is closed")
	}
	player := p.ctx.NewPlayer(bytes.NewReader(data))
	player.SetVolume(p.volume)
	p.current = player
	p.mu.Unlock()

	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	return player.Close()
}

// Stop interrupts the current playback, if any. Safe to call from any
// goroutine.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		// Closing the player halts its read loop; Play's IsPlaying poll
		// then falls through.
		err := p.current.Close()
		p.current = nil
		return err
	}
	return nil
}

// Close releases the audio device.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.current != nil {
		p.current.Close() //nolint:errcheck
		p.current = nil
	}
	// oto contexts cannot be destroyed; suspending stops the stream.
	return p.ctx.Suspend()
}
