//go:build nocgo
// +build nocgo

package audio

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/utter/internal/speech"
)

// Player is a no-op playback device for builds without cgo. It consumes
// audio in real time so queue pacing still behaves, but produces no sound.
type Player struct {
	stop chan struct{}
}

// NewPlayer creates the no-op player. The volume argument is ignored.
func NewPlayer(_ float64) (*Player, error) {
	log.Warn("built without cgo: audio output is disabled")
	return &Player{stop: make(chan struct{}, 1)}, nil
}

// Play sleeps for the audio's duration, or until Stop.
func (p *Player) Play(audio *speech.Audio) error {
	select {
	case <-time.After(audio.Duration):
	case <-p.stop:
	}
	return nil
}

// Stop interrupts the current Play.
func (p *Player) Stop() error {
	select {
	case p.stop <- struct{}{}:
	default:
	}
	return nil
}

// Close releases nothing.
func (p *Player) Close() error { return nil }
