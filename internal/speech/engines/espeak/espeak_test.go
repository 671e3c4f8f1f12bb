package espeak

import (
	"context"
	"encoding/binary"
	"strings"
	"testing"
	"time"
)

// buildWAV assembles a minimal RIFF WAV with the given format and data.
func buildWAV(sampleRate, channels, bits int, data []byte) []byte {
	var b []byte
	put32 := func(v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		b = append(b, tmp[:]...)
	}
	put16 := func(v uint16) {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], v)
		b = append(b, tmp[:]...)
	}

	b = append(b, "RIFF"...)
	put32(uint32(36 + len(data)))
	b = append(b, "WAVE"...)

	b = append(b, "fmt "...)
	put32(16)
	put16(1) // PCM
	put16(uint16(channels))
	put32(uint32(sampleRate))
	put32(uint32(sampleRate * channels * bits / 8))
	put16(uint16(channels * bits / 8))
	put16(uint16(bits))

	b = append(b, "data"...)
	put32(uint32(len(data)))
	b = append(b, data...)
	return b
}

// TestParseWAV tests header parsing on a well-formed stream.
func TestParseWAV(t *testing.T) {
	pcm := make([]byte, 22050*2) // one second of mono 16-bit silence
	wav := buildWAV(22050, 1, 16, pcm)

	audio, err := ParseWAV(wav)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if audio.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", audio.SampleRate)
	}
	if audio.Channels != 1 {
		t.Errorf("Channels = %d, want 1", audio.Channels)
	}
	if len(audio.Data) != len(pcm) {
		t.Errorf("Data length = %d, want %d", len(audio.Data), len(pcm))
	}
	if audio.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", audio.Duration)
	}
}

// TestParseWAVPipeSize tests the espeak pipe case: a data chunk whose
// declared size was never backpatched.
func TestParseWAVPipeSize(t *testing.T) {
	pcm := make([]byte, 1000)
	wav := buildWAV(22050, 1, 16, pcm)

	// Zero out the data chunk size like espeak does when writing to a pipe.
	// data size field sits 4 bytes after the "data" id at offset 36.
	binary.LittleEndian.PutUint32(wav[40:], 0)

	audio, err := ParseWAV(wav)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if len(audio.Data) != len(pcm) {
		t.Errorf("Data length = %d, want %d (clamped to stream)", len(audio.Data), len(pcm))
	}
}

// TestParseWAVRejects tests malformed input.
func TestParseWAVRejects(t *testing.T) {
	tests := []struct {
		name string
		wav  []byte
		want string
	}{
		{"empty", nil, "not a RIFF"},
		{"garbage", []byte(strings.Repeat("x", 100)), "not a RIFF"},
		{"no data chunk", buildWAV(22050, 1, 16, nil)[:44-8], "not a RIFF"},
		{"eight bit", buildWAV(22050, 1, 8, make([]byte, 10)), "bit depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWAV(tt.wav)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

// TestSynthesizeRequiresInit tests the uninitialized path.
func TestSynthesizeRequiresInit(t *testing.T) {
	e := New()
	if _, err := e.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error before Initialize")
	}
	if e.IsAvailable() {
		t.Error("engine reports available before Initialize")
	}
}
