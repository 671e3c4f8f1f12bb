package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func pcm16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// TestToStereoMono tests mono upmixing.
func TestToStereoMono(t *testing.T) {
	in := pcm16(100, -200, 300)
	want := pcm16(100, 100, -200, -200, 300, 300)

	got := ToStereo(in, 1)
	if !bytes.Equal(got, want) {
		t.Errorf("ToStereo(mono) = %v, want %v", got, want)
	}
}

// TestToStereoPassthrough tests that stereo input is copied, not aliased.
func TestToStereoPassthrough(t *testing.T) {
	in := pcm16(1, 2, 3, 4)
	got := ToStereo(in, 2)

	if !bytes.Equal(got, in) {
		t.Errorf("ToStereo(stereo) = %v, want %v", got, in)
	}
	got[0] = 0xFF
	if in[0] == 0xFF {
		t.Error("ToStereo returned a slice aliasing its input")
	}
}

// TestResampleIdentity tests the same-rate fast path.
func TestResampleIdentity(t *testing.T) {
	in := pcm16(10, 20, 30, 40)
	got := Resample(in, 24000, 24000)
	if !bytes.Equal(got, in) {
		t.Errorf("Resample(same rate) = %v, want %v", got, in)
	}
}

// TestResampleHalvesFrames tests 2:1 downsampling.
func TestResampleHalvesFrames(t *testing.T) {
	// 8 stereo frames at 48k should become 4 at 24k.
	in := make([]byte, 8*4)
	got := Resample(in, 48000, 24000)
	if len(got) != 4*4 {
		t.Errorf("got %d bytes, want %d", len(got), 4*4)
	}
}

// TestResampleDoublesFrames tests 1:2 upsampling.
func TestResampleDoublesFrames(t *testing.T) {
	in := make([]byte, 4*4)
	got := Resample(in, 22050, 44100)
	if len(got) != 8*4 {
		t.Errorf("got %d bytes, want %d", len(got), 8*4)
	}
}

// TestResampleInterpolates tests that upsampled values land between
// neighbors.
func TestResampleInterpolates(t *testing.T) {
	// Two stereo frames: (0,0) and (1000,1000). Doubling the rate should
	// produce an interpolated frame around 500.
	in := pcm16(0, 0, 1000, 1000)
	got := Resample(in, 12000, 24000)

	if len(got) != 4*4 {
		t.Fatalf("got %d bytes, want %d", len(got), 4*4)
	}
	mid := int16(binary.LittleEndian.Uint16(got[1*4:]))
	if mid < 1 || mid > 999 {
		t.Errorf("interpolated sample = %d, want within (0, 1000)", mid)
	}
}

// TestResampleEmpty tests degenerate input.
func TestResampleEmpty(t *testing.T) {
	if got := Resample(nil, 22050, 24000); len(got) != 0 {
		t.Errorf("Resample(nil) returned %d bytes", len(got))
	}
	if got := Resample([]byte{0, 0}, 22050, 24000); len(got) != 0 {
		t.Errorf("Resample(partial frame) returned %d bytes", len(got))
	}
}
