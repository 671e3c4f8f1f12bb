// Package audio plays synthesized PCM through the system audio device.
package audio

import "encoding/binary"

// ToStereo duplicates mono PCM16 samples into two channels. Stereo input
// is copied unchanged, so the result never shares a backing array with the
// caller.
func ToStereo(data []byte, channels int) []byte {
	if channels == 2 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}

	n := len(data) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		s := data[i*2 : i*2+2]
		copy(out[i*4:], s)
		copy(out[i*4+2:], s)
	}
	return out
}

// Resample converts stereo PCM16 between sample rates using linear
// interpolation. Good enough for speech; anything fancier belongs in the
// engine.
func Resample(data []byte, from, to int) []byte {
	if from == to || from <= 0 || to <= 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}

	const frameBytes = 4 // 2 channels x 16 bits
	frames := len(data) / frameBytes
	if frames == 0 {
		return nil
	}

	outFrames := int(int64(frames) * int64(to) / int64(from))
	out := make([]byte, outFrames*frameBytes)

	for i := 0; i < outFrames; i++ {
		// Source position for this output frame.
		pos := float64(i) * float64(from) / float64(to)
		j := int(pos)
		frac := pos - float64(j)
		k := j + 1
		if k >= frames {
			k = frames - 1
		}

		for ch := 0; ch < 2; ch++ {
			a := int16(binary.LittleEndian.Uint16(data[j*frameBytes+ch*2:]))
			b := int16(binary.LittleEndian.Uint16(data[k*frameBytes+ch*2:]))
			v := int16(float64(a) + (float64(b)-float64(a))*frac)
			binary.LittleEndian.PutUint16(out[i*frameBytes+ch*2:], uint16(v))
		}
	}
	return out
}
