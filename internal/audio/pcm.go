package audio

import (
	"encoding/binary"
	"time"
)

// FloatToPCM16 converts float32 samples in [-1, 1] to 16-bit PCM, clipping
// out-of-range values.
func FloatToPCM16(samples []float32) []int16 {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			pcm[i] = 32767
		case s < -1:
			pcm[i] = -32768
		default:
			pcm[i] = int16(s * 32767)
		}
	}
	return pcm
}

// PCM16Bytes serializes samples as little-endian bytes for raw streaming.
func PCM16Bytes(pcm []int16) []byte {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Duration returns the play time of a sample buffer at the given rate.
func Duration(sampleCount, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second))
}

// Seconds returns the play time of a sample buffer in seconds.
func Seconds(sampleCount, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(sampleCount) / float64(sampleRate)
}
