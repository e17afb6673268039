package model

import (
	"math"
	"math/rand"
	"sync"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/dsp"
)

// GriffinLim reconstructs a waveform from a log-mel spectrogram by iterative
// phase estimation. It needs no model weights, so it is the fallback vocoder
// when a voice ships without one. Quality is noticeably below a neural
// vocoder.
type GriffinLim struct {
	settings   audio.Settings
	stft       *dsp.STFT
	bank       [][]float64
	iterations int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGriffinLim builds the fallback vocoder. The seed fixes the initial phase
// estimate so the same mel always yields the same samples.
func NewGriffinLim(settings audio.Settings, iterations int, seed int64) *GriffinLim {
	if iterations <= 0 {
		iterations = 60
	}
	return &GriffinLim{
		settings:   settings,
		stft:       dsp.NewSTFT(settings.FilterLength, settings.HopLength),
		bank:       dsp.MelFilterbank(settings.MelChannels, settings.FilterLength, settings.SampleRate, settings.MelFmin, settings.MelFmax),
		iterations: iterations,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// MelsToAudio reconstructs mel.Frames * hop_length samples.
func (g *GriffinLim) MelsToAudio(mel *Mel) ([]float32, error) {
	// The model emits natural-log mel amplitudes; undo the log and flip to
	// frames x channels for the filterbank inversion.
	amp := make([][]float64, mel.Frames)
	for f := 0; f < mel.Frames; f++ {
		amp[f] = make([]float64, mel.Channels)
		for c := 0; c < mel.Channels; c++ {
			amp[f][c] = math.Exp(float64(mel.At(c, f)))
		}
	}
	mag := dsp.MelToLinear(g.bank, amp)

	length := mel.Frames * g.settings.HopLength
	phase := g.randomPhase(len(mag), g.stft.Bins())

	var signal []float64
	for i := 0; i < g.iterations; i++ {
		signal = g.stft.Inverse(mag, phase, length)
		_, phase = g.stft.Transform(signal)
		if len(phase) > len(mag) {
			phase = phase[:len(mag)]
		}
	}
	signal = g.stft.Inverse(mag, phase, length)

	return normalize(signal), nil
}

// Close is a no-op; Griffin-Lim holds no native resources.
func (g *GriffinLim) Close() error { return nil }

func (g *GriffinLim) randomPhase(frames, bins int) [][]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	phase := make([][]float64, frames)
	for i := range phase {
		phase[i] = make([]float64, bins)
		for b := range phase[i] {
			phase[i][b] = (g.rng.Float64()*2 - 1) * math.Pi
		}
	}
	return phase
}

// normalize scales to a 0.95 peak so reconstruction artifacts cannot clip.
func normalize(signal []float64) []float32 {
	var peak float64
	for _, s := range signal {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	scale := 1.0
	if peak > 0 {
		scale = 0.95 / peak
	}
	out := make([]float32, len(signal))
	for i, s := range signal {
		out[i] = float32(s * scale)
	}
	return out
}
