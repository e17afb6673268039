package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// STFT computes short-time Fourier transforms and their inverse with a
// periodic Hann window and centered zero padding.
type STFT struct {
	FFTSize   int
	HopLength int
	window    []float64
}

// NewSTFT builds a transform for the given FFT size and hop length.
func NewSTFT(fftSize, hopLength int) *STFT {
	return &STFT{
		FFTSize:   fftSize,
		HopLength: hopLength,
		window:    hannWindow(fftSize),
	}
}

// Bins returns the number of frequency bins per frame.
func (s *STFT) Bins() int { return s.FFTSize/2 + 1 }

// Transform returns per-frame magnitude and phase, each frames x bins.
func (s *STFT) Transform(x []float64) (mag, phase [][]float64) {
	padded := make([]float64, len(x)+s.FFTSize)
	copy(padded[s.FFTSize/2:], x)

	frames := 1 + (len(padded)-s.FFTSize)/s.HopLength
	mag = make([][]float64, frames)
	phase = make([][]float64, frames)

	frame := make([]float64, s.FFTSize)
	for i := 0; i < frames; i++ {
		offset := i * s.HopLength
		for j := 0; j < s.FFTSize; j++ {
			frame[j] = padded[offset+j] * s.window[j]
		}
		spectrum := fft.FFTReal(frame)

		mag[i] = make([]float64, s.Bins())
		phase[i] = make([]float64, s.Bins())
		for b := 0; b < s.Bins(); b++ {
			re := real(spectrum[b])
			im := imag(spectrum[b])
			mag[i][b] = math.Hypot(re, im)
			phase[i][b] = math.Atan2(im, re)
		}
	}
	return mag, phase
}

// Inverse reconstructs a signal of the given length from magnitude and phase
// via overlap-add with window-square normalization.
func (s *STFT) Inverse(mag, phase [][]float64, length int) []float64 {
	frames := len(mag)
	paddedLen := (frames-1)*s.HopLength + s.FFTSize
	out := make([]float64, paddedLen)
	norm := make([]float64, paddedLen)

	spectrum := make([]complex128, s.FFTSize)
	for i := 0; i < frames; i++ {
		for b := 0; b < s.Bins(); b++ {
			c := complex(mag[i][b]*math.Cos(phase[i][b]), mag[i][b]*math.Sin(phase[i][b]))
			spectrum[b] = c
			if b > 0 && b < s.FFTSize/2 {
				spectrum[s.FFTSize-b] = complex(real(c), -imag(c))
			}
		}
		frame := fft.IFFT(spectrum)

		offset := i * s.HopLength
		for j := 0; j < s.FFTSize; j++ {
			out[offset+j] += real(frame[j]) * s.window[j]
			norm[offset+j] += s.window[j] * s.window[j]
		}
	}

	for i := range out {
		if norm[i] > 1e-8 {
			out[i] /= norm[i]
		}
	}

	start := s.FFTSize / 2
	if length <= 0 || start+length > len(out) {
		length = len(out) - start
	}
	return out[start : start+length]
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
	}
	return w
}
