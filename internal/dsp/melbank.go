package dsp

import "math"

// MelFilterbank builds a triangular mel filterbank (numMels x bins) mapping
// linear-frequency magnitudes into mel bands, using the HTK mel scale.
func MelFilterbank(numMels, fftSize, sampleRate int, fmin, fmax float64) [][]float64 {
	if fmax <= 0 {
		fmax = float64(sampleRate) / 2
	}
	bins := fftSize/2 + 1

	melMin := hzToMel(fmin)
	melMax := hzToMel(fmax)
	points := make([]float64, numMels+2)
	for i := range points {
		mel := melMin + (melMax-melMin)*float64(i)/float64(numMels+1)
		points[i] = melToHz(mel) * float64(fftSize) / float64(sampleRate)
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		bank[m] = make([]float64, bins)
		left, center, right := points[m], points[m+1], points[m+2]
		for b := 0; b < bins; b++ {
			f := float64(b)
			switch {
			case f > left && f <= center:
				bank[m][b] = (f - left) / (center - left)
			case f > center && f < right:
				bank[m][b] = (right - f) / (right - center)
			}
		}
	}
	return bank
}

// MelToLinear approximately inverts a mel spectrogram (frames x numMels) back
// to a linear magnitude spectrogram (frames x bins) using the normalized
// transpose of the filterbank. Values are floored to keep magnitudes positive.
func MelToLinear(bank [][]float64, mel [][]float64) [][]float64 {
	numMels := len(bank)
	if numMels == 0 || len(mel) == 0 {
		return nil
	}
	bins := len(bank[0])

	// Column norms of the filterbank give the per-bin normalization.
	colSum := make([]float64, bins)
	for m := 0; m < numMels; m++ {
		for b := 0; b < bins; b++ {
			colSum[b] += bank[m][b]
		}
	}

	linear := make([][]float64, len(mel))
	for t := range mel {
		linear[t] = make([]float64, bins)
		for b := 0; b < bins; b++ {
			var v float64
			for m := 0; m < numMels; m++ {
				v += bank[m][b] * mel[t][m]
			}
			if colSum[b] > 1e-8 {
				v /= colSum[b]
			}
			if v < 1e-10 {
				v = 1e-10
			}
			linear[t][b] = v
		}
	}
	return linear
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}
