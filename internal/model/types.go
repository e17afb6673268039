package model

import "fmt"

// Mel is a mel spectrogram with Channels frequency bands by Frames time
// steps, stored row-major as Data[c*Frames+f]. It lives only long enough to
// hand to the vocoder.
type Mel struct {
	Data     []float32
	Channels int
	Frames   int
}

// At returns the value for mel channel c at time frame f.
func (m *Mel) At(c, f int) float32 {
	return m.Data[c*m.Frames+f]
}

// MelModel converts a phoneme-id sequence into a mel spectrogram.
type MelModel interface {
	PhonemesToMels(ids []int64) (*Mel, error)
	Close() error
}

// Vocoder converts a mel spectrogram into a waveform of float32 samples.
type Vocoder interface {
	MelsToAudio(mel *Mel) ([]float32, error)
	Close() error
}

// MelModelType tags a text-to-mel architecture family.
type MelModelType string

// VocoderType tags a vocoder family.
type VocoderType string

const (
	MelGlowTTS MelModelType = "glow_tts"

	VocoderGriffinLim VocoderType = "griffin_lim"
	VocoderHiFiGAN    VocoderType = "hifi_gan"
)

// ParseMelModelType validates a mel model type tag. An unknown tag is a
// configuration error and is rejected before any load work starts.
func ParseMelModelType(s string) (MelModelType, error) {
	switch MelModelType(s) {
	case MelGlowTTS:
		return MelModelType(s), nil
	default:
		return "", fmt.Errorf("unknown text to mel model type %q", s)
	}
}

// ParseVocoderType validates a vocoder type tag.
func ParseVocoderType(s string) (VocoderType, error) {
	switch VocoderType(s) {
	case VocoderGriffinLim, VocoderHiFiGAN:
		return VocoderType(s), nil
	default:
		return "", fmt.Errorf("unknown vocoder model type %q", s)
	}
}
