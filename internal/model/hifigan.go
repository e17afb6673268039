package model

import (
	"fmt"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/dsp"
)

// HiFiGANConfig configures a HiFi-GAN vocoder session. A positive
// DenoiserStrength enables bias subtraction to suppress the model's vocoding
// noise floor.
type HiFiGANConfig struct {
	ModelPath        string
	DenoiserStrength float64
	NoOptimizations  bool
	Settings         audio.Settings
}

// HiFiGAN runs a HiFi-GAN generator exported to ONNX, turning a mel
// spectrogram into a waveform.
type HiFiGAN struct {
	session  *ort.DynamicAdvancedSession
	strength float64
	stft     *dsp.STFT
	biasSpec []float64
	log      *slog.Logger
}

// NewHiFiGAN loads the vocoder model. cfg.ModelPath may be the .onnx file
// itself or the voice directory containing generator.onnx.
func NewHiFiGAN(cfg HiFiGANConfig, log *slog.Logger) (*HiFiGAN, error) {
	modelFile, err := resolveModelFile(cfg.ModelPath, "generator.onnx")
	if err != nil {
		return nil, err
	}
	if err := InitializeEngine(""); err != nil {
		return nil, err
	}

	session, err := newSession(modelFile, []string{"mel"}, []string{"audio"}, cfg.NoOptimizations)
	if err != nil {
		return nil, err
	}

	h := &HiFiGAN{
		session:  session,
		strength: cfg.DenoiserStrength,
		stft:     dsp.NewSTFT(cfg.Settings.FilterLength, cfg.Settings.HopLength),
		log:      log,
	}

	if h.strength > 0 {
		if err := h.initDenoiser(cfg.Settings.MelChannels); err != nil {
			h.Close()
			return nil, err
		}
	}

	log.Debug("loaded hifi_gan model",
		slog.String("model", modelFile),
		slog.Float64("denoiser_strength", cfg.DenoiserStrength))
	return h, nil
}

// MelsToAudio runs the generator and, when enabled, the denoiser.
func (h *HiFiGAN) MelsToAudio(mel *Mel) ([]float32, error) {
	samples, err := h.infer(mel)
	if err != nil {
		return nil, err
	}
	if h.strength > 0 {
		samples = h.denoise(samples)
	}
	return samples, nil
}

// Close releases the underlying session.
func (h *HiFiGAN) Close() error {
	if h.session != nil {
		h.session.Destroy()
		h.session = nil
	}
	return nil
}

func (h *HiFiGAN) infer(mel *Mel) ([]float32, error) {
	melTensor, err := ort.NewTensor(ort.NewShape(1, int64(mel.Channels), int64(mel.Frames)), mel.Data)
	if err != nil {
		return nil, fmt.Errorf("hifi_gan: create mel tensor: %w", err)
	}
	defer melTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := h.session.Run([]ort.Value{melTensor}, outputs); err != nil {
		return nil, fmt.Errorf("hifi_gan: inference: %w", err)
	}

	audioTensor := outputs[0].(*ort.Tensor[float32])
	defer audioTensor.Destroy()

	data := audioTensor.GetData()
	samples := make([]float32, len(data))
	copy(samples, data)
	return samples, nil
}

// initDenoiser captures the model's bias: the audio it produces for an
// all-zero mel is pure vocoding noise, and its spectral magnitude is what the
// denoiser subtracts from real output.
func (h *HiFiGAN) initDenoiser(channels int) error {
	const biasFrames = 88
	zero := &Mel{
		Data:     make([]float32, channels*biasFrames),
		Channels: channels,
		Frames:   biasFrames,
	}
	biasAudio, err := h.infer(zero)
	if err != nil {
		return fmt.Errorf("hifi_gan: compute denoiser bias: %w", err)
	}

	signal := make([]float64, len(biasAudio))
	for i, s := range biasAudio {
		signal[i] = float64(s)
	}
	mag, _ := h.stft.Transform(signal)
	if len(mag) == 0 {
		return fmt.Errorf("hifi_gan: denoiser bias audio too short")
	}
	h.biasSpec = mag[0]
	return nil
}

func (h *HiFiGAN) denoise(samples []float32) []float32 {
	signal := make([]float64, len(samples))
	for i, s := range samples {
		signal[i] = float64(s)
	}

	mag, phase := h.stft.Transform(signal)
	for f := range mag {
		for b := range mag[f] {
			v := mag[f][b] - h.biasSpec[b]*h.strength
			if v < 0 {
				v = 0
			}
			mag[f][b] = v
		}
	}

	clean := h.stft.Inverse(mag, phase, len(signal))
	out := make([]float32, len(clean))
	for i, s := range clean {
		out[i] = float32(s)
	}
	return out
}
