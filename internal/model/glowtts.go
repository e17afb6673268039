package model

import (
	"fmt"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"
)

// GlowTTSConfig configures a GlowTTS text-to-mel session. NoiseScale and
// LengthScale are fixed at construction; changing them means loading a new
// model.
type GlowTTSConfig struct {
	ModelPath       string
	NoiseScale      float32
	LengthScale     float32
	NoOptimizations bool
}

// GlowTTS runs a GlowTTS generator exported to ONNX. It takes phoneme ids and
// produces a log-mel spectrogram in a single forward pass.
type GlowTTS struct {
	session     *ort.DynamicAdvancedSession
	noiseScale  float32
	lengthScale float32
	log         *slog.Logger
}

// NewGlowTTS loads the generator model. cfg.ModelPath may be the .onnx file
// itself or the voice directory containing generator.onnx.
func NewGlowTTS(cfg GlowTTSConfig, log *slog.Logger) (*GlowTTS, error) {
	modelFile, err := resolveModelFile(cfg.ModelPath, "generator.onnx")
	if err != nil {
		return nil, err
	}
	if err := InitializeEngine(""); err != nil {
		return nil, err
	}

	session, err := newSession(modelFile,
		[]string{"input", "input_lengths", "scales"},
		[]string{"output"}, cfg.NoOptimizations)
	if err != nil {
		return nil, err
	}

	log.Debug("loaded glow_tts model",
		slog.String("model", modelFile),
		slog.Float64("noise_scale", float64(cfg.NoiseScale)),
		slog.Float64("length_scale", float64(cfg.LengthScale)))

	return &GlowTTS{
		session:     session,
		noiseScale:  cfg.NoiseScale,
		lengthScale: cfg.LengthScale,
		log:         log,
	}, nil
}

// PhonemesToMels runs the generator on one phoneme-id sequence.
func (g *GlowTTS) PhonemesToMels(ids []int64) (*Mel, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("glow_tts: empty phoneme id sequence")
	}

	idsTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(ids))), ids)
	if err != nil {
		return nil, fmt.Errorf("glow_tts: create input tensor: %w", err)
	}
	defer idsTensor.Destroy()

	lengthsTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(len(ids))})
	if err != nil {
		return nil, fmt.Errorf("glow_tts: create lengths tensor: %w", err)
	}
	defer lengthsTensor.Destroy()

	scalesTensor, err := ort.NewTensor(ort.NewShape(2), []float32{g.noiseScale, g.lengthScale})
	if err != nil {
		return nil, fmt.Errorf("glow_tts: create scales tensor: %w", err)
	}
	defer scalesTensor.Destroy()

	outputs := []ort.Value{nil}
	err = g.session.Run([]ort.Value{idsTensor, lengthsTensor, scalesTensor}, outputs)
	if err != nil {
		return nil, fmt.Errorf("glow_tts: inference: %w", err)
	}

	melTensor := outputs[0].(*ort.Tensor[float32])
	defer melTensor.Destroy()

	shape := melTensor.GetShape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("glow_tts: unexpected output rank %d", len(shape))
	}
	channels := int(shape[1])
	frames := int(shape[2])

	data := make([]float32, channels*frames)
	copy(data, melTensor.GetData())

	return &Mel{Data: data, Channels: channels, Frames: frames}, nil
}

// Close releases the underlying session.
func (g *GlowTTS) Close() error {
	if g.session != nil {
		g.session.Destroy()
		g.session = nil
	}
	return nil
}
