package model

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/task"
)

// MelConfig selects and configures a text-to-mel model.
type MelConfig struct {
	Type            MelModelType
	ModelPath       string
	NoiseScale      float32
	LengthScale     float32
	NoOptimizations bool
}

// VocoderConfig selects and configures a vocoder. Griffin-Lim ignores
// ModelPath and DenoiserStrength.
type VocoderConfig struct {
	Type             VocoderType
	ModelPath        string
	DenoiserStrength float64
	NoOptimizations  bool
	Settings         audio.Settings
	Seed             int64
}

// LoadMelModel constructs the text-to-mel stage named by cfg.Type.
func LoadMelModel(cfg MelConfig, log *slog.Logger) (MelModel, error) {
	start := time.Now()

	var (
		m   MelModel
		err error
	)
	switch cfg.Type {
	case MelGlowTTS:
		m, err = NewGlowTTS(GlowTTSConfig{
			ModelPath:       cfg.ModelPath,
			NoiseScale:      cfg.NoiseScale,
			LengthScale:     cfg.LengthScale,
			NoOptimizations: cfg.NoOptimizations,
		}, log)
	default:
		return nil, fmt.Errorf("unknown text to mel model type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	log.Info("text to mel model ready",
		slog.String("type", string(cfg.Type)),
		slog.Duration("load_time", time.Since(start)))
	return m, nil
}

// LoadVocoder constructs the vocoder stage named by cfg.Type.
func LoadVocoder(cfg VocoderConfig, log *slog.Logger) (Vocoder, error) {
	start := time.Now()

	var (
		v   Vocoder
		err error
	)
	switch cfg.Type {
	case VocoderGriffinLim:
		v = NewGriffinLim(cfg.Settings, 0, cfg.Seed)
	case VocoderHiFiGAN:
		v, err = NewHiFiGAN(HiFiGANConfig{
			ModelPath:        cfg.ModelPath,
			DenoiserStrength: cfg.DenoiserStrength,
			NoOptimizations:  cfg.NoOptimizations,
			Settings:         cfg.Settings,
		}, log)
	default:
		return nil, fmt.Errorf("unknown vocoder model type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	log.Info("vocoder ready",
		slog.String("type", string(cfg.Type)),
		slog.Duration("load_time", time.Since(start)))
	return v, nil
}

// LoadStages schedules both model loads on the pool so they proceed
// concurrently, returning futures the synthesis pipeline awaits on first use.
func LoadStages(pool *task.Pool, melCfg MelConfig, vocCfg VocoderConfig, log *slog.Logger) (*task.Future[MelModel], *task.Future[Vocoder]) {
	melFuture := task.Submit(pool, func() (MelModel, error) {
		return LoadMelModel(melCfg, log)
	})
	vocFuture := task.Submit(pool, func() (Vocoder, error) {
		return LoadVocoder(vocCfg, log)
	})
	return melFuture, vocFuture
}
