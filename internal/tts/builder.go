package tts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/config"
	"github.com/glottislabs/glottis/internal/model"
	"github.com/glottislabs/glottis/internal/phoneme"
	"github.com/glottislabs/glottis/internal/task"
	"github.com/glottislabs/glottis/internal/voice"
)

// BuildOptions describe one voice's synthesis stack. An empty VocoderDir
// falls back to Griffin-Lim, which needs no model weights. LexiconDir and
// MapPath override where the lexicon and phoneme map come from, for
// phonemizing in one language while synthesizing with another voice.
type BuildOptions struct {
	Voice      *voice.Voice
	VocoderDir string
	LexiconDir string
	MapPath    string
	SampleRate int
	Synth      config.SynthConfig
	Pool       *task.Pool
}

// BuildPipeline loads a voice's lexicon, audio settings and phoneme map,
// schedules its model loads on the pool, and wires everything into a
// pipeline. It returns as soon as the loads are scheduled.
func BuildPipeline(opts BuildOptions, log *slog.Logger) (*Pipeline, error) {
	v := opts.Voice
	if v == nil {
		return nil, fmt.Errorf("no voice to build a pipeline for")
	}

	melType, err := model.ParseMelModelType(v.ModelType)
	if err != nil {
		return nil, fmt.Errorf("voice %s: %w", v.Key(), err)
	}

	settings := audio.DefaultSettings()
	settingsPath := filepath.Join(v.Dir, "config.json")
	if _, statErr := os.Stat(settingsPath); statErr == nil {
		settings, err = audio.LoadSettings(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("voice %s: %w", v.Key(), err)
		}
	}
	if opts.SampleRate > 0 {
		settings.SampleRate = opts.SampleRate
	}

	lexiconDir := v.Dir
	if opts.LexiconDir != "" {
		lexiconDir = opts.LexiconDir
	}
	lexicon, err := phoneme.LoadLexicon(filepath.Join(lexiconDir, "lexicon.json"))
	if err != nil {
		return nil, fmt.Errorf("voice %s: %w", v.Key(), err)
	}

	phonemeOpts := phoneme.Options{}
	mapPath := opts.MapPath
	if mapPath == "" {
		candidate := filepath.Join(lexiconDir, "phoneme_map.json")
		if _, statErr := os.Stat(candidate); statErr == nil {
			mapPath = candidate
		}
	}
	if mapPath != "" {
		m, err := phoneme.LoadMap(mapPath)
		if err != nil {
			return nil, fmt.Errorf("voice %s: %w", v.Key(), err)
		}
		phonemeOpts.Map = m
	}

	// Cross-language phonemization: encode against the voice's trained
	// inventory, and derive a nearest-IPA map when no explicit one is given.
	var vocab *phoneme.Vocabulary
	if lexiconDir != v.Dir {
		voiceLexicon, err := phoneme.LoadLexicon(filepath.Join(v.Dir, "lexicon.json"))
		if err != nil {
			return nil, fmt.Errorf("voice %s: %w", v.Key(), err)
		}
		vocab = phoneme.VocabularyFor(voiceLexicon)
		if phonemeOpts.Map == nil {
			phonemeOpts.Map = phoneme.GuessMap(lexicon.Inventory(), voiceLexicon.Inventory())
			log.Debug("derived phoneme map",
				slog.String("from", lexicon.Code()),
				slog.String("to", voiceLexicon.Code()),
				slog.Int("entries", phonemeOpts.Map.Len()))
		}
	}

	noOpt, err := resolveOptimizations(opts.Synth.Optimizations, log)
	if err != nil {
		return nil, err
	}

	melCfg := model.MelConfig{
		Type:            melType,
		ModelPath:       v.Dir,
		NoiseScale:      float32(opts.Synth.NoiseScale),
		LengthScale:     float32(opts.Synth.LengthScale),
		NoOptimizations: noOpt,
	}
	vocCfg := model.VocoderConfig{
		Type:             model.VocoderGriffinLim,
		DenoiserStrength: opts.Synth.DenoiserStrength,
		NoOptimizations:  noOpt,
		Settings:         settings,
		Seed:             opts.Synth.Seed,
	}
	if opts.VocoderDir != "" {
		vocCfg.Type = model.VocoderHiFiGAN
		vocCfg.ModelPath = opts.VocoderDir
	} else {
		log.Warn("no vocoder model found, falling back to griffin_lim",
			slog.String("voice", v.Key()))
	}

	melFuture, vocFuture := model.LoadStages(opts.Pool, melCfg, vocCfg, log)

	return NewPipeline(PipelineConfig{
		Language:   lexicon,
		Vocabulary: vocab,
		Phoneme:    phonemeOpts,
		Mel:        melFuture,
		Vocoder:    vocFuture,
		Settings:   settings,
	}, log)
}

// resolveOptimizations turns the auto|on|off toggle into the NoOptimizations
// flag. "on" is rejected where the runtime cannot optimize safely.
func resolveOptimizations(mode string, log *slog.Logger) (bool, error) {
	switch mode {
	case "off":
		return true, nil
	case "on":
		if !model.OptimizationsSupported() {
			return true, fmt.Errorf("graph optimizations are not supported on this platform")
		}
		return false, nil
	case "auto", "":
		if !model.OptimizationsSupported() {
			log.Debug("graph optimizations auto-disabled on this platform")
			return true, nil
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown optimizations mode %q (want auto, on or off)", mode)
	}
}
