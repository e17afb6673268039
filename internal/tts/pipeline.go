package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/metrics"
	"github.com/glottislabs/glottis/internal/model"
	"github.com/glottislabs/glottis/internal/phoneme"
	"github.com/glottislabs/glottis/internal/task"
)

// PipelineConfig wires a pipeline's stages together. The model futures come
// from the loader, so construction never waits on model load. Vocabulary
// selects the inventory phonemes are encoded against; nil uses the Language's
// own. Cross-language phonemization sets it to the voice's trained inventory.
type PipelineConfig struct {
	Language   phoneme.Language
	Vocabulary *phoneme.Vocabulary
	Phoneme    phoneme.Options
	Mel        *task.Future[model.MelModel]
	Vocoder    *task.Future[model.Vocoder]
	Settings   audio.Settings
}

// Pipeline runs text through phonemization, phoneme-id encoding, the
// text-to-mel model and the vocoder, one sentence at a time. Sentences are
// emitted as soon as they are ready, so playback of the first sentence can
// start while later ones are still being synthesized.
type Pipeline struct {
	lang     phoneme.Language
	vocab    *phoneme.Vocabulary
	opts     phoneme.Options
	mel      *task.Future[model.MelModel]
	vocoder  *task.Future[model.Vocoder]
	settings audio.Settings
	log      *slog.Logger
	now      func() time.Time
}

// NewPipeline validates the wiring and returns a ready pipeline. Model loads
// may still be in flight; the first synthesis blocks on them.
func NewPipeline(cfg PipelineConfig, log *slog.Logger) (*Pipeline, error) {
	if cfg.Language == nil {
		return nil, fmt.Errorf("pipeline requires a language")
	}
	if cfg.Mel == nil || cfg.Vocoder == nil {
		return nil, fmt.Errorf("pipeline requires mel and vocoder futures")
	}
	vocab := cfg.Vocabulary
	if vocab == nil {
		vocab = phoneme.VocabularyFor(cfg.Language)
	}
	return &Pipeline{
		lang:     cfg.Language,
		vocab:    vocab,
		opts:     cfg.Phoneme,
		mel:      cfg.Mel,
		vocoder:  cfg.Vocoder,
		settings: cfg.Settings,
		log:      log.With(slog.String("component", "pipeline")),
		now:      time.Now,
	}, nil
}

// SampleRate returns the output rate of the pipeline's voice.
func (p *Pipeline) SampleRate() int { return p.settings.SampleRate }

// Language returns the language code of the pipeline's voice.
func (p *Pipeline) Language() string { return p.lang.Code() }

// Synthesize streams one Result per sentence of text. Any sentence error
// aborts the remainder of the utterance; results already emitted stay valid.
func (p *Pipeline) Synthesize(ctx context.Context, text string) (<-chan Result, <-chan error) {
	results := make(chan Result)
	errs := make(chan error, 1)

	go func() {
		defer close(results)
		defer close(errs)

		phonemizeStart := p.now()
		sentences, err := phoneme.Phonemize(p.lang, text, p.opts)
		if err != nil {
			errs <- fmt.Errorf("phonemize: %w", err)
			return
		}
		phonemizeTime := p.now().Sub(phonemizeStart)

		for i, sentence := range sentences {
			result, err := p.synthesizeSentence(ctx, i, sentence)
			if err != nil {
				errs <- fmt.Errorf("sentence %d: %w", i, err)
				return
			}
			// Phonemization runs once up front; charge it to the first
			// sentence so report totals stay honest.
			if i == 0 {
				result.Timings.Phonemize = phonemizeTime
			}

			select {
			case results <- result:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return results, errs
}

func (p *Pipeline) synthesizeSentence(ctx context.Context, index int, sentence phoneme.Sentence) (Result, error) {
	ids, err := p.vocab.Encode(sentence.Phonemes)
	if err != nil {
		return Result{}, err
	}

	melModel, err := p.mel.Await(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("text to mel model: %w", err)
	}

	melStart := p.now()
	mel, err := melModel.PhonemesToMels(ids)
	if err != nil {
		return Result{}, err
	}
	melTime := p.now().Sub(melStart)

	vocoder, err := p.vocoder.Await(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("vocoder: %w", err)
	}

	vocStart := p.now()
	samples, err := vocoder.MelsToAudio(mel)
	if err != nil {
		return Result{}, err
	}
	vocTime := p.now().Sub(vocStart)

	timings := metrics.SentenceTimings{
		MelInfer:     melTime,
		VocoderInfer: vocTime,
		AudioSeconds: audio.Seconds(len(samples), p.settings.SampleRate),
	}
	p.log.Debug("sentence synthesized",
		slog.Int("index", index),
		slog.Int("phonemes", len(sentence.Phonemes)),
		slog.Float64("audio_seconds", timings.AudioSeconds),
		slog.Float64("real_time_factor", timings.RealTimeFactor()))

	return Result{
		Index:      index,
		Text:       strings.Join(sentence.Words, " "),
		Phonemes:   sentence.Phonemes,
		Samples:    samples,
		SampleRate: p.settings.SampleRate,
		Timings:    timings,
	}, nil
}

// SynthesizeAll drains a synthesizer into one sample buffer and an utterance
// report. FirstAudio is the time from the call until the first sentence
// arrived.
func SynthesizeAll(ctx context.Context, synth Synthesizer, text string) ([]float32, *metrics.UtteranceReport, error) {
	start := time.Now()
	results, errs := synth.Synthesize(ctx, text)

	report := &metrics.UtteranceReport{}
	var samples []float32
	for result := range results {
		if len(report.Sentences) == 0 {
			report.FirstAudio = time.Since(start)
		}
		samples = append(samples, result.Samples...)
		report.Add(result.Timings)
	}
	if err := <-errs; err != nil {
		return nil, nil, err
	}
	return samples, report, nil
}
