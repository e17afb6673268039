package metrics

import (
	"log/slog"
	"time"
)

// SentenceTimings collects the per-stage wall-clock costs of synthesizing one
// sentence. They are reporting-only; nothing in the pipeline branches on them.
type SentenceTimings struct {
	Phonemize    time.Duration
	MelInfer     time.Duration
	VocoderInfer time.Duration
	AudioSeconds float64
}

// InferSeconds is the time spent in model inference, excluding phonemization.
func (t SentenceTimings) InferSeconds() float64 {
	return (t.MelInfer + t.VocoderInfer).Seconds()
}

// RealTimeFactor is audio seconds produced per inference second. Above 1
// means faster than real time.
func (t SentenceTimings) RealTimeFactor() float64 {
	infer := t.InferSeconds()
	if infer <= 0 {
		return 0
	}
	return t.AudioSeconds / infer
}

// UtteranceReport accumulates timings across the sentences of one utterance.
type UtteranceReport struct {
	FirstAudio time.Duration
	Sentences  []SentenceTimings
}

// Add appends one sentence's timings.
func (r *UtteranceReport) Add(t SentenceTimings) {
	r.Sentences = append(r.Sentences, t)
}

// AudioSeconds is the total audio duration produced.
func (r *UtteranceReport) AudioSeconds() float64 {
	var total float64
	for _, t := range r.Sentences {
		total += t.AudioSeconds
	}
	return total
}

// InferSeconds is the total time spent in model inference.
func (r *UtteranceReport) InferSeconds() float64 {
	var total float64
	for _, t := range r.Sentences {
		total += t.InferSeconds()
	}
	return total
}

// RealTimeFactor is the utterance-level audio seconds per inference second.
func (r *UtteranceReport) RealTimeFactor() float64 {
	infer := r.InferSeconds()
	if infer <= 0 {
		return 0
	}
	return r.AudioSeconds() / infer
}

// Log emits the report at debug level.
func (r *UtteranceReport) Log(log *slog.Logger) {
	log.Debug("synthesis complete",
		slog.Int("sentences", len(r.Sentences)),
		slog.Duration("first_audio", r.FirstAudio),
		slog.Float64("audio_seconds", r.AudioSeconds()),
		slog.Float64("infer_seconds", r.InferSeconds()),
		slog.Float64("real_time_factor", r.RealTimeFactor()))
}
