package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder publishes synthesis metrics through OpenTelemetry. A nil Recorder
// is valid and records nothing, so callers without a meter provider can pass
// nil instead of branching.
type Recorder struct {
	firstAudio   metric.Float64Histogram
	rtf          metric.Float64Histogram
	audioSeconds metric.Float64Counter
	sentences    metric.Int64Counter
	failures     metric.Int64Counter
}

// NewRecorder creates the synthesis instruments on the global meter provider.
func NewRecorder() (*Recorder, error) {
	meter := otel.Meter("glottis/tts")

	firstAudio, err := meter.Float64Histogram("glottis_first_audio_seconds",
		metric.WithDescription("Latency from request to first audible sentence"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create first audio histogram: %w", err)
	}

	rtf, err := meter.Float64Histogram("glottis_real_time_factor",
		metric.WithDescription("Audio seconds produced per inference second"))
	if err != nil {
		return nil, fmt.Errorf("create real time factor histogram: %w", err)
	}

	audioSeconds, err := meter.Float64Counter("glottis_audio_seconds_total",
		metric.WithDescription("Total seconds of audio synthesized"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create audio seconds counter: %w", err)
	}

	sentences, err := meter.Int64Counter("glottis_sentences_total",
		metric.WithDescription("Total sentences synthesized"))
	if err != nil {
		return nil, fmt.Errorf("create sentence counter: %w", err)
	}

	failures, err := meter.Int64Counter("glottis_synthesis_failures_total",
		metric.WithDescription("Total utterances aborted by an error"))
	if err != nil {
		return nil, fmt.Errorf("create failure counter: %w", err)
	}

	return &Recorder{
		firstAudio:   firstAudio,
		rtf:          rtf,
		audioSeconds: audioSeconds,
		sentences:    sentences,
		failures:     failures,
	}, nil
}

// RecordUtterance publishes one utterance's report.
func (r *Recorder) RecordUtterance(ctx context.Context, voice string, report *UtteranceReport) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("voice", voice))
	r.firstAudio.Record(ctx, report.FirstAudio.Seconds(), attrs)
	r.rtf.Record(ctx, report.RealTimeFactor(), attrs)
	r.audioSeconds.Add(ctx, report.AudioSeconds(), attrs)
	r.sentences.Add(ctx, int64(len(report.Sentences)), attrs)
}

// RecordFailure counts an aborted utterance.
func (r *Recorder) RecordFailure(ctx context.Context, voice string) {
	if r == nil {
		return
	}
	r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("voice", voice)))
}
