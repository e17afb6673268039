package tts

import (
	"context"

	"github.com/glottislabs/glottis/internal/metrics"
)

// Result carries one synthesized sentence. Samples are float32 in [-1, 1] at
// SampleRate.
type Result struct {
	Index      int
	Text       string
	Phonemes   []string
	Samples    []float32
	SampleRate int
	Timings    metrics.SentenceTimings
}

// Synthesizer streams synthesized sentences for a text. Results arrive in
// sentence order on the first channel; a failure is reported on the second
// and ends the stream early. Both channels close when the utterance is done.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (<-chan Result, <-chan error)
}
