package tts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/model"
	"github.com/glottislabs/glottis/internal/phoneme"
	"github.com/glottislabs/glottis/internal/task"
)

type stubMel struct {
	calls     int32
	failAfter int
}

func (s *stubMel) PhonemesToMels(ids []int64) (*model.Mel, error) {
	n := int(atomic.AddInt32(&s.calls, 1))
	if s.failAfter > 0 && n > s.failAfter {
		return nil, errors.New("mel backend down")
	}
	frames := len(ids)
	return &model.Mel{Data: make([]float32, 2*frames), Channels: 2, Frames: frames}, nil
}

func (s *stubMel) Close() error { return nil }

type stubVocoder struct{}

func (stubVocoder) MelsToAudio(mel *model.Mel) ([]float32, error) {
	return make([]float32, mel.Frames*4), nil
}

func (stubVocoder) Close() error { return nil }

func pipelineLexicon() *phoneme.Lexicon {
	return phoneme.NewLexicon("xx-pipeline",
		[]string{"h", "ə", "w", "d", "ɡ"},
		map[string][][]string{
			"hello": {{"h", "ə"}},
			"world": {{"w", "d"}},
			"good":  {{"ɡ"}},
			"bad":   {{"missing"}},
		})
}

func testPipeline(t *testing.T, mel model.MelModel, voc model.Vocoder) *Pipeline {
	t.Helper()
	settings := audio.DefaultSettings()
	settings.SampleRate = 16000
	p, err := NewPipeline(PipelineConfig{
		Language: pipelineLexicon(),
		Mel:      task.Resolved[model.MelModel](mel, nil),
		Vocoder:  task.Resolved[model.Vocoder](voc, nil),
		Settings: settings,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestSynthesizeStreamsSentencesInOrder(t *testing.T) {
	p := testPipeline(t, &stubMel{}, stubVocoder{})

	results, errs := p.Synthesize(context.Background(), "hello world. good hello.")

	var got []Result
	for r := range results {
		got = append(got, r)
	}
	if err := <-errs; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("results out of order: %d, %d", got[0].Index, got[1].Index)
	}
	if got[0].Text != "hello world" {
		t.Fatalf("unexpected sentence text %q", got[0].Text)
	}
	if got[0].SampleRate != 16000 {
		t.Fatalf("unexpected sample rate %d", got[0].SampleRate)
	}
	if len(got[0].Samples) == 0 {
		t.Fatal("expected samples")
	}
	if got[0].Timings.AudioSeconds <= 0 {
		t.Fatal("expected positive audio seconds")
	}
}

func TestSentenceErrorAbortsUtterance(t *testing.T) {
	p := testPipeline(t, &stubMel{failAfter: 1}, stubVocoder{})

	results, errs := p.Synthesize(context.Background(), "hello. world. good.")

	var count int
	for range results {
		count++
	}
	err := <-errs
	if err == nil {
		t.Fatal("expected utterance error")
	}
	if count != 1 {
		t.Fatalf("expected 1 result before abort, got %d", count)
	}
}

func TestUnknownPhonemeIsFatal(t *testing.T) {
	p := testPipeline(t, &stubMel{}, stubVocoder{})

	results, errs := p.Synthesize(context.Background(), "bad")
	for range results {
		t.Fatal("expected no results")
	}
	err := <-errs
	if !errors.Is(err, phoneme.ErrUnknownPhoneme) {
		t.Fatalf("expected unknown phoneme error, got %v", err)
	}
}

func TestSynthesizeWaitsForModelLoad(t *testing.T) {
	melFuture, resolveMel := task.NewFuture[model.MelModel]()
	settings := audio.DefaultSettings()
	p, err := NewPipeline(PipelineConfig{
		Language: pipelineLexicon(),
		Mel:      melFuture,
		Vocoder:  task.Resolved[model.Vocoder](stubVocoder{}, nil),
		Settings: settings,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	results, errs := p.Synthesize(context.Background(), "hello")

	select {
	case <-results:
		t.Fatal("result arrived before model load finished")
	case <-time.After(30 * time.Millisecond):
	}

	resolveMel(&stubMel{}, nil)

	var count int
	for range results {
		count++
	}
	if err := <-errs; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 result, got %d", count)
	}
}

func TestModelLoadFailurePropagates(t *testing.T) {
	settings := audio.DefaultSettings()
	p, err := NewPipeline(PipelineConfig{
		Language: pipelineLexicon(),
		Mel:      task.Resolved[model.MelModel](nil, errors.New("weights corrupt")),
		Vocoder:  task.Resolved[model.Vocoder](stubVocoder{}, nil),
		Settings: settings,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	results, errs := p.Synthesize(context.Background(), "hello")
	for range results {
		t.Fatal("expected no results")
	}
	if err := <-errs; err == nil {
		t.Fatal("expected load error to propagate")
	}
}

func TestSynthesizeAllAggregates(t *testing.T) {
	p := testPipeline(t, &stubMel{}, stubVocoder{})

	samples, report, err := SynthesizeAll(context.Background(), p, "hello world. good.")
	if err != nil {
		t.Fatalf("synthesize all: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("expected samples")
	}
	if len(report.Sentences) != 2 {
		t.Fatalf("expected 2 sentences in report, got %d", len(report.Sentences))
	}
	if report.FirstAudio <= 0 {
		t.Fatal("expected first audio latency to be measured")
	}
	if report.AudioSeconds() <= 0 {
		t.Fatal("expected positive audio seconds")
	}
}

func TestNewPipelineRequiresLanguage(t *testing.T) {
	_, err := NewPipeline(PipelineConfig{
		Mel:     task.Resolved[model.MelModel](&stubMel{}, nil),
		Vocoder: task.Resolved[model.Vocoder](stubVocoder{}, nil),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("expected error for missing language")
	}
}
