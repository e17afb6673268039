package metrics

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestSentenceRealTimeFactor(t *testing.T) {
	timings := SentenceTimings{
		MelInfer:     300 * time.Millisecond,
		VocoderInfer: 200 * time.Millisecond,
		AudioSeconds: 2.0,
	}
	if got := timings.RealTimeFactor(); math.Abs(got-4.0) > 1e-9 {
		t.Fatalf("expected rtf 4.0, got %g", got)
	}
}

func TestRealTimeFactorZeroWithoutInference(t *testing.T) {
	timings := SentenceTimings{AudioSeconds: 1.5}
	if got := timings.RealTimeFactor(); got != 0 {
		t.Fatalf("expected 0 for zero inference time, got %g", got)
	}
}

func TestUtteranceReportAggregates(t *testing.T) {
	var report UtteranceReport
	report.Add(SentenceTimings{MelInfer: time.Second, AudioSeconds: 1})
	report.Add(SentenceTimings{MelInfer: time.Second, AudioSeconds: 3})

	if got := report.AudioSeconds(); got != 4 {
		t.Fatalf("expected 4 audio seconds, got %g", got)
	}
	if got := report.InferSeconds(); got != 2 {
		t.Fatalf("expected 2 infer seconds, got %g", got)
	}
	rtf := report.RealTimeFactor()
	if rtf <= 0 || math.IsInf(rtf, 0) || math.IsNaN(rtf) {
		t.Fatalf("rtf must be positive and finite, got %g", rtf)
	}
	if math.Abs(rtf-2.0) > 1e-9 {
		t.Fatalf("expected rtf 2.0, got %g", rtf)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	report := &UtteranceReport{FirstAudio: time.Millisecond}
	r.RecordUtterance(context.Background(), "test", report)
	r.RecordFailure(context.Background(), "test")
}
