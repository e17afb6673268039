package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/history"
	"github.com/glottislabs/glottis/internal/metrics"
	"github.com/glottislabs/glottis/internal/tts"
)

const synthesizeTimeout = 120 * time.Second

type synthesizeRequest struct {
	Text string `json:"text"`
}

// handleSynthesize turns POSTed text (plain or JSON, or GET ?text=) into a
// WAV response.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var text string
	switch r.Method {
	case http.MethodGet:
		text = r.URL.Query().Get("text")
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			var req synthesizeRequest
			if err := json.Unmarshal(body, &req); err != nil {
				http.Error(w, "invalid json body", http.StatusBadRequest)
				return
			}
			text = req.Text
		} else {
			text = string(body)
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if text == "" {
		http.Error(w, "no text to synthesize", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), synthesizeTimeout)
	defer cancel()

	samples, report, err := tts.SynthesizeAll(ctx, s.opts.Synth, text)
	if err != nil {
		s.logger.Warn("synthesis failed", slog.String("error", err.Error()))
		s.opts.Recorder.RecordFailure(ctx, s.opts.VoiceName)
		http.Error(w, "synthesis failed", http.StatusInternalServerError)
		return
	}

	wavData, err := audio.WAVBytes(audio.FloatToPCM16(samples), s.opts.SampleRate)
	if err != nil {
		s.logger.Error("wav encoding failed", slog.String("error", err.Error()))
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}

	s.recordSynthesis(ctx, text, report)
	report.Log(s.logger)

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wavData)
}

// handleVoices lists installed voices as JSON.
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.opts.Voices == nil {
		http.Error(w, "voice listing unavailable", http.StatusNotImplemented)
		return
	}
	voices, err := s.opts.Voices.List()
	if err != nil {
		s.logger.Warn("voice listing failed", slog.String("error", err.Error()))
		http.Error(w, "voice listing failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(voices)
}

func (s *Server) recordSynthesis(ctx context.Context, text string, report *metrics.UtteranceReport) {
	s.opts.Recorder.RecordUtterance(ctx, s.opts.VoiceName, report)
	if s.opts.History == nil {
		return
	}
	rec := history.Record{
		Voice:        s.opts.VoiceName,
		Text:         text,
		Sentences:    len(report.Sentences),
		AudioSeconds: report.AudioSeconds(),
		InferSeconds: report.InferSeconds(),
	}
	if err := s.opts.History.Append(ctx, rec); err != nil {
		s.logger.Warn("history append failed", slog.String("error", err.Error()))
	}
}
