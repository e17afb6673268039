package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/bus"
	"github.com/glottislabs/glottis/internal/metrics"
	"github.com/glottislabs/glottis/internal/protocol"
)

// SpeakService answers speak.request messages on the bus, streaming one
// speak.audio message per synthesized sentence and closing with speak.done.
type SpeakService struct {
	bus    *bus.Client
	opts   Options
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewSpeakService(parent context.Context, busClient *bus.Client, opts Options, log *slog.Logger) *SpeakService {
	ctx, cancel := context.WithCancel(parent)
	return &SpeakService{
		bus:    busClient,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "speak-service")),
	}
}

func (s *SpeakService) Start() error {
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSpeakRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *SpeakService) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *SpeakService) handleRequest(msg *nats.Msg) {
	var req protocol.SpeakRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode speak request", slogError(err))
		return
	}
	if req.Text == "" {
		s.publishDone(req, nil, "no text to synthesize")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, synthesizeTimeout)
		defer cancel()

		start := time.Now()
		results, errs := s.opts.Synth.Synthesize(ctx, req.Text)

		report := &metrics.UtteranceReport{}
		sequence := 0
		for result := range results {
			if sequence == 0 {
				report.FirstAudio = time.Since(start)
			}
			report.Add(result.Timings)
			s.publishAudio(req, sequence, result.SampleRate, audio.PCM16Bytes(audio.FloatToPCM16(result.Samples)))
			sequence++
		}
		if err := <-errs; err != nil {
			s.logger.Warn("speak synthesis failed", slogError(err))
			s.opts.Recorder.RecordFailure(ctx, s.opts.VoiceName)
			s.publishDone(req, report, err.Error())
			return
		}

		s.opts.Recorder.RecordUtterance(ctx, s.opts.VoiceName, report)
		report.Log(s.logger)
		s.publishDone(req, report, "")
	}()
}

func (s *SpeakService) publishAudio(req protocol.SpeakRequest, sequence, sampleRate int, pcm []byte) {
	packet := protocol.SpeakAudio{
		RequestID:  req.RequestID,
		Sequence:   sequence,
		SampleRate: sampleRate,
		Channels:   1,
		PCM:        pcm,
	}
	data, err := json.Marshal(packet)
	if err != nil {
		s.logger.Warn("failed to marshal speak audio", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectSpeakAudio, data); err != nil {
		s.logger.Warn("failed to publish speak audio", slogError(err))
	}
}

func (s *SpeakService) publishDone(req protocol.SpeakRequest, report *metrics.UtteranceReport, errText string) {
	done := protocol.SpeakDone{
		RequestID: req.RequestID,
		Error:     errText,
		Timestamp: time.Now().UTC(),
	}
	if report != nil {
		done.Sentences = len(report.Sentences)
		done.AudioSeconds = report.AudioSeconds()
		done.RealTimeFactor = report.RealTimeFactor()
	}
	data, err := json.Marshal(done)
	if err != nil {
		s.logger.Warn("failed to marshal speak done", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectSpeakDone, data); err != nil {
		s.logger.Warn("failed to publish speak done", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
