package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glottislabs/glottis/internal/bus"
	"github.com/glottislabs/glottis/internal/config"
	"github.com/glottislabs/glottis/internal/history"
	"github.com/glottislabs/glottis/internal/metrics"
	"github.com/glottislabs/glottis/internal/natsserver"
	"github.com/glottislabs/glottis/internal/tts"
	"github.com/glottislabs/glottis/internal/voice"
)

// Options carry the synthesis stack the daemon serves. The synthesizer is
// built once at startup for the configured voice.
type Options struct {
	Synth      tts.Synthesizer
	SampleRate int
	VoiceName  string
	Voices     *voice.Resolver
	Recorder   *metrics.Recorder
	History    *history.Store
}

// Server is the glottisd daemon: an HTTP API, optional NATS speak service,
// and telemetry, all around one synthesis pipeline.
type Server struct {
	cfg        config.Config
	opts       Options
	logger     *slog.Logger
	httpServer *http.Server
	embedded   *natsserver.EmbeddedServer
	busClient  *bus.Client
	speak      *SpeakService
	telClose   func(context.Context) error
	ready      atomic.Bool
	wg         sync.WaitGroup
}

func New(cfg config.Config, opts Options, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
	}
}

// Start runs the daemon until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	s.telClose = shutdownTelemetry

	if s.cfg.Bus.Enabled {
		if err := s.startBus(ctx); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/synthesize", s.handleSynthesize)
	mux.HandleFunc("/api/voices", s.handleVoices)
	if metricHandler != nil {
		mux.Handle("/metrics", metricHandler)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.HTTP.Bind, s.cfg.HTTP.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	s.ready.Store(true)
	s.logger.Info("glottisd started",
		slog.String("addr", addr),
		slog.String("voice", s.opts.VoiceName))

	<-ctx.Done()
	s.logger.Info("glottisd stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if s.speak != nil {
		s.speak.Close()
	}
	s.busClient.Close()
	s.embedded.Shutdown()
	s.wg.Wait()

	if s.telClose != nil {
		if err := s.telClose(shutdownCtx); err != nil {
			s.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (s *Server) startBus(ctx context.Context) error {
	embedded, err := natsserver.Start(s.cfg.Bus, s.logger)
	if err != nil {
		return fmt.Errorf("start embedded bus: %w", err)
	}
	s.embedded = embedded

	busCfg := s.cfg.Bus
	if busCfg.Embedded {
		busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
	}
	client, err := bus.Connect(busCfg, s.logger)
	if err != nil {
		s.embedded.Shutdown()
		return err
	}
	s.busClient = client

	s.speak = NewSpeakService(ctx, client, s.opts, s.logger)
	if err := s.speak.Start(); err != nil {
		client.Close()
		s.embedded.Shutdown()
		return fmt.Errorf("start speak service: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.ready.Load() && (!s.cfg.Bus.Enabled || s.busClient.Healthy()) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
