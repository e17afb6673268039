package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glottislabs/glottis/internal/config"
	"github.com/glottislabs/glottis/internal/history"
	"github.com/glottislabs/glottis/internal/metrics"
	"github.com/glottislabs/glottis/internal/server"
	"github.com/glottislabs/glottis/internal/task"
	"github.com/glottislabs/glottis/internal/tts"
	"github.com/glottislabs/glottis/internal/voice"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		voiceSpec   string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&voiceSpec, "voice", "", "Voice to serve (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Telemetry.LogLevel),
	}))

	if voiceSpec == "" {
		voiceSpec = cfg.Voices.Default
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := voice.NewResolver(cfg.Voices.Directories, logger)
	v, err := resolveVoice(ctx, cfg, resolver, voiceSpec, logger)
	if err != nil {
		logger.Error("failed to resolve voice", slog.String("error", err.Error()))
		os.Exit(1)
	}

	vocoderDir, err := resolver.ResolveVocoder(cfg.Synth.VocoderQuality)
	if err != nil {
		logger.Warn("vocoder model unavailable", slog.String("error", err.Error()))
		vocoderDir = ""
	}

	pool := task.NewPool(cfg.Synth.MaxWorkers)
	defer pool.Close()

	pipeline, err := tts.BuildPipeline(tts.BuildOptions{
		Voice:      v,
		VocoderDir: vocoderDir,
		Synth:      cfg.Synth,
		Pool:       pool,
	}, logger)
	if err != nil {
		logger.Error("failed to build pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	recorder, err := metrics.NewRecorder()
	if err != nil {
		logger.Error("failed to create metrics recorder", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := history.Open(ctx, cfg.History, logger)
	if err != nil {
		logger.Error("failed to open history store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(cfg, server.Options{
		Synth:      pipeline,
		SampleRate: pipeline.SampleRate(),
		VoiceName:  v.Key(),
		Voices:     resolver,
		Recorder:   recorder,
		History:    store,
	}, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func resolveVoice(ctx context.Context, cfg config.Config, resolver *voice.Resolver, spec string, logger *slog.Logger) (*voice.Voice, error) {
	v, err := resolver.Resolve(spec)
	if err == nil {
		return v, nil
	}
	if !cfg.Voices.AutoGet {
		return nil, err
	}

	lang, name, ok := strings.Cut(spec, "/")
	if !ok {
		defaultName, found := voice.DefaultVoiceFor(spec)
		if !found {
			return nil, err
		}
		lang, name = spec, defaultName
	}
	downloader := voice.NewDownloader(cfg.Voices.DownloadURL, cfg.Voices.Directories[0], logger)
	if _, dlErr := downloader.Download(ctx, lang, name); dlErr != nil {
		return nil, dlErr
	}
	return resolver.Resolve(spec)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
