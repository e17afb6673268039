package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/glottislabs/glottis/internal/audio"
	"github.com/glottislabs/glottis/internal/config"
	"github.com/glottislabs/glottis/internal/task"
	"github.com/glottislabs/glottis/internal/tts"
	"github.com/glottislabs/glottis/internal/voice"
)

var version = "0.1.0-dev"

type cliFlags struct {
	configPath   string
	voiceSpec    string
	language     string
	quality      string
	noiseScale   float64
	lengthScale  float64
	denoiser     float64
	optimize     string
	maxWorkers   int
	seed         int64
	sampleRate   int
	phonemeMap   string
	phonemeLang  string
	outputDir    string
	outputNaming string
	idDelimiter  string
	csv          bool
	interactive  bool
	toStdout     bool
	rawStream    bool
	playCommand  string
	download     bool
	noDownload   bool
	downloadURL  string
	list         bool
	debug        bool
	showVersion  bool
}

func main() {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&f.voiceSpec, "voice", "", "Voice: language code, <language>/<name>, or bare name")
	flag.StringVar(&f.language, "language", "", "Language code for bare voice names")
	flag.StringVar(&f.quality, "quality", "", "Vocoder quality: high, medium or low")
	flag.Float64Var(&f.noiseScale, "noise-scale", -1, "Mel model noise scale (voice variability)")
	flag.Float64Var(&f.lengthScale, "length-scale", -1, "Mel model length scale (<1 is faster speech)")
	flag.Float64Var(&f.denoiser, "denoiser-strength", -1, "Vocoder denoiser strength (0 disables)")
	flag.StringVar(&f.optimize, "optimizations", "", "Graph optimizations: auto, on or off")
	flag.IntVar(&f.maxWorkers, "max-workers", 0, "Model load concurrency (0 = number of CPUs)")
	flag.Int64Var(&f.seed, "seed", -1, "Griffin-Lim phase seed")
	flag.IntVar(&f.sampleRate, "sample-rate", 0, "Override the voice's output sample rate")
	flag.StringVar(&f.phonemeMap, "phoneme-map", "", "Path to a phoneme map JSON file")
	flag.StringVar(&f.phonemeLang, "phoneme-language", "", "Phonemize with this language's lexicon instead of the voice's")
	flag.StringVar(&f.outputDir, "output-dir", "", "Write one WAV file per utterance into this directory")
	flag.StringVar(&f.outputNaming, "output-naming", "text", "Output file naming: text, time or id")
	flag.StringVar(&f.idDelimiter, "id-delimiter", "|", "Field delimiter for -csv input lines")
	flag.BoolVar(&f.csv, "csv", false, "Treat stdin lines as id<delimiter>text and name outputs by id")
	flag.BoolVar(&f.interactive, "interactive", false, "Prompt for text on stdin, one utterance per line")
	flag.BoolVar(&f.toStdout, "stdout", false, "Force WAV output to stdout")
	flag.BoolVar(&f.rawStream, "stream-raw", false, "Stream raw 16-bit PCM to stdout as sentences finish")
	flag.StringVar(&f.playCommand, "play-command", "", "Play each utterance with this command (WAV on stdin)")
	flag.BoolVar(&f.download, "download", false, "Download the voice if it is not installed")
	flag.BoolVar(&f.noDownload, "no-download", false, "Never download voices, even if configured to")
	flag.StringVar(&f.downloadURL, "url-format", "", "Voice download URL base")
	flag.BoolVar(&f.list, "list", false, "List installed voices and exit")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&f.showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if f.showVersion {
		fmt.Println(version)
		return
	}

	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(f, logger); err != nil {
		logger.Error("glottis failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(f cliFlags, logger *slog.Logger) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(&cfg, f)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := voice.NewResolver(cfg.Voices.Directories, logger)

	if f.list {
		return listVoices(resolver)
	}

	v, err := resolveVoice(ctx, cfg, resolver, cfg.Voices.Default, logger)
	if err != nil {
		return err
	}

	vocoderDir, err := resolver.ResolveVocoder(cfg.Synth.VocoderQuality)
	if err != nil {
		logger.Warn("vocoder model unavailable", slog.String("error", err.Error()))
		vocoderDir = ""
	}

	var lexiconDir string
	if f.phonemeLang != "" {
		pv, err := resolveVoice(ctx, cfg, resolver, f.phonemeLang, logger)
		if err != nil {
			return fmt.Errorf("phoneme language %s: %w", f.phonemeLang, err)
		}
		lexiconDir = pv.Dir
	}

	pool := task.NewPool(cfg.Synth.MaxWorkers)
	defer pool.Close()

	pipeline, err := tts.BuildPipeline(tts.BuildOptions{
		Voice:      v,
		VocoderDir: vocoderDir,
		LexiconDir: lexiconDir,
		MapPath:    f.phonemeMap,
		SampleRate: f.sampleRate,
		Synth:      cfg.Synth,
		Pool:       pool,
	}, logger)
	if err != nil {
		return err
	}

	var player *audio.Player
	if f.playCommand != "" {
		player, err = audio.NewPlayer(f.playCommand)
		if err != nil {
			return err
		}
	}

	if f.interactive {
		return interactiveLoop(ctx, f, pipeline, player, logger)
	}
	for _, u := range gatherUtterances(f) {
		if err := synthesizeUtterance(ctx, f, pipeline, player, u, logger); err != nil {
			return err
		}
	}
	return nil
}

func applyFlagOverrides(cfg *config.Config, f cliFlags) {
	switch {
	case f.voiceSpec != "" && f.language != "" && !strings.Contains(f.voiceSpec, "/"):
		cfg.Voices.Default = f.language + "/" + f.voiceSpec
	case f.voiceSpec != "":
		cfg.Voices.Default = f.voiceSpec
	case f.language != "":
		cfg.Voices.Default = f.language
	}
	if f.quality != "" {
		cfg.Synth.VocoderQuality = f.quality
	}
	if f.noiseScale >= 0 {
		cfg.Synth.NoiseScale = f.noiseScale
	}
	if f.lengthScale > 0 {
		cfg.Synth.LengthScale = f.lengthScale
	}
	if f.denoiser >= 0 {
		cfg.Synth.DenoiserStrength = f.denoiser
	}
	if f.optimize != "" {
		cfg.Synth.Optimizations = f.optimize
	}
	if f.maxWorkers > 0 {
		cfg.Synth.MaxWorkers = f.maxWorkers
	}
	if f.seed >= 0 {
		cfg.Synth.Seed = f.seed
	}
	if f.download {
		cfg.Voices.AutoGet = true
	}
	if f.noDownload {
		cfg.Voices.AutoGet = false
	}
	if f.downloadURL != "" {
		cfg.Voices.DownloadURL = f.downloadURL
	}
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

func listVoices(resolver *voice.Resolver) error {
	voices, err := resolver.List()
	if err != nil {
		return err
	}
	for _, v := range voices {
		fmt.Printf("%s\t%s\n", v.Key(), v.ModelType)
	}
	return nil
}

// utterance is one unit of input text, with an optional caller-supplied id
// used to name its output file.
type utterance struct {
	id   string
	text string
}

// gatherUtterances returns the command-line text as one utterance, or each
// non-empty stdin line as its own. With -csv each line is id<delim>text.
func gatherUtterances(f cliFlags) []utterance {
	if flag.NArg() > 0 {
		return []utterance{{text: strings.Join(flag.Args(), " ")}}
	}
	var utterances []utterance
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if f.csv {
			id, text, ok := strings.Cut(line, f.idDelimiter)
			if !ok {
				continue
			}
			utterances = append(utterances, utterance{id: strings.TrimSpace(id), text: strings.TrimSpace(text)})
			continue
		}
		utterances = append(utterances, utterance{text: line})
	}
	return utterances
}

// interactiveLoop synthesizes each stdin line as it is entered.
func interactiveLoop(ctx context.Context, f cliFlags, pipeline *tts.Pipeline, player *audio.Player, logger *slog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := synthesizeUtterance(ctx, f, pipeline, player, utterance{text: text}, logger); err != nil {
			return err
		}
	}
}

func synthesizeUtterance(ctx context.Context, f cliFlags, pipeline *tts.Pipeline, player *audio.Player, u utterance, logger *slog.Logger) error {
	if f.rawStream {
		return streamRaw(ctx, pipeline, u.text, logger)
	}

	samples, report, err := tts.SynthesizeAll(ctx, pipeline, u.text)
	if err != nil {
		return err
	}
	report.Log(logger)

	wavData, err := audio.WAVBytes(audio.FloatToPCM16(samples), pipeline.SampleRate())
	if err != nil {
		return err
	}

	switch {
	case player != nil:
		return player.Play(ctx, wavData)
	case f.outputDir != "" && !f.toStdout:
		path := filepath.Join(f.outputDir, outputName(f.outputNaming, u)+".wav")
		if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, wavData, 0o644); err != nil {
			return err
		}
		logger.Info("wrote utterance", slog.String("path", path))
		return nil
	default:
		_, err := os.Stdout.Write(wavData)
		return err
	}
}

// streamRaw writes 16-bit PCM to stdout sentence by sentence, so playback
// can begin before the whole utterance is synthesized.
func streamRaw(ctx context.Context, pipeline *tts.Pipeline, text string, logger *slog.Logger) error {
	start := time.Now()
	results, errs := pipeline.Synthesize(ctx, text)

	first := true
	for result := range results {
		if first {
			logger.Debug("first audio ready", slog.Duration("latency", time.Since(start)))
			first = false
		}
		if _, err := os.Stdout.Write(audio.PCM16Bytes(audio.FloatToPCM16(result.Samples))); err != nil {
			return err
		}
	}
	return <-errs
}

func outputName(naming string, u utterance) string {
	if u.id != "" {
		return u.id
	}
	switch naming {
	case "time":
		return fmt.Sprintf("%d", time.Now().UnixMilli())
	case "id":
		return uuid.NewString()
	default:
		if name := sanitizeName(u.text, 50); name != "" {
			return name
		}
		return uuid.NewString()
	}
}

// sanitizeName keeps letters and digits, folds everything else into single
// underscores.
func sanitizeName(text string, maxLen int) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
		if b.Len() >= maxLen {
			break
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
