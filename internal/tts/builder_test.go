package tts

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/glottislabs/glottis/internal/config"
	"github.com/glottislabs/glottis/internal/model"
	"github.com/glottislabs/glottis/internal/task"
	"github.com/glottislabs/glottis/internal/voice"
)

func buildTestVoice(t *testing.T) *voice.Voice {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "en-us", "mary_ann-glow_tts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	lexicon := `{
		"language": "en-us",
		"phonemes": ["h", "ə"],
		"words": {"hello": [["h", "ə"]]}
	}`
	if err := os.WriteFile(filepath.Join(dir, "lexicon.json"), []byte(lexicon), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "generator.onnx"), []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return &voice.Voice{
		Name:      "mary_ann-glow_tts",
		Language:  "en-us",
		ModelType: "glow_tts",
		Dir:       dir,
	}
}

func TestBuildPipelineWiresVoice(t *testing.T) {
	pool := task.NewPool(2)
	defer pool.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := BuildPipeline(BuildOptions{
		Voice: buildTestVoice(t),
		Synth: config.Default().Synth,
		Pool:  pool,
	}, log)
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}
	if p.Language() != "en-us" {
		t.Fatalf("expected en-us, got %q", p.Language())
	}
	if p.SampleRate() != 22050 {
		t.Fatalf("expected default sample rate, got %d", p.SampleRate())
	}
}

func TestBuildPipelineOverrides(t *testing.T) {
	pool := task.NewPool(2)
	defer pool.Close()

	v := buildTestVoice(t)
	mapPath := filepath.Join(t.TempDir(), "map.json")
	if err := os.WriteFile(mapPath, []byte(`{"h": "x"}`), 0o644); err != nil {
		t.Fatalf("write map: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := BuildPipeline(BuildOptions{
		Voice:      v,
		MapPath:    mapPath,
		SampleRate: 16000,
		Synth:      config.Default().Synth,
		Pool:       pool,
	}, log)
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}
	if p.SampleRate() != 16000 {
		t.Fatalf("expected overridden sample rate, got %d", p.SampleRate())
	}
}

func TestBuildPipelineCrossLanguageDerivesMap(t *testing.T) {
	pool := task.NewPool(2)
	defer pool.Close()

	v := buildTestVoice(t)
	foreign := filepath.Join(t.TempDir(), "de-test", "gerda-glow_tts")
	if err := os.MkdirAll(foreign, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	lexicon := `{
		"language": "de-test",
		"phonemes": ["hː", "ə"],
		"words": {"hallo": [["hː", "ə"]]}
	}`
	if err := os.WriteFile(filepath.Join(foreign, "lexicon.json"), []byte(lexicon), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := BuildPipeline(BuildOptions{
		Voice:      v,
		LexiconDir: foreign,
		Synth:      config.Default().Synth,
		Pool:       pool,
	}, log)
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}
	if p.Language() != "de-test" {
		t.Fatalf("expected foreign lexicon language, got %q", p.Language())
	}
	if p.opts.Map == nil {
		t.Fatal("expected a derived phoneme map for the cross-language case")
	}
	if got := p.opts.Map.Apply("hː"); got != "h" {
		t.Fatalf("expected hː to map into the voice inventory as h, got %q", got)
	}
	// Encoding must run against the voice's trained inventory.
	if _, err := p.vocab.Encode([]string{"h", "ə"}); err != nil {
		t.Fatalf("encode against voice inventory: %v", err)
	}
}

func TestBuildPipelineRejectsUnknownModelType(t *testing.T) {
	pool := task.NewPool(1)
	defer pool.Close()

	v := buildTestVoice(t)
	v.ModelType = "tacotron2"

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := BuildPipeline(BuildOptions{Voice: v, Synth: config.Default().Synth, Pool: pool}, log)
	if err == nil {
		t.Fatal("expected error for unknown model type")
	}
}

func TestBuildPipelineRequiresLexicon(t *testing.T) {
	pool := task.NewPool(1)
	defer pool.Close()

	v := buildTestVoice(t)
	if err := os.Remove(filepath.Join(v.Dir, "lexicon.json")); err != nil {
		t.Fatalf("remove lexicon: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := BuildPipeline(BuildOptions{Voice: v, Synth: config.Default().Synth, Pool: pool}, log)
	if err == nil {
		t.Fatal("expected error for missing lexicon")
	}
}

func TestResolveOptimizations(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	noOpt, err := resolveOptimizations("off", log)
	if err != nil || !noOpt {
		t.Fatalf("off: expected disabled, got %v %v", noOpt, err)
	}
	if _, err := resolveOptimizations("sometimes", log); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	noOpt, err = resolveOptimizations("auto", log)
	if err != nil {
		t.Fatalf("auto: %v", err)
	}
	if model.OptimizationsSupported() && noOpt {
		t.Fatal("auto should enable optimizations on supported platforms")
	}
}
