package voice

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func installVoice(t *testing.T, root, lang, name string) {
	t.Helper()
	dir := filepath.Join(root, lang, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "generator.onnx"), []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
}

func TestResolveByLanguageAlias(t *testing.T) {
	root := t.TempDir()
	installVoice(t, root, "en-us", "mary_ann-glow_tts")

	r := NewResolver([]string{root}, discardLogger())
	v, err := r.Resolve("en-us")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if v.Name != "mary_ann-glow_tts" || v.Language != "en-us" {
		t.Fatalf("unexpected voice %+v", v)
	}
	if v.ModelType != "glow_tts" {
		t.Fatalf("expected glow_tts model type, got %q", v.ModelType)
	}
}

func TestResolveFullyQualifiedAndBareName(t *testing.T) {
	root := t.TempDir()
	installVoice(t, root, "en-us", "harvard-glow_tts")

	r := NewResolver([]string{root}, discardLogger())

	if _, err := r.Resolve("en-us/harvard-glow_tts"); err != nil {
		t.Fatalf("qualified resolve: %v", err)
	}
	v, err := r.Resolve("harvard-glow_tts")
	if err != nil {
		t.Fatalf("bare name resolve: %v", err)
	}
	if v.Language != "en-us" {
		t.Fatalf("expected en-us, got %q", v.Language)
	}
}

func TestResolveMissingVoice(t *testing.T) {
	r := NewResolver([]string{t.TempDir()}, discardLogger())
	if _, err := r.Resolve("en-us/nope-glow_tts"); err == nil {
		t.Fatal("expected error for missing voice")
	}
}

func TestEarlierDirShadowsLater(t *testing.T) {
	userDir := t.TempDir()
	systemDir := t.TempDir()
	installVoice(t, userDir, "en-us", "mary_ann-glow_tts")
	installVoice(t, systemDir, "en-us", "mary_ann-glow_tts")

	r := NewResolver([]string{userDir, systemDir}, discardLogger())
	v, err := r.Resolve("en-us")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if filepath.Dir(filepath.Dir(v.Dir)) != userDir {
		t.Fatalf("expected user dir to win, got %s", v.Dir)
	}
}

func TestListSkipsVocoders(t *testing.T) {
	root := t.TempDir()
	installVoice(t, root, "en-us", "mary_ann-glow_tts")
	installVoice(t, root, "de-de", "thorsten-glow_tts")
	installVoice(t, root, "hifi_gan", "vctk_small")

	r := NewResolver([]string{root}, discardLogger())
	voices, err := r.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	if voices[0].Language != "de-de" || voices[1].Language != "en-us" {
		t.Fatalf("expected sorted order, got %+v", voices)
	}
}

func TestResolveVocoderQuality(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "hifi_gan", "vctk_small")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "generator.onnx"), []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	r := NewResolver([]string{root}, discardLogger())
	got, err := r.ResolveVocoder("low")
	if err != nil {
		t.Fatalf("resolve vocoder: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %s, got %s", dir, got)
	}

	if _, err := r.ResolveVocoder("ultra"); err == nil {
		t.Fatal("expected error for unknown quality tier")
	}
	if _, err := r.ResolveVocoder("high"); err == nil {
		t.Fatal("expected error for uninstalled vocoder")
	}
}

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTarGz(t *testing.T) {
	dest := t.TempDir()
	archive := tarGz(t, map[string]string{
		"mary_ann-glow_tts/generator.onnx": "onnx",
		"mary_ann-glow_tts/config.json":    "{}",
	})

	if err := ExtractTarGz(bytes.NewReader(archive), dest); err != nil {
		t.Fatalf("extract: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "mary_ann-glow_tts", "config.json"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(data) != "{}" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestExtractTarGzRejectsTraversal(t *testing.T) {
	dest := t.TempDir()
	archive := tarGz(t, map[string]string{"../evil.txt": "boom"})

	if err := ExtractTarGz(bytes.NewReader(archive), dest); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestModelTypeFromName(t *testing.T) {
	typ, err := modelTypeFromName("mary_ann-glow_tts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != "glow_tts" {
		t.Fatalf("expected glow_tts, got %q", typ)
	}
	if _, err := modelTypeFromName("noseparator"); err == nil {
		t.Fatal("expected error for missing suffix")
	}
}
