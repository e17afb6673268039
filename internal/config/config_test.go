package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "glottis" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.HTTP.Port != 5002 {
		t.Fatalf("expected default port 5002, got %d", cfg.HTTP.Port)
	}
	if cfg.Synth.VocoderQuality != "high" {
		t.Fatalf("expected default vocoder quality high, got %q", cfg.Synth.VocoderQuality)
	}
	if cfg.Synth.Optimizations != "auto" {
		t.Fatalf("expected default optimizations auto, got %q", cfg.Synth.Optimizations)
	}
	if len(cfg.Voices.Directories) == 0 {
		t.Fatal("expected default voice directories")
	}
}

func TestDefaultVoiceDirsHonorXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/share")
	dirs := defaultVoiceDirs()
	if len(dirs) == 0 || dirs[0] != "/custom/share/glottis/voices" {
		t.Fatalf("expected XDG_DATA_HOME to lead the search path, got %v", dirs)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glottis.yaml")
	content := `
http:
  port: 8123
synth:
  noise_scale: 0.333
  vocoder_quality: low
voices:
  default: de-de
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8123 {
		t.Fatalf("expected port 8123, got %d", cfg.HTTP.Port)
	}
	if cfg.Synth.NoiseScale != 0.333 {
		t.Fatalf("expected noise scale override, got %g", cfg.Synth.NoiseScale)
	}
	if cfg.Synth.VocoderQuality != "low" {
		t.Fatalf("expected vocoder quality low, got %q", cfg.Synth.VocoderQuality)
	}
	if cfg.Voices.Default != "de-de" {
		t.Fatalf("expected default voice de-de, got %q", cfg.Voices.Default)
	}
	// Untouched sections keep their defaults.
	if cfg.Synth.LengthScale != 1.0 {
		t.Fatalf("expected default length scale, got %g", cfg.Synth.LengthScale)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GLOTTIS_BUS_ENABLED", "true")
	t.Setenv("GLOTTIS_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("GLOTTIS_BUS_USERNAME", "alice")
	t.Setenv("GLOTTIS_BUS_PASSWORD", "secret")
	t.Setenv("GLOTTIS_BUS_CONNECT_TIMEOUT_MS", "5000")
	t.Setenv("GLOTTIS_VOICES_DIRECTORIES", "/opt/voices, /usr/share/glottis/voices")
	t.Setenv("GLOTTIS_VOICES_DEFAULT", "fr-fr")
	t.Setenv("GLOTTIS_SYNTH_LENGTH_SCALE", "0.85")
	t.Setenv("GLOTTIS_SYNTH_OPTIMIZATIONS", "off")
	t.Setenv("GLOTTIS_HISTORY_ENABLED", "true")
	t.Setenv("GLOTTIS_HISTORY_PATH", "./tmp.db")
	t.Setenv("GLOTTIS_HISTORY_RETENTION_DAYS", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Username != "alice" || cfg.Bus.Password != "secret" {
		t.Fatal("expected credentials override")
	}
	if cfg.Bus.ConnectTimeout != 5000 {
		t.Fatalf("expected timeout 5000, got %d", cfg.Bus.ConnectTimeout)
	}
	if len(cfg.Voices.Directories) != 2 || cfg.Voices.Directories[0] != "/opt/voices" {
		t.Fatalf("expected voice directories override, got %v", cfg.Voices.Directories)
	}
	if cfg.Voices.Default != "fr-fr" {
		t.Fatalf("expected default voice override, got %q", cfg.Voices.Default)
	}
	if cfg.Synth.LengthScale != 0.85 {
		t.Fatalf("expected length scale override, got %g", cfg.Synth.LengthScale)
	}
	if cfg.Synth.Optimizations != "off" {
		t.Fatalf("expected optimizations override, got %q", cfg.Synth.Optimizations)
	}
	if !cfg.History.Enabled || cfg.History.Path != "./tmp.db" || cfg.History.RetentionDays != 7 {
		t.Fatalf("expected history overrides, got %+v", cfg.History)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"GLOTTIS_HTTP_PORT": "70000"}},
		{"bad quality", map[string]string{"GLOTTIS_SYNTH_VOCODER_QUALITY": "ultra"}},
		{"bad optimizations", map[string]string{"GLOTTIS_SYNTH_OPTIMIZATIONS": "maybe"}},
		{"bad length scale", map[string]string{"GLOTTIS_SYNTH_LENGTH_SCALE": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
