package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type VoicesConfig struct {
	Directories []string `yaml:"directories"`
	DownloadURL string   `yaml:"download_url"`
	AutoGet     bool     `yaml:"auto_get"`
	Default     string   `yaml:"default"`
}

type SynthConfig struct {
	NoiseScale       float64 `yaml:"noise_scale"`
	LengthScale      float64 `yaml:"length_scale"`
	VocoderQuality   string  `yaml:"vocoder_quality"`
	DenoiserStrength float64 `yaml:"denoiser_strength"`
	Optimizations    string  `yaml:"optimizations"`
	MaxWorkers       int     `yaml:"max_workers"`
	Seed             int64   `yaml:"seed"`
}

type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRecords    int    `yaml:"max_records"`
}

type Config struct {
	ServiceName string          `yaml:"service_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Voices      VoicesConfig    `yaml:"voices"`
	Synth       SynthConfig     `yaml:"synth"`
	History     HistoryConfig   `yaml:"history"`
}

func Default() Config {
	return Config{
		ServiceName: "glottis",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 5002,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Voices: VoicesConfig{
			Directories: defaultVoiceDirs(),
			DownloadURL: "",
			AutoGet:     false,
			Default:     "en-us",
		},
		Synth: SynthConfig{
			NoiseScale:       0.667,
			LengthScale:      1.0,
			VocoderQuality:   "high",
			DenoiserStrength: 0.005,
			Optimizations:    "auto",
			MaxWorkers:       0,
			Seed:             1234,
		},
		History: HistoryConfig{
			Enabled:       false,
			Path:          "./data/glottis-history.db",
			RetentionDays: 30,
			MaxRecords:    10000,
		},
	}
}

func defaultVoiceDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dirs = append(dirs, xdg+"/glottis/voices")
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home+"/.local/share/glottis/voices")
	}
	dirs = append(dirs, "/usr/share/glottis/voices")
	return dirs
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "GLOTTIS_SERVICE_NAME")
	overrideString(&cfg.Environment, "GLOTTIS_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "GLOTTIS_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "GLOTTIS_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "GLOTTIS_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "GLOTTIS_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "GLOTTIS_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Enabled, "GLOTTIS_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "GLOTTIS_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "GLOTTIS_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "GLOTTIS_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "GLOTTIS_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "GLOTTIS_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "GLOTTIS_BUS_TOKEN")
	overrideInt(&cfg.Bus.ConnectTimeout, "GLOTTIS_BUS_CONNECT_TIMEOUT_MS")
	overrideStringSlice(&cfg.Voices.Directories, "GLOTTIS_VOICES_DIRECTORIES")
	overrideString(&cfg.Voices.DownloadURL, "GLOTTIS_VOICES_DOWNLOAD_URL")
	overrideBool(&cfg.Voices.AutoGet, "GLOTTIS_VOICES_AUTO_GET")
	overrideString(&cfg.Voices.Default, "GLOTTIS_VOICES_DEFAULT")
	overrideFloat(&cfg.Synth.NoiseScale, "GLOTTIS_SYNTH_NOISE_SCALE")
	overrideFloat(&cfg.Synth.LengthScale, "GLOTTIS_SYNTH_LENGTH_SCALE")
	overrideString(&cfg.Synth.VocoderQuality, "GLOTTIS_SYNTH_VOCODER_QUALITY")
	overrideFloat(&cfg.Synth.DenoiserStrength, "GLOTTIS_SYNTH_DENOISER_STRENGTH")
	overrideString(&cfg.Synth.Optimizations, "GLOTTIS_SYNTH_OPTIMIZATIONS")
	overrideInt(&cfg.Synth.MaxWorkers, "GLOTTIS_SYNTH_MAX_WORKERS")
	overrideBool(&cfg.History.Enabled, "GLOTTIS_HISTORY_ENABLED")
	overrideString(&cfg.History.Path, "GLOTTIS_HISTORY_PATH")
	overrideInt(&cfg.History.RetentionDays, "GLOTTIS_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxRecords, "GLOTTIS_HISTORY_MAX_RECORDS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if len(cfg.Voices.Directories) == 0 {
		return errors.New("voices.directories must not be empty")
	}
	if cfg.Voices.Default == "" {
		return errors.New("voices.default must not be empty")
	}
	if cfg.Synth.NoiseScale < 0 {
		return errors.New("synth.noise_scale must be >= 0")
	}
	if cfg.Synth.LengthScale <= 0 {
		return errors.New("synth.length_scale must be positive")
	}
	switch cfg.Synth.VocoderQuality {
	case "high", "medium", "low":
	default:
		return errors.New("synth.vocoder_quality must be one of high|medium|low")
	}
	if cfg.Synth.DenoiserStrength < 0 {
		return errors.New("synth.denoiser_strength must be >= 0")
	}
	switch cfg.Synth.Optimizations {
	case "auto", "on", "off":
	default:
		return errors.New("synth.optimizations must be one of auto|on|off")
	}
	if cfg.Synth.MaxWorkers < 0 {
		return errors.New("synth.max_workers must be >= 0")
	}
	if cfg.History.Enabled {
		if cfg.History.Path == "" {
			return errors.New("history.path must not be empty when history is enabled")
		}
		if cfg.History.RetentionDays < 0 {
			return errors.New("history.retention_days must be >= 0")
		}
		if cfg.History.MaxRecords < 0 {
			return errors.New("history.max_records must be >= 0")
		}
	}
	return nil
}
