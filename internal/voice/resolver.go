package voice

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Resolver locates installed voices across one or more voice directories.
// Earlier directories shadow later ones, so a user directory can override a
// system-wide install.
type Resolver struct {
	dirs []string
	log  *slog.Logger
}

// NewResolver builds a resolver over the given search directories.
func NewResolver(dirs []string, log *slog.Logger) *Resolver {
	return &Resolver{dirs: dirs, log: log.With(slog.String("component", "voices"))}
}

// Resolve finds a voice by spec, which may be a bare language code ("en-us",
// resolved through the default-voice table), a fully qualified
// "<language>/<name>", or a bare voice name searched across all languages.
func (r *Resolver) Resolve(spec string) (*Voice, error) {
	if spec == "" {
		return nil, fmt.Errorf("voice not specified")
	}

	if name, ok := defaultVoices[spec]; ok {
		return r.find(spec, name)
	}
	if lang, name, ok := strings.Cut(spec, "/"); ok {
		return r.find(lang, name)
	}

	// Bare voice name: search every language directory.
	installed, err := r.List()
	if err != nil {
		return nil, err
	}
	for _, v := range installed {
		if v.Name == spec {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("voice %q not found in %s", spec, strings.Join(r.dirs, ", "))
}

func (r *Resolver) find(lang, name string) (*Voice, error) {
	for _, dir := range r.dirs {
		candidate := filepath.Join(dir, lang, name)
		if !hasModel(candidate) {
			continue
		}
		modelType, err := modelTypeFromName(name)
		if err != nil {
			return nil, err
		}
		r.log.Debug("resolved voice",
			slog.String("voice", lang+"/"+name),
			slog.String("dir", candidate))
		return &Voice{Name: name, Language: lang, ModelType: modelType, Dir: candidate}, nil
	}
	return nil, fmt.Errorf("voice %s/%s not found in %s", lang, name, strings.Join(r.dirs, ", "))
}

// ResolveVocoder maps a quality tier to an installed vocoder model directory.
func (r *Resolver) ResolveVocoder(quality string) (string, error) {
	rel, err := VocoderPathForQuality(quality)
	if err != nil {
		return "", err
	}
	for _, dir := range r.dirs {
		candidate := filepath.Join(dir, filepath.FromSlash(rel))
		if hasModel(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("vocoder %s not found in %s", rel, strings.Join(r.dirs, ", "))
}

// List returns every installed voice, sorted by language then name.
// Vocoder model directories are not voices and are skipped.
func (r *Resolver) List() ([]Voice, error) {
	seen := make(map[string]bool)
	var voices []Voice

	for _, dir := range r.dirs {
		langs, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read voices dir %s: %w", dir, err)
		}
		for _, langEntry := range langs {
			if !langEntry.IsDir() || langEntry.Name() == "hifi_gan" {
				continue
			}
			lang := langEntry.Name()
			names, err := os.ReadDir(filepath.Join(dir, lang))
			if err != nil {
				return nil, fmt.Errorf("read language dir %s: %w", lang, err)
			}
			for _, nameEntry := range names {
				if !nameEntry.IsDir() {
					continue
				}
				name := nameEntry.Name()
				voiceDir := filepath.Join(dir, lang, name)
				if !hasModel(voiceDir) || seen[lang+"/"+name] {
					continue
				}
				modelType, err := modelTypeFromName(name)
				if err != nil {
					continue
				}
				seen[lang+"/"+name] = true
				voices = append(voices, Voice{
					Name:      name,
					Language:  lang,
					ModelType: modelType,
					Dir:       voiceDir,
				})
			}
		}
	}

	sort.Slice(voices, func(i, j int) bool {
		if voices[i].Language != voices[j].Language {
			return voices[i].Language < voices[j].Language
		}
		return voices[i].Name < voices[j].Name
	})
	return voices, nil
}

func hasModel(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "generator.onnx"))
	return err == nil
}
