package voice

import (
	"fmt"
	"strings"
)

// Voice is an installed voice model directory. Name is the bare voice name
// ("mary_ann-glow_tts"), Language its language directory ("en-us"), and Dir
// the directory holding generator.onnx and config.json.
type Voice struct {
	Name      string
	Language  string
	ModelType string
	Dir       string
}

// Key returns the fully qualified "<language>/<name>" form.
func (v Voice) Key() string {
	return v.Language + "/" + v.Name
}

// modelTypeFromName reads the architecture tag off a voice name, which by
// convention ends in "-<model_type>".
func modelTypeFromName(name string) (string, error) {
	idx := strings.LastIndex(name, "-")
	if idx < 0 || idx == len(name)-1 {
		return "", fmt.Errorf("voice name %q has no model type suffix", name)
	}
	return name[idx+1:], nil
}

// defaultVoices maps a language code to its default voice name.
var defaultVoices = map[string]string{
	"de-de": "thorsten-glow_tts",
	"en-us": "mary_ann-glow_tts",
	"es-es": "karen_savage-glow_tts",
	"fr-fr": "siwis-glow_tts",
	"it-it": "riccardo_fasol-glow_tts",
	"nl":    "rdh-glow_tts",
	"ru-ru": "nikolaev-glow_tts",
	"sv-se": "talesyntese-glow_tts",
}

// vocoderQuality maps a quality tier to the vocoder model directory under the
// voices root. Larger models sound better and vocode slower.
var vocoderQuality = map[string]string{
	"high":   "hifi_gan/universal_large",
	"medium": "hifi_gan/vctk_medium",
	"low":    "hifi_gan/vctk_small",
}

// DefaultVoiceFor returns the default voice name for a language code.
func DefaultVoiceFor(lang string) (string, bool) {
	name, ok := defaultVoices[lang]
	return name, ok
}

// VocoderPathForQuality translates a quality tier into a relative vocoder
// model path.
func VocoderPathForQuality(quality string) (string, error) {
	path, ok := vocoderQuality[quality]
	if !ok {
		return "", fmt.Errorf("unknown vocoder quality %q (want high, medium or low)", quality)
	}
	return path, nil
}
