package audio

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings carry the acoustic parameters a voice was trained with, read from
// the config.json next to its model file. They are fixed for the lifetime of
// a pipeline; sample rate is never renegotiated per utterance.
type Settings struct {
	SampleRate   int     `json:"sample_rate"`
	FilterLength int     `json:"filter_length"`
	HopLength    int     `json:"hop_length"`
	WinLength    int     `json:"win_length"`
	MelChannels  int     `json:"mel_channels"`
	MelFmin      float64 `json:"mel_fmin"`
	MelFmax      float64 `json:"mel_fmax"`
	RefLevelDB   float64 `json:"ref_level_db"`
	SpecGain     float64 `json:"spec_gain"`
}

type settingsFile struct {
	Audio Settings `json:"audio"`
}

// DefaultSettings returns the parameters shared by the published voices.
func DefaultSettings() Settings {
	return Settings{
		SampleRate:   22050,
		FilterLength: 1024,
		HopLength:    256,
		WinLength:    1024,
		MelChannels:  80,
		MelFmin:      0,
		MelFmax:      8000,
		RefLevelDB:   20,
		SpecGain:     1.0,
	}
}

// LoadSettings reads audio settings from a voice config.json, filling any
// omitted fields from the defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read audio settings: %w", err)
	}
	sf := settingsFile{Audio: DefaultSettings()}
	if err := json.Unmarshal(data, &sf); err != nil {
		return Settings{}, fmt.Errorf("parse audio settings %s: %w", path, err)
	}
	if sf.Audio.SampleRate <= 0 {
		return Settings{}, fmt.Errorf("audio settings %s: sample_rate must be positive", path)
	}
	return sf.Audio, nil
}
