package protocol

import "time"

// SpeakRequest asks the daemon to synthesize text.
type SpeakRequest struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	Voice     string `json:"voice,omitempty"`
}

// SpeakAudio carries one synthesized sentence as raw 16-bit PCM.
type SpeakAudio struct {
	RequestID  string `json:"request_id"`
	Sequence   int    `json:"sequence"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	PCM        []byte `json:"pcm"`
}

// SpeakDone closes a speak exchange. Error is empty on success.
type SpeakDone struct {
	RequestID      string    `json:"request_id"`
	Sentences      int       `json:"sentences"`
	AudioSeconds   float64   `json:"audio_seconds,omitempty"`
	RealTimeFactor float64   `json:"real_time_factor,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

const (
	SubjectSpeakRequest = "speak.request"
	SubjectSpeakAudio   = "speak.audio"
	SubjectSpeakDone    = "speak.done"
)
