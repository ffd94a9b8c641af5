package repositories

import "context"

// VoiceSettings controls voice characteristics for providers that support it.
type VoiceSettings struct {
	Stability       float64  `json:"stability"`
	SimilarityBoost float64  `json:"similarity_boost"`
	Style           *float64 `json:"style,omitempty"`
	UseSpeakerBoost bool     `json:"use_speaker_boost"`
}

// TextToSpeech abstracts speech synthesis services. Implementations must be
// safe for concurrent use.
type TextToSpeech interface {
	// Synthesize converts text to complete encoded audio bytes using the given
	// voice, or the provider default when voiceID is empty.
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)

	// SynthesizeWithSettings is Synthesize with per-request voice settings,
	// used by the plain HTTP synthesis endpoint.
	SynthesizeWithSettings(ctx context.Context, text string, voiceID string, settings VoiceSettings) ([]byte, error)
}
