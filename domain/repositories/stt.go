package repositories

import (
	"context"

	"github.com/sai-voice/server/domain/entities"
)

// SpeechToText abstracts speech recognition services. Implementations must be
// safe for concurrent use by multiple in-flight pipeline runs.
type SpeechToText interface {
	// Transcribe converts a normalized mono PCM artifact to text. An empty
	// string with a nil error means the audio contained no recognizable speech.
	Transcribe(ctx context.Context, audio *entities.NormalizedAudio) (string, error)
}
