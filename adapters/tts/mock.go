package tts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/repositories"
)

// MockTextToSpeech is a development stand-in that returns a fixed audio
// payload instead of calling a provider.
type MockTextToSpeech struct {
	// Audio is returned for every synthesis call.
	Audio  []byte
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*MockTextToSpeech)(nil)

// NewMockTextToSpeech creates a mock TTS returning the given payload.
func NewMockTextToSpeech(audio []byte, logger *zap.Logger) *MockTextToSpeech {
	return &MockTextToSpeech{Audio: audio, logger: logger}
}

func (m *MockTextToSpeech) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	return m.SynthesizeWithSettings(ctx, text, voiceID, repositories.VoiceSettings{})
}

func (m *MockTextToSpeech) SynthesizeWithSettings(ctx context.Context, text string, voiceID string, settings repositories.VoiceSettings) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	m.logger.Debug("Mock synthesis",
		zap.String("voiceID", voiceID),
		zap.Int("textChars", len(text)))
	return m.Audio, nil
}
