package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/entities"
	"github.com/sai-voice/server/domain/repositories"
)

// MockSpeechToText is a development stand-in that returns a fixed transcript.
type MockSpeechToText struct {
	// Transcript is returned for every call; empty simulates unintelligible
	// audio.
	Transcript string
	logger     *zap.Logger
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a mock returning the given transcript.
func NewMockSpeechToText(transcript string, logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{Transcript: transcript, logger: logger}
}

func (m *MockSpeechToText) Transcribe(ctx context.Context, audio *entities.NormalizedAudio) (string, error) {
	m.logger.Debug("Mock transcription",
		zap.String("path", audio.Path),
		zap.Duration("duration", audio.Duration))
	return m.Transcript, nil
}
