package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/repositories"
)

// ErrEmptyText is returned when a synthesis request carries no text.
var ErrEmptyText = errors.New("text is required")

// SynthesisRequest is one standalone synthesis call from the HTTP endpoint.
type SynthesisRequest struct {
	Text     string
	VoiceID  string
	Settings repositories.VoiceSettings
}

// SynthesisService exposes single-stage speech synthesis with per-request
// voice settings. It shares the provider client with the pipeline but is not
// part of it: no emotion parsing, no envelope.
type SynthesisService struct {
	tts            repositories.TextToSpeech
	defaultVoiceID string
	logger         *zap.Logger
}

func NewSynthesisService(tts repositories.TextToSpeech, defaultVoiceID string, logger *zap.Logger) *SynthesisService {
	return &SynthesisService{
		tts:            tts,
		defaultVoiceID: defaultVoiceID,
		logger:         logger,
	}
}

// Synthesize validates the request and returns the complete encoded audio.
func (s *SynthesisService) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	if err := validateSettings(req.Settings); err != nil {
		return nil, err
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = s.defaultVoiceID
	}

	audio, err := s.tts.SynthesizeWithSettings(ctx, req.Text, voiceID, req.Settings)
	if err != nil {
		s.logger.Error("standalone synthesis failed", zap.Error(err))
		return nil, &StageError{Stage: "speech synthesis", Err: err}
	}

	s.logger.Info("standalone synthesis completed",
		zap.Int("textChars", len(req.Text)),
		zap.Int("audioBytes", len(audio)))
	return audio, nil
}

func validateSettings(s repositories.VoiceSettings) error {
	if s.Stability < 0 || s.Stability > 1 {
		return fmt.Errorf("stability must be between 0 and 1, got %v", s.Stability)
	}
	if s.SimilarityBoost < 0 || s.SimilarityBoost > 1 {
		return fmt.Errorf("similarityBoost must be between 0 and 1, got %v", s.SimilarityBoost)
	}
	if s.Style != nil && (*s.Style < 0 || *s.Style > 1) {
		return fmt.Errorf("style must be between 0 and 1, got %v", *s.Style)
	}
	return nil
}
