// Package stt adapts Google Cloud Speech-to-Text to the SpeechToText
// repository.
package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/entities"
	"github.com/sai-voice/server/domain/repositories"
)

const defaultLanguage = "en-US"

// GoogleSpeechToText implements SpeechToText using the one-shot Recognize API.
// Utterances are short (one spoken turn), so the streaming API buys nothing
// here.
type GoogleSpeechToText struct {
	client   *speech.Client
	language string
	logger   *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates the client using ambient Google credentials.
// STT_LANGUAGE_CODE overrides the recognition language.
func NewGoogleSpeechToText(ctx context.Context, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	language := os.Getenv("STT_LANGUAGE_CODE")
	if language == "" {
		language = defaultLanguage
	}

	return &GoogleSpeechToText{
		client:   client,
		language: language,
		logger:   logger,
	}, nil
}

// Transcribe recognizes the normalized artifact. An empty transcript with a
// nil error means no speech was detected; the caller decides what that means.
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, audio *entities.NormalizedAudio) (string, error) {
	data, err := os.ReadFile(audio.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read normalized audio: %w", err)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(audio.SampleRate),
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize request failed: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))

	g.logger.Info("Transcription completed",
		zap.Duration("audioDuration", audio.Duration),
		zap.Int("transcriptChars", len(transcript)))

	return transcript, nil
}

// Close releases the underlying gRPC client.
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}
