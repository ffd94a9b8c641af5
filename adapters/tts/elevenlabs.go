// Package tts adapts the ElevenLabs API to the TextToSpeech repository.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://api.elevenlabs.io/v1"
	defaultVoiceID    = "s3TPKV1kjDlVtZbl4Ksh"

	// eleven_flash_v2_5 trades a little quality for the low latency a live
	// conversation needs.
	defaultModelID = "eleven_flash_v2_5"

	// mp3_22050_32 keeps payloads small enough for a single message.
	defaultOutputFormat = "mp3_22050_32"

	defaultStability       = 0.5
	defaultSimilarityBoost = 0.75
	defaultStyle           = 0.4
)

// ElevenLabsConfig holds configuration for the ElevenLabsTTS adapter.
// Required fields:
// - APIKey: Your Eleven Labs API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Eleven Labs API (default: "https://api.elevenlabs.io/v1")
// - VoiceID: The default voice ID (default: "s3TPKV1kjDlVtZbl4Ksh")
// - ModelID: The model ID to use (default: "eleven_flash_v2_5")
// - OutputFormat: The output format (default: "mp3_22050_32")
type ElevenLabsConfig struct {
	APIKey       string
	APIBaseURL   string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// NewElevenLabsConfigFromEnv builds a config from environment variables.
func NewElevenLabsConfigFromEnv() ElevenLabsConfig {
	return ElevenLabsConfig{
		APIKey:       os.Getenv("ELEVENLABS_API_KEY"),
		APIBaseURL:   os.Getenv("ELEVENLABS_API_BASE_URL"),
		VoiceID:      os.Getenv("ELEVENLABS_VOICE_ID"),
		ModelID:      os.Getenv("ELEVENLABS_MODEL_ID"),
		OutputFormat: os.Getenv("ELEVENLABS_OUTPUT_FORMAT"),
	}
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}
	return nil
}

// ElevenLabsTTS implements TextToSpeech interface using Eleven Labs API
type ElevenLabsTTS struct {
	apiKey       string
	apiBaseURL   string
	voiceID      string
	modelID      string
	outputFormat string
	client       *http.Client
	logger       *zap.Logger
}

// Ensure ElevenLabsTTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*ElevenLabsTTS)(nil)

// elevenLabsRequest represents the request payload for Eleven Labs TTS API
type elevenLabsRequest struct {
	Text          string                     `json:"text"`
	ModelID       string                     `json:"model_id"`
	VoiceSettings repositories.VoiceSettings `json:"voice_settings"`
}

// NewElevenLabsTTS creates a new Eleven Labs TTS instance
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	voiceID := config.VoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
		logger.Info("Using default voice ID", zap.String("voiceID", voiceID))
	}

	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}

	outputFormat := config.OutputFormat
	if outputFormat == "" {
		outputFormat = defaultOutputFormat
	}

	return &ElevenLabsTTS{
		apiKey:       config.APIKey,
		apiBaseURL:   apiBaseURL,
		voiceID:      voiceID,
		modelID:      modelID,
		outputFormat: outputFormat,
		client:       &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}, nil
}

// DefaultVoiceSettings returns the voice settings used for pipeline replies.
func DefaultVoiceSettings() repositories.VoiceSettings {
	style := defaultStyle
	return repositories.VoiceSettings{
		Stability:       defaultStability,
		SimilarityBoost: defaultSimilarityBoost,
		Style:           &style,
		UseSpeakerBoost: true,
	}
}

// Synthesize converts text to one complete audio payload using the default
// voice settings.
func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	return e.SynthesizeWithSettings(ctx, text, voiceID, DefaultVoiceSettings())
}

// SynthesizeWithSettings converts text to speech with explicit voice settings.
func (e *ElevenLabsTTS) SynthesizeWithSettings(ctx context.Context, text string, voiceID string, settings repositories.VoiceSettings) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if voiceID == "" {
		voiceID = e.voiceID
	}

	request := elevenLabsRequest{
		Text:          text,
		ModelID:       e.modelID,
		VoiceSettings: settings,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", e.apiBaseURL, voiceID, e.outputFormat)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	started := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		e.logger.Error("Eleven Labs API returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(errorBody)))
		return nil, fmt.Errorf("eleven labs API returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("eleven labs API returned no audio")
	}

	e.logger.Info("Synthesized speech",
		zap.String("voiceID", voiceID),
		zap.String("modelID", e.modelID),
		zap.Int("textChars", len(text)),
		zap.Int("audioBytes", len(audio)),
		zap.Duration("elapsed", time.Since(started)))

	return audio, nil
}
