// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all server configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// JWTSecret signs device and user tokens.
	JWTSecret string

	// LLMProvider selects the reply generator: "gemini" or "ollama".
	LLMProvider string

	// GeminiAPIKey authenticates against the Gemini API.
	GeminiAPIKey string

	// GeminiModel is the Gemini model name.
	GeminiModel string

	// OllamaURL is the base URL of a local Ollama server.
	OllamaURL string

	// OllamaModel is the Ollama model name.
	OllamaModel string

	// ElevenLabsAPIKey authenticates against the ElevenLabs API.
	ElevenLabsAPIKey string

	// ElevenLabsVoiceID is the default reply voice.
	ElevenLabsVoiceID string

	// CaptureMode enables local microphone capture (start/stop_listening).
	CaptureMode bool

	// CaptureDevice is the ALSA device name for capture mode.
	CaptureDevice string

	// StageTimeout bounds each pipeline stage.
	StageTimeout time.Duration

	// PipelineWorkers bounds concurrent pipeline stages across all sessions.
	PipelineWorkers int
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win over file values.
func Load(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaURL:         getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3.2"),
		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "s3TPKV1kjDlVtZbl4Ksh"),
		CaptureMode:       getEnvBool("CAPTURE_MODE", false),
		CaptureDevice:     getEnv("CAPTURE_DEVICE", "default"),
		StageTimeout:      time.Duration(getEnvInt("STAGE_TIMEOUT_SECONDS", 60)) * time.Second,
		PipelineWorkers:   getEnvInt("PIPELINE_WORKERS", 8),
	}

	if cfg.LLMProvider != "gemini" && cfg.LLMProvider != "ollama" {
		return nil, fmt.Errorf("config: unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if cfg.PipelineWorkers < 1 {
		return nil, fmt.Errorf("config: PIPELINE_WORKERS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
