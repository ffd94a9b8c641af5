package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sai-voice/server/adapters/capture"
	"github.com/sai-voice/server/adapters/device"
	"github.com/sai-voice/server/adapters/llm"
	"github.com/sai-voice/server/adapters/stt"
	"github.com/sai-voice/server/adapters/tts"
	"github.com/sai-voice/server/domain/entities"
	"github.com/sai-voice/server/domain/repositories"
	"github.com/sai-voice/server/internal/api"
	"github.com/sai-voice/server/internal/audio"
	"github.com/sai-voice/server/internal/auth"
	"github.com/sai-voice/server/internal/config"
	"github.com/sai-voice/server/internal/websocket"
	"github.com/sai-voice/server/internal/worker"
	"github.com/sai-voice/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	auth.SetSecret(cfg.JWTSecret)

	ctx := context.Background()

	// Audio normalization requires ffmpeg on the host.
	normalizer, err := audio.NewNormalizer(logger)
	if err != nil {
		logger.Fatal("Failed to initialize audio normalizer", zap.Error(err))
	}

	speechToText := buildSpeechToText(ctx, logger)
	replyGenerator := buildReplyGenerator(ctx, cfg, logger)
	textToSpeech := buildTextToSpeech(cfg, logger)

	pool := worker.NewPool(cfg.PipelineWorkers, logger)
	defer pool.Close()

	pipeline := usecase.NewPipeline(normalizer, speechToText, replyGenerator, textToSpeech, pool,
		usecase.PipelineOptions{
			StageTimeout:   cfg.StageTimeout,
			DefaultVoiceID: cfg.ElevenLabsVoiceID,
		}, logger)

	var captureFactory websocket.CaptureFactory
	if cfg.CaptureMode {
		captureFactory = func() repositories.CaptureSource {
			source, err := capture.NewArecordSource(cfg.CaptureDevice, logger)
			if err != nil {
				logger.Error("Failed to create capture source", zap.Error(err))
				return nil
			}
			return source
		}
	}

	// Initialize WebSocket hub with the conversation pipeline
	hub := websocket.NewHub(pipeline, captureFactory, logger)
	go hub.Run()

	synthesis := usecase.NewSynthesisService(textToSpeech, cfg.ElevenLabsVoiceID, logger)
	deviceRepo := buildDeviceRepository(logger)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, hub, deviceRepo, synthesis, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("llmProvider", cfg.LLMProvider),
		zap.Bool("captureMode", cfg.CaptureMode))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildSpeechToText uses Google Cloud recognition when credentials are
// available and a mock otherwise, so the server still comes up in development.
func buildSpeechToText(ctx context.Context, logger *zap.Logger) repositories.SpeechToText {
	speechToText, err := stt.NewGoogleSpeechToText(ctx, logger)
	if err != nil {
		logger.Warn("Google Speech-to-Text unavailable, using mock", zap.Error(err))
		return stt.NewMockSpeechToText("", logger)
	}
	return speechToText
}

func buildReplyGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) repositories.ReplyGenerator {
	switch cfg.LLMProvider {
	case "ollama":
		generator, err := llm.NewOllamaGenerator(cfg.OllamaURL, cfg.OllamaModel, logger)
		if err != nil {
			logger.Warn("Ollama unavailable, using mock reply generator", zap.Error(err))
			return llm.NewMockReplyGenerator("", logger)
		}
		return generator
	default:
		generator, err := llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Warn("Gemini unavailable, using mock reply generator", zap.Error(err))
			return llm.NewMockReplyGenerator("", logger)
		}
		return generator
	}
}

func buildTextToSpeech(cfg *config.Config, logger *zap.Logger) repositories.TextToSpeech {
	textToSpeech, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
		APIKey:  cfg.ElevenLabsAPIKey,
		VoiceID: cfg.ElevenLabsVoiceID,
	}, logger)
	if err != nil {
		logger.Warn("ElevenLabs unavailable, using mock synthesizer", zap.Error(err))
		return tts.NewMockTextToSpeech(audio.EncodeWAV(make([]byte, 16000), 16000, 1), logger)
	}
	return textToSpeech
}

// buildDeviceRepository optionally seeds one device from the environment so a
// fresh deployment can authenticate without a registration flow.
func buildDeviceRepository(logger *zap.Logger) repositories.DeviceRepository {
	repo := device.NewMemoryDeviceRepository()

	serial := os.Getenv("DEVICE_SERIAL_NUMBER")
	secret := os.Getenv("DEVICE_SECRET_KEY")
	if serial != "" && secret != "" {
		dev := &entities.Device{SerialNumber: serial, Model: os.Getenv("DEVICE_MODEL")}
		if err := repo.Register(dev, secret); err != nil {
			logger.Error("Failed to seed device", zap.Error(err))
		} else {
			logger.Info("Seeded device from environment",
				zap.String("deviceID", dev.ID),
				zap.String("serialNumber", serial))
		}
	}
	return repo
}
