// Package llm adapts reply-generation providers to the ReplyGenerator
// repository. Two providers are supported: the Gemini API and a local Ollama
// server, selected by configuration.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sai-voice/server/domain/repositories"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	generateTimeout    = 30 * time.Second
)

// GeminiGenerator implements ReplyGenerator using Google's Gemini API
type GeminiGenerator struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

var _ repositories.ReplyGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new Gemini reply generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		logger: logger,
		model:  model,
	}, nil
}

// Generate produces a reply for one user utterance. Each exchange is
// independent; conversation history is not carried between runs.
func (g *GeminiGenerator) Generate(ctx context.Context, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(userText, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	// Retry transient API failures before giving up.
	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var reply string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			reply += part.Text
		}
	}
	if reply == "" {
		return "", fmt.Errorf("gemini returned empty reply")
	}

	g.logger.Info("Generated reply",
		zap.String("model", g.model),
		zap.Int("userChars", len(userText)),
		zap.Int("replyChars", len(reply)))

	return reply, nil
}
