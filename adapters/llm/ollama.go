package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/repositories"
)

// OllamaGenerator implements ReplyGenerator against a local Ollama server,
// for deployments that cannot call a hosted API.
type OllamaGenerator struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

var _ repositories.ReplyGenerator = (*OllamaGenerator)(nil)

// NewOllamaGenerator creates a generator talking to the Ollama server at
// baseURL.
func NewOllamaGenerator(baseURL, model string, logger *zap.Logger) (*OllamaGenerator, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL %q: %w", baseURL, err)
	}

	return &OllamaGenerator{
		client: api.NewClient(u, http.DefaultClient),
		model:  model,
		logger: logger,
	}, nil
}

// Generate produces a reply for one user utterance.
func (o *OllamaGenerator) Generate(ctx context.Context, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
		Stream: new(bool), // one complete response
	}

	var reply strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	if reply.Len() == 0 {
		return "", fmt.Errorf("ollama returned empty reply")
	}

	o.logger.Info("Generated reply",
		zap.String("model", o.model),
		zap.Int("userChars", len(userText)),
		zap.Int("replyChars", reply.Len()))

	return reply.String(), nil
}
