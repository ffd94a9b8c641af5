package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/repositories"
)

// MockReplyGenerator is a development stand-in that echoes a canned reply.
type MockReplyGenerator struct {
	// Reply is returned for every call; empty means echo the user text back
	// with a neutral tag.
	Reply  string
	logger *zap.Logger
}

var _ repositories.ReplyGenerator = (*MockReplyGenerator)(nil)

// NewMockReplyGenerator creates a mock returning the given reply.
func NewMockReplyGenerator(reply string, logger *zap.Logger) *MockReplyGenerator {
	return &MockReplyGenerator{Reply: reply, logger: logger}
}

func (m *MockReplyGenerator) Generate(ctx context.Context, userText string) (string, error) {
	m.logger.Debug("Mock reply generation", zap.Int("userChars", len(userText)))
	if m.Reply != "" {
		return m.Reply, nil
	}
	return fmt.Sprintf("[neutral] You said: %s", userText), nil
}
