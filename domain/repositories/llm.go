package repositories

import "context"

// ReplyGenerator abstracts any chat/LLM provider producing the spoken reply.
// Implementations must be safe for concurrent use.
type ReplyGenerator interface {
	// Generate takes the user's transcribed utterance and returns the model's
	// reply, expected to carry a leading emotion tag.
	Generate(ctx context.Context, userText string) (string, error)
}
