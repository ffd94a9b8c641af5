package usecase

import (
	"regexp"
	"strings"

	"github.com/sai-voice/server/domain/entities"
)

// emotionPattern matches a single emotion marker anchored at the start of the
// reply: either "[happy]" or a bare "happy" followed by a word boundary, case
// insensitive, with any trailing whitespace consumed.
var emotionPattern = regexp.MustCompile(
	`(?i)^(?:\[(happy|sad|angry|surprised|concerned|neutral)\]|(happy|sad|angry|surprised|concerned|neutral)\b)\s*`)

// ParseEmotion extracts the leading emotion tag from a generated reply. The
// marker must sit at position zero; one appearing mid-string is part of the
// reply text. Only the first marker is consumed. Replies without a marker are
// returned unchanged with a neutral emotion.
func ParseEmotion(text string) (entities.Emotion, string) {
	m := emotionPattern.FindStringSubmatch(text)
	if m == nil {
		return entities.EmotionNeutral, text
	}
	tag := m[1]
	if tag == "" {
		tag = m[2]
	}
	return entities.Emotion(strings.ToLower(tag)), text[len(m[0]):]
}
