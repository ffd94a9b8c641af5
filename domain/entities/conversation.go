package entities

import (
	"os"
	"time"
)

// Emotion classifies the affect of a generated reply. The vocabulary is fixed;
// the LLM is prompted to prefix every reply with exactly one of these tags.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionConcerned Emotion = "concerned"
	EmotionNeutral   Emotion = "neutral"
)

// Emotions lists the full tag vocabulary.
var Emotions = []Emotion{
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionSurprised,
	EmotionConcerned,
	EmotionNeutral,
}

// Utterance is one complete unit of user audio submitted for a single pipeline
// run. It lives only for the duration of that run.
type Utterance struct {
	// Data holds the raw encoded audio bytes as received from the client.
	Data []byte

	// Format is the declared container/codec hint (e.g. "webm", "wav").
	Format string

	// VoiceID is the requested reply voice; empty means the configured default.
	VoiceID string
}

// NormalizedAudio is the decoded form of an Utterance: mono 16kHz 16-bit PCM
// written to a temporary WAV artifact. It is owned by exactly one pipeline run
// and must be released when that run ends, on every exit path.
type NormalizedAudio struct {
	// Path is the location of the temporary WAV file.
	Path string

	// SampleRate of the normalized PCM, in Hz.
	SampleRate int

	// Duration of the decoded audio.
	Duration time.Duration
}

// Release deletes the temporary artifact. Safe to call more than once.
func (n *NormalizedAudio) Release() error {
	if n == nil || n.Path == "" {
		return nil
	}
	err := os.Remove(n.Path)
	n.Path = ""
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Envelope is a time-bucketed, max-normalized loudness curve derived from
// synthesized audio, used to drive lip-sync animation. Values are in [0,1].
type Envelope struct {
	Amplitudes []float64
	BucketMs   int
}

// PipelineResult is the outcome of one successful pipeline run. It is immutable
// once constructed; the session serializes and discards it after sending.
type PipelineResult struct {
	Transcript string
	ReplyText  string
	Emotion    Emotion
	Audio      []byte
	Envelope   Envelope
}
