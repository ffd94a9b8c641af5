package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
)

// errUnknownType marks an unrecognized inbound message type; the session
// ignores these rather than answering with an error.
var errUnknownType = errors.New("unsupported message type")

// MessageType defines the type of WebSocket message
type MessageType string

// Inbound message types
const (
	MessageTypePing           MessageType = "ping"
	MessageTypeAudioData      MessageType = "audio_data"
	MessageTypeStartListening MessageType = "start_listening"
	MessageTypeStopListening  MessageType = "stop_listening"
)

// Outbound message types
const (
	MessageTypePong       MessageType = "pong"
	MessageTypeListening  MessageType = "listening"
	MessageTypeProcessing MessageType = "processing"
	MessageTypeTranscript MessageType = "transcript"
	MessageTypeAudio      MessageType = "audio"
	MessageTypeError      MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// AudioDataMessage submits one complete push-mode utterance.
type AudioDataMessage struct {
	BaseMessage
	// Audio is the base64-encoded utterance payload.
	Audio string `json:"audio"`
	// Format is the declared container hint; defaults to webm.
	Format string `json:"format,omitempty"`
	// VoiceID optionally selects the reply voice.
	VoiceID string `json:"voiceId,omitempty"`
}

// TranscriptMessage carries the recognition result, which may be empty.
type TranscriptMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// AudioResponseMessage carries the final synthesized reply plus lip-sync data.
type AudioResponseMessage struct {
	BaseMessage
	// Audio is the base64-encoded synthesized reply.
	Audio string `json:"audio"`
	// Emotion is the parsed reply emotion tag.
	Emotion string `json:"emotion"`
	// Amplitudes is the normalized loudness envelope, one value per bucket.
	Amplitudes []float64 `json:"amplitudes"`
	// AmplitudeBucketMs is the envelope bucket duration in milliseconds.
	AmplitudeBucketMs int `json:"amplitudeBucketMs"`
}

// ErrorMessage reports a stage or protocol failure; the session remains open.
type ErrorMessage struct {
	BaseMessage
	Message string `json:"message"`
}

// ParseMessage parses and validates one inbound message, returning the typed
// variant. A malformed message is a protocol error, never fatal.
func ParseMessage(raw []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypePing, MessageTypeStartListening, MessageTypeStopListening:
		return &base, nil

	case MessageTypeAudioData:
		var msg AudioDataMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("invalid audio_data message: %w", err)
		}
		if msg.Audio == "" {
			return nil, fmt.Errorf("no audio data")
		}
		if msg.Format == "" {
			msg.Format = "webm"
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("%w: %s", errUnknownType, base.Type)
	}
}

func newSignal(t MessageType) BaseMessage {
	return BaseMessage{Type: t}
}

func newTranscript(text string) TranscriptMessage {
	return TranscriptMessage{BaseMessage: BaseMessage{Type: MessageTypeTranscript}, Text: text}
}

func newAudioResponse(audio string, emotion string, amplitudes []float64, bucketMs int) AudioResponseMessage {
	return AudioResponseMessage{
		BaseMessage:       BaseMessage{Type: MessageTypeAudio},
		Audio:             audio,
		Emotion:           emotion,
		Amplitudes:        amplitudes,
		AmplitudeBucketMs: bucketMs,
	}
}

func newError(message string) ErrorMessage {
	return ErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeError}, Message: message}
}
