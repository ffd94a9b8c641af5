package api

import "time"

// DeviceAuthRequest represents the request payload for device authentication
type DeviceAuthRequest struct {
	SerialNumber string `json:"serial_number"`
	SecretKey    string `json:"secret_key"`
}

// DeviceAuthResponse represents the response payload for device authentication
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DeviceID  string    `json:"device_id"`
}

// SynthesizeRequest is the payload of the standalone synthesis endpoint.
type SynthesizeRequest struct {
	Text            string   `json:"text"`
	VoiceID         string   `json:"voiceId,omitempty"`
	Stability       float64  `json:"stability"`
	SimilarityBoost float64  `json:"similarityBoost"`
	Style           *float64 `json:"style,omitempty"`
	UseSpeakerBoost bool     `json:"useSpeakerBoost"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
