package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/sai-voice/server/adapters/device"
	"github.com/sai-voice/server/domain/entities"
	"github.com/sai-voice/server/domain/repositories"
	"github.com/sai-voice/server/internal/auth"
	"github.com/sai-voice/server/usecase"
)

type fixedTTS struct {
	audio []byte
	err   error
}

func (f *fixedTTS) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return f.audio, f.err
}

func (f *fixedTTS) SynthesizeWithSettings(ctx context.Context, text, voiceID string, settings repositories.VoiceSettings) ([]byte, error) {
	return f.audio, f.err
}

func newTestServer(t *testing.T, tts repositories.TextToSpeech) (*echo.Echo, *device.MemoryDeviceRepository) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	repo := device.NewMemoryDeviceRepository()
	synthesis := usecase.NewSynthesisService(tts, "default-voice", logger)

	e := echo.New()
	InitRoutes(e, nil, repo, synthesis, logger)
	return e, repo
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, &fixedTTS{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestDeviceAuth(t *testing.T) {
	e, repo := newTestServer(t, &fixedTTS{})

	dev := &entities.Device{SerialNumber: "SN-100", Model: "kiosk"}
	if err := repo.Register(dev, "super-secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	body, _ := json.Marshal(DeviceAuthRequest{SerialNumber: "SN-100", SecretKey: "super-secret"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/device/auth", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp DeviceAuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("Issued token is invalid: %v", err)
	}
	if claims.DeviceID != dev.ID {
		t.Errorf("Expected device %s in claims, got %s", dev.ID, claims.DeviceID)
	}
}

func TestDeviceAuthRejectsBadCredentials(t *testing.T) {
	e, repo := newTestServer(t, &fixedTTS{})
	repo.Register(&entities.Device{SerialNumber: "SN-100"}, "super-secret")

	tests := []struct {
		name string
		body DeviceAuthRequest
		want int
	}{
		{"wrong secret", DeviceAuthRequest{SerialNumber: "SN-100", SecretKey: "nope"}, http.StatusUnauthorized},
		{"unknown serial", DeviceAuthRequest{SerialNumber: "SN-404", SecretKey: "x"}, http.StatusUnauthorized},
		{"missing fields", DeviceAuthRequest{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/device/auth", bytes.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestSynthesizeEndpoint(t *testing.T) {
	e, _ := newTestServer(t, &fixedTTS{audio: []byte("mp3 payload")})

	body := `{"text":"Hello.","stability":0.5,"similarityBoost":0.75,"style":0.4,"useSpeakerBoost":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/tts", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg, got %s", ct)
	}
	if rec.Body.String() != "mp3 payload" {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}
}

func TestSynthesizeEndpointValidation(t *testing.T) {
	e, _ := newTestServer(t, &fixedTTS{audio: []byte("x")})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty text", `{"text":""}`, http.StatusBadRequest},
		{"stability out of range", `{"text":"hi","stability":2}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/tts", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSynthesizeEndpointProviderFailure(t *testing.T) {
	e, _ := newTestServer(t, &fixedTTS{err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodPost, "/api/tts", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	e, _ := newTestServer(t, &fixedTTS{})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}
}

func TestWebSocketRejectsUserToken(t *testing.T) {
	e, _ := newTestServer(t, &fixedTTS{})

	token, err := auth.GenerateUserToken("user-1")
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for user token, got %d", rec.Code)
	}
}
