package websocket

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sai-voice/server/internal/audio"
	"github.com/sai-voice/server/internal/worker"
	"github.com/sai-voice/server/usecase"
)

func setupTestHub(t testing.TB) *Hub {
	logger := zap.NewNop() // No-op logger for tests

	pool := worker.NewPool(2, logger)
	t.Cleanup(pool.Close)

	pipeline := usecase.NewPipeline(
		&fakeNormalizer{t: t},
		&fakeSTT{text: "hello there"},
		&fakeLLM{reply: "[happy] Hi! How can I help?"},
		&fakeTTS{audio: audio.EncodeWAV(constantPCM(2*16000, 8000), 16000, 1)},
		pool,
		usecase.PipelineOptions{},
		logger,
	)

	return NewHub(pipeline, nil, logger)
}

func TestHub_NewHub(t *testing.T) {
	hub := setupTestHub(t)

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	if hub.clients == nil {
		t.Error("Hub clients map not initialized")
	}

	if hub.register == nil {
		t.Error("Hub register channel not initialized")
	}

	if hub.unregister == nil {
		t.Error("Hub unregister channel not initialized")
	}
}

func TestConcurrentClientHandling(t *testing.T) {
	hub := setupTestHub(t)
	logger := zap.NewNop()

	// Start hub
	go hub.Run()

	// Create multiple clients concurrently
	numClients := 10
	clients := make([]*Client, numClients)

	for i := 0; i < numClients; i++ {
		client := &Client{
			hub:      hub,
			deviceID: fmt.Sprintf("device-%d", i),
			send:     make(chan WriteData, 256),
			logger:   logger,
		}
		client.session = NewSession(hub.pipeline, nil, client.enqueue, logger)

		clients[i] = client
		hub.register <- client
	}

	// Wait a bit for registration
	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	registered := len(hub.clients)
	hub.mu.RUnlock()
	if registered != numClients {
		t.Errorf("Expected %d registered clients, got %d", numClients, registered)
	}

	// Unregister all clients
	for _, client := range clients {
		hub.unregister <- client
	}

	// Wait a bit for unregistration
	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	registered = len(hub.clients)
	hub.mu.RUnlock()
	if registered != 0 {
		t.Errorf("Expected 0 registered clients, got %d", registered)
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	hub := setupTestHub(t)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, "test-device", zap.NewNop())
	})

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket connection failed: %v", err)
	}
	defer ws.Close()

	readMessage := func() map[string]interface{} {
		t.Helper()
		ws.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, payload, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("Failed to unmarshal %s: %v", payload, err)
		}
		return msg
	}

	// Keepalive round-trip.
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	if msg := readMessage(); msg["type"] != "pong" {
		t.Errorf("Expected pong, got %v", msg)
	}

	// Full utterance round-trip against the fake collaborators.
	if err := ws.WriteMessage(websocket.TextMessage, audioDataJSON([]byte("utterance"), "wav")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	if msg := readMessage(); msg["type"] != "processing" {
		t.Fatalf("Expected processing, got %v", msg)
	}
	msg := readMessage()
	if msg["type"] != "transcript" || msg["text"] != "hello there" {
		t.Fatalf("Expected transcript, got %v", msg)
	}
	msg = readMessage()
	if msg["type"] != "audio" {
		t.Fatalf("Expected audio response, got %v", msg)
	}
	if msg["emotion"] != "happy" {
		t.Errorf("Expected emotion happy, got %v", msg["emotion"])
	}
	if amplitudes, ok := msg["amplitudes"].([]interface{}); !ok || len(amplitudes) != 40 {
		t.Errorf("Expected 40 amplitudes, got %v", msg["amplitudes"])
	}
	if bucket, ok := msg["amplitudeBucketMs"].(float64); !ok || bucket != 50 {
		t.Errorf("Expected amplitudeBucketMs 50, got %v", msg["amplitudeBucketMs"])
	}
}
