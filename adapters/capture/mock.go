package capture

import (
	"context"
	"sync"

	"github.com/sai-voice/server/domain/repositories"
)

// MockSource is a capture stand-in fed by tests or demos.
type MockSource struct {
	mu      sync.Mutex
	frames  chan []byte
	stopped bool
}

var _ repositories.CaptureSource = (*MockSource)(nil)

// NewMockSource creates an idle mock source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

func (m *MockSource) Start(ctx context.Context) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = make(chan []byte, 64)
	m.stopped = false
	return m.frames, nil
}

func (m *MockSource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frames != nil && !m.stopped {
		m.stopped = true
		close(m.frames)
	}
}

// Push delivers one PCM frame as if it came from the microphone.
func (m *MockSource) Push(frame []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frames != nil && !m.stopped {
		m.frames <- frame
	}
}
