// Package capture acquires microphone audio for local-capture deployments by
// shelling out to arecord.
package capture

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/repositories"
)

const (
	sampleRate = 16000
	// frameBytes is 50ms of mono 16-bit PCM per delivered frame.
	frameBytes = sampleRate / 20 * 2
)

// ArecordSource implements CaptureSource by reading raw PCM from an arecord
// subprocess. One source serves one session at a time.
type ArecordSource struct {
	device string
	logger *zap.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

var _ repositories.CaptureSource = (*ArecordSource)(nil)

// NewArecordSource creates a source for the given ALSA device ("default" for
// the system default). Returns an error if arecord is not on PATH.
func NewArecordSource(device string, logger *zap.Logger) (*ArecordSource, error) {
	if _, err := exec.LookPath("arecord"); err != nil {
		return nil, fmt.Errorf("capture: arecord not found: %w", err)
	}
	if device == "" {
		device = "default"
	}
	return &ArecordSource{device: device, logger: logger}, nil
}

// Start launches arecord and delivers fixed-size PCM frames until Stop is
// called, the context is cancelled, or the subprocess exits. The returned
// channel is closed when capture ends.
func (a *ArecordSource) Start(ctx context.Context) (<-chan []byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cmd != nil {
		return nil, fmt.Errorf("capture: already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, "arecord",
		"-D", a.device,
		"-c", "1",
		"-r", strconv.Itoa(sampleRate),
		"-f", "S16_LE",
		"-t", "raw",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("capture: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("capture: start arecord: %w", err)
	}

	a.cmd = cmd
	a.cancel = cancel
	a.logger.Info("Microphone capture started", zap.String("device", a.device))

	frames := make(chan []byte, 64)
	go func() {
		defer close(frames)
		defer cmd.Wait()

		buf := make([]byte, frameBytes)
		filled := 0
		for {
			n, err := stdout.Read(buf[filled:])
			if n > 0 {
				filled += n
				if filled == len(buf) {
					frame := make([]byte, filled)
					copy(frame, buf)
					filled = 0
					select {
					case frames <- frame:
					case <-ctx.Done():
						return
					}
				}
			}
			if err != nil {
				// Flush the partial tail so short recordings are not lost.
				if filled > 0 {
					frame := make([]byte, filled)
					copy(frame, buf[:filled])
					select {
					case frames <- frame:
					case <-ctx.Done():
					}
				}
				return
			}
		}
	}()

	return frames, nil
}

// Stop terminates the arecord subprocess. Safe to call more than once.
func (a *ArecordSource) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
		a.cmd = nil
		a.logger.Info("Microphone capture stopped")
	}
}
