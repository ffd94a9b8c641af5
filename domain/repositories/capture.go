package repositories

import "context"

// CaptureSource abstracts local microphone acquisition for capture-mode
// deployments. Frames are raw mono 16kHz 16-bit little-endian PCM.
type CaptureSource interface {
	// Start begins acquiring audio frames. The returned channel is closed when
	// capture stops or fails. Returns an error if the device cannot be acquired.
	Start(ctx context.Context) (<-chan []byte, error)

	// Stop ends the capture started by Start. Safe to call more than once.
	Stop()
}
