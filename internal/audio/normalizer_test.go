package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sai-voice/server/domain/entities"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("Skipping normalizer test - ffmpeg not installed")
	}
	n, err := NewNormalizer(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewNormalizer failed: %v", err)
	}
	return n
}

func TestNormalizeWAV(t *testing.T) {
	n := newTestNormalizer(t)

	// One second of 44.1kHz stereo; normalization must land on 16kHz mono.
	samples := constantSamples(2*44100, 6000)
	utt := &entities.Utterance{
		Data:   buildWAV(t, samples, 44100, 2),
		Format: "wav",
	}

	audio, err := n.Normalize(context.Background(), utt)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	defer audio.Release()

	if audio.SampleRate != TargetSampleRate {
		t.Errorf("Expected sample rate %d, got %d", TargetSampleRate, audio.SampleRate)
	}

	if d := audio.Duration; d < 900*time.Millisecond || d > 1100*time.Millisecond {
		t.Errorf("Expected ~1s duration, got %v", d)
	}

	if _, err := os.Stat(audio.Path); err != nil {
		t.Errorf("Expected artifact on disk: %v", err)
	}
}

func TestNormalizeUnsupportedFormat(t *testing.T) {
	n := newTestNormalizer(t)

	utt := &entities.Utterance{
		Data:   []byte("this is not audio at all"),
		Format: "webm",
	}

	_, err := n.Normalize(context.Background(), utt)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNormalizeEmptyPayload(t *testing.T) {
	n := newTestNormalizer(t)

	_, err := n.Normalize(context.Background(), &entities.Utterance{Format: "wav"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for empty payload, got %v", err)
	}
}

func TestNormalizedAudioRelease(t *testing.T) {
	n := newTestNormalizer(t)

	utt := &entities.Utterance{
		Data:   buildWAV(t, constantSamples(16000, 4000), 16000, 1),
		Format: "wav",
	}

	audio, err := n.Normalize(context.Background(), utt)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	path := audio.Path
	if err := audio.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected artifact to be deleted, stat returned %v", err)
	}

	// Double release must be a no-op.
	if err := audio.Release(); err != nil {
		t.Errorf("Second Release should not fail, got %v", err)
	}
}

func TestSafeSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"webm", "webm"},
		{"WAV", "wav"},
		{"", "webm"},
		{"../etc/passwd", "bin"},
		{"ogg;rm", "bin"},
	}
	for _, tt := range tests {
		if got := safeSuffix(tt.in); got != tt.want {
			t.Errorf("safeSuffix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
