package audio

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	pcm := make([]byte, 2*1600)
	for i := 0; i < 1600; i++ {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(2500)))
	}

	wav := EncodeWAV(pcm, 16000, 1)

	samples, rate, err := decodeWAV(wav)
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if rate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", rate)
	}
	if len(samples) != 1600 {
		t.Fatalf("Expected 1600 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if s != 2500 {
			t.Fatalf("Sample %d: expected 2500, got %d", i, s)
		}
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	wav := EncodeWAV(nil, 16000, 1)

	samples, _, err := decodeWAV(wav)
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("Expected no samples, got %d", len(samples))
	}
}
