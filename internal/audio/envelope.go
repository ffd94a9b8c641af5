package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/sai-voice/server/domain/entities"
)

// DefaultBucketMs is the lip-sync bucket duration used by the pipeline.
const DefaultBucketMs = 50

// ErrUnsupportedAudio is returned when the synthesized audio bytes are neither
// MP3 nor 16-bit PCM WAV.
var ErrUnsupportedAudio = errors.New("audio: unsupported synthesized audio format")

// ExtractEnvelope decodes synthesized audio (MP3 or RIFF/WAV PCM16) and derives
// the normalized per-bucket RMS loudness curve that drives mouth movement.
//
// Multi-channel audio is reduced to mono by taking the left channel. Averaging
// was considered and rejected so that the curve tracks one coherent signal
// rather than a phase-dependent mix; the rule is applied identically on both
// decode paths.
func ExtractEnvelope(data []byte, bucketMs int) (entities.Envelope, error) {
	if bucketMs <= 0 {
		bucketMs = DefaultBucketMs
	}

	samples, sampleRate, err := decodeLeftChannel(data)
	if err != nil {
		return entities.Envelope{}, err
	}

	return envelopeFromPCM(samples, sampleRate, bucketMs), nil
}

// envelopeFromPCM partitions mono samples into bucketMs windows, computes the
// RMS of each window, and normalizes by the peak RMS so the output range is
// [0,1]. Silence stays all-zero; the final bucket may be shorter than the rest.
func envelopeFromPCM(samples []int16, sampleRate, bucketMs int) entities.Envelope {
	env := entities.Envelope{BucketMs: bucketMs}

	bucketSamples := sampleRate * bucketMs / 1000
	if bucketSamples <= 0 || len(samples) == 0 {
		return env
	}

	for start := 0; start < len(samples); start += bucketSamples {
		end := start + bucketSamples
		if end > len(samples) {
			end = len(samples)
		}

		var sum float64
		for _, s := range samples[start:end] {
			v := float64(s) / 32768.0
			sum += v * v
		}
		env.Amplitudes = append(env.Amplitudes, math.Sqrt(sum/float64(end-start)))
	}

	var peak float64
	for _, a := range env.Amplitudes {
		if a > peak {
			peak = a
		}
	}
	if peak > 0 {
		for i := range env.Amplitudes {
			env.Amplitudes[i] /= peak
		}
	}

	return env
}

// decodeLeftChannel decodes the container to left-channel int16 samples at the
// codec's native sample rate.
func decodeLeftChannel(data []byte) ([]int16, int, error) {
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return decodeWAV(data)
	}
	return decodeMP3(data)
}

// decodeMP3 decodes MP3 bytes. go-mp3 always emits interleaved stereo 16-bit
// little-endian PCM, so the left channel is every other sample.
func decodeMP3(data []byte) ([]int16, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnsupportedAudio, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode mp3: %w", err)
	}

	frameBytes := 4 // 2 channels x 2 bytes
	samples := make([]int16, 0, len(raw)/frameBytes)
	for i := 0; i+frameBytes <= len(raw); i += frameBytes {
		samples = append(samples, int16(binary.LittleEndian.Uint16(raw[i:i+2])))
	}

	return samples, dec.SampleRate(), nil
}

// decodeWAV parses a canonical RIFF/WAVE file carrying 16-bit PCM and returns
// the left channel. No WAV library is pulled in for this; the chunk walk below
// is the whole format.
func decodeWAV(data []byte) ([]int16, int, error) {
	var (
		sampleRate int
		channels   int
		bitDepth   int
		pcm        []byte
	)

	// Chunks start after the 12-byte RIFF header.
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedAudio)
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if format != 1 { // PCM
				return nil, 0, fmt.Errorf("%w: wav format %d", ErrUnsupportedAudio, format)
			}
		case "data":
			pcm = data[body : body+size]
		}

		// Chunk bodies are word-aligned.
		off = body + size + size%2
	}

	if pcm == nil || sampleRate == 0 || channels == 0 {
		return nil, 0, fmt.Errorf("%w: missing fmt or data chunk", ErrUnsupportedAudio)
	}
	if bitDepth != 16 {
		return nil, 0, fmt.Errorf("%w: %d-bit wav", ErrUnsupportedAudio, bitDepth)
	}

	frameBytes := channels * 2
	samples := make([]int16, 0, len(pcm)/frameBytes)
	for i := 0; i+frameBytes <= len(pcm); i += frameBytes {
		samples = append(samples, int16(binary.LittleEndian.Uint16(pcm[i:i+2])))
	}

	return samples, sampleRate, nil
}
