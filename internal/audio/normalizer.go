package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/entities"
)

// TargetSampleRate is the sample rate every utterance is normalized to before
// transcription.
const TargetSampleRate = 16000

// ErrUnsupportedFormat is returned when the client audio container/codec cannot
// be decoded. It surfaces as a protocol error, not a fatal session error.
var ErrUnsupportedFormat = errors.New("audio: unsupported input format")

// Normalizer decodes arbitrary client-supplied audio (whatever a browser
// MediaRecorder produces, plus plain WAV) into a mono 16kHz 16-bit PCM WAV
// artifact for the transcription stage. Decoding is delegated to ffmpeg, which
// sniffs the container itself; the declared format tag is only a hint used for
// the staging file suffix.
type Normalizer struct {
	logger     *zap.Logger
	ffmpegPath string
}

// NewNormalizer creates a Normalizer. Returns an error if ffmpeg is not on PATH.
func NewNormalizer(logger *zap.Logger) (*Normalizer, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("audio: ffmpeg not found: %w", err)
	}
	return &Normalizer{logger: logger, ffmpegPath: path}, nil
}

// Normalize converts the utterance to a temporary mono 16kHz WAV file and
// returns its handle. The caller owns the artifact and must Release it when the
// pipeline run ends, on every exit path.
func (n *Normalizer) Normalize(ctx context.Context, utt *entities.Utterance) (*entities.NormalizedAudio, error) {
	if len(utt.Data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnsupportedFormat)
	}

	in, err := os.CreateTemp("", "utterance-*."+safeSuffix(utt.Format))
	if err != nil {
		return nil, fmt.Errorf("audio: create staging file: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(utt.Data); err != nil {
		in.Close()
		return nil, fmt.Errorf("audio: write staging file: %w", err)
	}
	in.Close()

	out, err := os.CreateTemp("", "normalized-*.wav")
	if err != nil {
		return nil, fmt.Errorf("audio: create output file: %w", err)
	}
	out.Close()

	cmd := exec.CommandContext(ctx, n.ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", in.Name(),
		"-ac", "1",
		"-ar", fmt.Sprint(TargetSampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		out.Name(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(out.Name())
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n.logger.Warn("ffmpeg decode failed",
			zap.String("format", utt.Format),
			zap.Int("bytes", len(utt.Data)),
			zap.String("stderr", strings.TrimSpace(stderr.String())))
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, utt.Format)
	}

	wav, err := os.ReadFile(out.Name())
	if err != nil {
		os.Remove(out.Name())
		return nil, fmt.Errorf("audio: read normalized file: %w", err)
	}

	samples, rate, err := decodeWAV(wav)
	if err != nil {
		os.Remove(out.Name())
		return nil, fmt.Errorf("audio: invalid normalized output: %w", err)
	}

	duration := time.Duration(float64(len(samples)) / float64(rate) * float64(time.Second))
	n.logger.Debug("normalized utterance",
		zap.String("format", utt.Format),
		zap.Int("inputBytes", len(utt.Data)),
		zap.Duration("duration", duration))

	return &entities.NormalizedAudio{
		Path:       out.Name(),
		SampleRate: rate,
		Duration:   duration,
	}, nil
}

// safeSuffix keeps the staging suffix to something path-safe; ffmpeg only uses
// it as a weak hint anyway.
func safeSuffix(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return "webm"
	}
	for _, r := range format {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "bin"
		}
	}
	return format
}
