// Package usecase holds the conversation pipeline that turns one user
// utterance into one spoken reply, plus the standalone synthesis service
// behind the HTTP endpoint.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/entities"
	"github.com/sai-voice/server/domain/repositories"
	"github.com/sai-voice/server/internal/audio"
	"github.com/sai-voice/server/internal/worker"
)

// ErrEmptyTranscript is the deliberate short-circuit taken when recognition
// produces no usable text. The reply and synthesis stages are skipped to save
// collaborator cost; it is not a failure of the recognition call itself.
var ErrEmptyTranscript = errors.New("could not understand audio")

// StageError wraps a collaborator failure with the pipeline stage it occurred
// in, so the session can report a stable human-readable message.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrorMessage maps a pipeline error to the message sent to the client. The
// underlying collaborator error is logged server-side, never exposed.
func ErrorMessage(err error) string {
	var stage *StageError
	switch {
	case errors.Is(err, ErrEmptyTranscript):
		return ErrEmptyTranscript.Error()
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return "unsupported audio format"
	case errors.As(err, &stage):
		return stage.Stage + " failed"
	default:
		return "internal error"
	}
}

// AudioNormalizer decodes client audio into the PCM artifact the recognition
// stage consumes.
type AudioNormalizer interface {
	Normalize(ctx context.Context, utt *entities.Utterance) (*entities.NormalizedAudio, error)
}

// PipelineOptions tunes a Pipeline. Zero values pick sensible defaults.
type PipelineOptions struct {
	// StageTimeout bounds each individual stage; zero disables the bound.
	StageTimeout time.Duration

	// BucketMs is the envelope bucket duration; zero means audio.DefaultBucketMs.
	BucketMs int

	// DefaultVoiceID is used when the utterance does not request a voice.
	DefaultVoiceID string
}

// Pipeline runs the utterance-to-reply sequence: normalize, transcribe,
// generate, synthesize, extract envelope. Stages run strictly in order on the
// shared worker pool; there is no intra-run parallelism because each stage
// consumes the previous stage's output.
type Pipeline struct {
	normalizer AudioNormalizer
	stt        repositories.SpeechToText
	llm        repositories.ReplyGenerator
	tts        repositories.TextToSpeech
	pool       *worker.Pool
	opts       PipelineOptions
	logger     *zap.Logger
}

// NewPipeline wires the pipeline from its collaborators. All of them are
// owned by the caller and must be safe for concurrent use.
func NewPipeline(
	normalizer AudioNormalizer,
	stt repositories.SpeechToText,
	llm repositories.ReplyGenerator,
	tts repositories.TextToSpeech,
	pool *worker.Pool,
	opts PipelineOptions,
	logger *zap.Logger,
) *Pipeline {
	if opts.BucketMs <= 0 {
		opts.BucketMs = audio.DefaultBucketMs
	}
	return &Pipeline{
		normalizer: normalizer,
		stt:        stt,
		llm:        llm,
		tts:        tts,
		pool:       pool,
		opts:       opts,
		logger:     logger,
	}
}

// Run executes one pipeline run for the given utterance. onTranscript is
// invoked as soon as recognition succeeds, before the remaining stages, so the
// caller can deliver early feedback; it is called exactly once on the
// empty-transcript path too (with an empty string). The temporary artifact
// created for the run is released on every exit path.
func (p *Pipeline) Run(ctx context.Context, utt *entities.Utterance, onTranscript func(text string)) (*entities.PipelineResult, error) {
	started := time.Now()

	var normalized *entities.NormalizedAudio
	err := p.do(ctx, "audio normalization", func(ctx context.Context) error {
		var err error
		normalized, err = p.normalizer.Normalize(ctx, utt)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer normalized.Release()

	var transcript string
	err = p.do(ctx, "transcription", func(ctx context.Context) error {
		var err error
		transcript, err = p.stt.Transcribe(ctx, normalized)
		return err
	})
	if err != nil {
		return nil, err
	}
	transcript = strings.TrimSpace(transcript)

	if onTranscript != nil {
		onTranscript(transcript)
	}
	if transcript == "" {
		p.logger.Info("empty transcript, skipping reply generation",
			zap.Duration("audioDuration", normalized.Duration))
		return nil, ErrEmptyTranscript
	}

	var replyRaw string
	err = p.do(ctx, "reply generation", func(ctx context.Context) error {
		var err error
		replyRaw, err = p.llm.Generate(ctx, transcript)
		return err
	})
	if err != nil {
		return nil, err
	}

	emotion, replyText := ParseEmotion(replyRaw)

	voiceID := utt.VoiceID
	if voiceID == "" {
		voiceID = p.opts.DefaultVoiceID
	}

	var replyAudio []byte
	err = p.do(ctx, "speech synthesis", func(ctx context.Context) error {
		var err error
		replyAudio, err = p.tts.Synthesize(ctx, replyText, voiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	var envelope entities.Envelope
	err = p.do(ctx, "envelope extraction", func(ctx context.Context) error {
		var err error
		envelope, err = audio.ExtractEnvelope(replyAudio, p.opts.BucketMs)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("pipeline run completed",
		zap.String("emotion", string(emotion)),
		zap.Int("replyChars", len(replyText)),
		zap.Int("audioBytes", len(replyAudio)),
		zap.Int("envelopeBuckets", len(envelope.Amplitudes)),
		zap.Duration("elapsed", time.Since(started)))

	return &entities.PipelineResult{
		Transcript: transcript,
		ReplyText:  replyText,
		Emotion:    emotion,
		Audio:      replyAudio,
		Envelope:   envelope,
	}, nil
}

// do runs one stage on the worker pool under the configured stage timeout and
// tags failures with the stage name. Short-circuits and context expiry are not
// stage failures.
func (p *Pipeline) do(ctx context.Context, stage string, fn func(context.Context) error) error {
	run := fn
	if p.opts.StageTimeout > 0 {
		run = func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, p.opts.StageTimeout)
			defer cancel()
			return fn(ctx)
		}
	}

	if err := p.pool.Do(ctx, stage, run); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		p.logger.Error("pipeline stage failed", zap.String("stage", stage), zap.Error(err))
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}
