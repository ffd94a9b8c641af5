package websocket

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sai-voice/server/domain/entities"
	"github.com/sai-voice/server/domain/repositories"
	"github.com/sai-voice/server/internal/audio"
	"github.com/sai-voice/server/usecase"
)

// State is the per-connection conversation state.
type State int

const (
	// StateIdle accepts new utterance submissions.
	StateIdle State = iota
	// StateListening accumulates capture frames (local-capture mode only).
	StateListening
	// StateProcessing has one pipeline run in flight.
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

const captureSampleRate = 16000

// Session is the per-connection state machine. It interprets inbound protocol
// messages, drives the pipeline, and owns the lifecycle of transient resources
// (capture device, buffered frames). At most one pipeline run is active per
// session; a submission arriving while one is in flight is rejected with an
// error message, never queued.
//
// Outbound messages go through the send callback, which must not block; the
// transport layer backs it with a buffered channel.
type Session struct {
	id       string
	pipeline *usecase.Pipeline
	capture  repositories.CaptureSource
	send     func(msg interface{})
	logger   *zap.Logger

	// ctx is cancelled when the transport closes; in-flight collaborator
	// calls observe it and their results are discarded.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards state and frames. Frame appends from the capture goroutine
	// and the drain on stop_listening must not interleave.
	mu     sync.Mutex
	state  State
	frames [][]byte
}

// NewSession creates a session in push mode; capture may be nil, in which case
// start_listening is answered with an error.
func NewSession(pipeline *usecase.Pipeline, capture repositories.CaptureSource, send func(msg interface{}), logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	return &Session{
		id:       id,
		pipeline: pipeline,
		capture:  capture,
		send:     send,
		logger:   logger.With(zap.String("sessionID", id)),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// HandleMessage processes one inbound text message. Malformed messages are
// answered with an error; unrecognized types are ignored. Never fatal.
func (s *Session) HandleMessage(raw []byte) {
	msg, err := ParseMessage(raw)
	if err != nil {
		if errors.Is(err, errUnknownType) {
			s.logger.Debug("Ignoring unknown message type", zap.Error(err))
			return
		}
		s.send(newError(err.Error()))
		return
	}

	switch m := msg.(type) {
	case *AudioDataMessage:
		s.handleAudioData(m)
	case *BaseMessage:
		switch m.Type {
		case MessageTypePing:
			// Answered from the read loop directly, never via the pipeline.
			s.send(newSignal(MessageTypePong))
		case MessageTypeStartListening:
			s.handleStartListening()
		case MessageTypeStopListening:
			s.handleStopListening()
		}
	}
}

// Close abandons any in-flight run, releases the capture device if held, and
// waits for the pipeline goroutine to observe cancellation. Temp artifacts are
// released by the run itself on every exit path.
func (s *Session) Close() {
	s.cancel()

	s.mu.Lock()
	if s.state == StateListening && s.capture != nil {
		s.capture.Stop()
	}
	s.frames = nil
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Session) handleAudioData(msg *AudioDataMessage) {
	data, err := base64.StdEncoding.DecodeString(msg.Audio)
	if err != nil || len(data) == 0 {
		s.send(newError("no audio data"))
		return
	}

	s.mu.Lock()
	if s.state != StateIdle {
		busy := s.state
		s.mu.Unlock()
		s.logger.Warn("Rejecting utterance, session busy", zap.Stringer("state", busy))
		s.send(newError("still processing previous utterance"))
		return
	}
	s.state = StateProcessing
	s.mu.Unlock()

	s.startRun(&entities.Utterance{
		Data:    data,
		Format:  msg.Format,
		VoiceID: msg.VoiceID,
	})
}

func (s *Session) handleStartListening() {
	if s.capture == nil {
		s.send(newError("audio capture not available"))
		return
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		s.send(newError("still processing previous utterance"))
		return
	}

	frames, err := s.capture.Start(s.ctx)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("Failed to acquire capture device", zap.Error(err))
		s.send(newError("audio capture unavailable"))
		return
	}
	s.state = StateListening
	s.frames = nil
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for frame := range frames {
			s.mu.Lock()
			if s.state == StateListening {
				s.frames = append(s.frames, frame)
			}
			s.mu.Unlock()
		}
	}()

	s.send(newSignal(MessageTypeListening))
}

func (s *Session) handleStopListening() {
	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		s.send(newError("not listening"))
		return
	}
	s.capture.Stop()

	// Atomic drain: everything buffered so far becomes the utterance.
	var size int
	for _, f := range s.frames {
		size += len(f)
	}
	pcm := make([]byte, 0, size)
	for _, f := range s.frames {
		pcm = append(pcm, f...)
	}
	s.frames = nil

	if len(pcm) == 0 {
		s.state = StateIdle
		s.mu.Unlock()
		s.send(newError("no audio captured"))
		return
	}
	s.state = StateProcessing
	s.mu.Unlock()

	s.startRun(&entities.Utterance{
		Data:   audio.EncodeWAV(pcm, captureSampleRate, 1),
		Format: "wav",
	})
}

// startRun launches one pipeline run. Caller has already moved the session to
// StateProcessing.
func (s *Session) startRun(utt *entities.Utterance) {
	s.send(newSignal(MessageTypeProcessing))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.state = StateIdle
			s.mu.Unlock()
		}()

		result, err := s.pipeline.Run(s.ctx, utt, func(text string) {
			s.send(newTranscript(text))
		})
		if err != nil {
			if s.ctx.Err() != nil {
				// Transport closed mid-run; nothing left to send to.
				return
			}
			s.send(newError(usecase.ErrorMessage(err)))
			return
		}

		s.send(newAudioResponse(
			base64.StdEncoding.EncodeToString(result.Audio),
			string(result.Emotion),
			result.Envelope.Amplitudes,
			result.Envelope.BucketMs,
		))
	}()
}
