// Package worker provides the bounded pool that pipeline stages run on so one
// slow conversation never starves message delivery for the others.
package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrClosed is returned by Do after the pool has been shut down.
var ErrClosed = errors.New("worker: pool closed")

// Pool bounds the number of blocking stage executions in flight across all
// sessions. Do blocks until a slot is free, the context expires, or the pool
// closes.
type Pool struct {
	slots  chan struct{}
	done   chan struct{}
	logger *zap.Logger
}

// NewPool creates a pool with the given number of slots (minimum 1).
func NewPool(size int, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		slots:  make(chan struct{}, size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Do runs fn under a pool slot. The slot is released when fn returns, no
// matter how it returns.
func (p *Pool) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrClosed
	}
	defer func() { <-p.slots }()

	p.logger.Debug("stage dispatched", zap.String("stage", name))
	return fn(ctx)
}

// Close rejects all future Do calls. Stages already running are unaffected.
func (p *Pool) Close() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}
