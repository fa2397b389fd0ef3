// Package sink delivers normalized events to their consumers.
package sink

import (
	"context"
	"errors"

	"github.com/jmehdipour/agent-bridge/internal/model"
)

var (
	ErrQueueFull = errors.New("sink queue full")
	ErrClosed    = errors.New("sink closed")
)

type Sink interface {
	Emit(ctx context.Context, ev model.Event) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, ev model.Event) error

func (f Func) Emit(ctx context.Context, ev model.Event) error { return f(ctx, ev) }

// Fanout emits to every sink in order and joins their errors.
type Fanout []Sink

func (f Fanout) Emit(ctx context.Context, ev model.Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
