package sink

import (
	"context"
	"sync"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/metrics"
	"github.com/jmehdipour/agent-bridge/internal/model"
	"go.uber.org/zap"
)

type AsyncConfig struct {
	Name      string        // metrics/log label, e.g. "kafka"
	Workers   int           // default 4
	QueueSize int           // default 1024
	Timeout   time.Duration // per delivery, default 10s
}

// Async decouples a slow sink from the caller. Emit only enqueues; delivery happens on
// background workers and failures are logged, never returned to the caller.
type Async struct {
	next Sink
	cfg  AsyncConfig
	log  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan model.Event
	wg     sync.WaitGroup
}

func NewAsync(next Sink, cfg AsyncConfig, log *zap.Logger) *Async {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "async"
	}

	a := &Async{
		next:  next,
		cfg:   cfg,
		log:   log.With(zap.String("sink", cfg.Name)),
		queue: make(chan model.Event, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		a.wg.Add(1)
		go a.run()
	}

	return a
}

// Emit enqueues ev without blocking. It returns ErrQueueFull when the buffer is exhausted.
func (a *Async) Emit(_ context.Context, ev model.Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- ev:
		return nil
	default:
		metrics.SinkEventsTotal.WithLabelValues(a.cfg.Name, "dropped").Inc()
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer a.wg.Done()
	for ev := range a.queue {
		a.deliver(ev)
	}
}

func (a *Async) deliver(ev model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout)
	defer cancel()

	if err := a.next.Emit(ctx, ev); err != nil {
		a.log.Error("async sink delivery failed",
			zap.String("eventId", ev.ID),
			zap.String("documentId", ev.Document.ID),
			zap.Error(err),
		)
	}
}

// Close stops accepting events and waits for queued ones to drain, or for ctx to expire.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
