package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrNoHealthy = errors.New("no healthy targets")
	ErrNoAcquire = errors.New("target not acquired")
)

// Dispatcher spreads deliveries round-robin over healthy targets, retrying on another
// target up to maxAttempts times.
type Dispatcher struct {
	targets     []Target
	counter     atomic.Uint64
	maxAttempts int
}

func NewDispatcher(targets []Target, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Dispatcher{targets: targets, maxAttempts: maxAttempts}
}

func (d *Dispatcher) pick() (Target, error) {
	healthy := make([]Target, 0, len(d.targets))
	for _, t := range d.targets {
		if t.Ready() {
			healthy = append(healthy, t)
		}
	}

	if len(healthy) == 0 {
		return nil, ErrNoHealthy
	}

	n := d.counter.Add(1)
	return healthy[int((n-1)%uint64(len(healthy)))], nil
}

func (d *Dispatcher) tryOnce(ctx context.Context, payload []byte) error {
	t, err := d.pick()
	if err != nil {
		return err
	}

	if !t.Acquire() {
		return ErrNoAcquire
	}

	if err := t.Deliver(ctx, payload); err != nil {
		return fmt.Errorf("deliver via %s: %w", t.Name(), err)
	}
	return nil
}

// Deliver returns nil on the first successful attempt, otherwise the last error.
func (d *Dispatcher) Deliver(ctx context.Context, payload []byte) error {
	var last error
	for i := 0; i < d.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := d.tryOnce(ctx, payload)
		if err == nil {
			return nil
		}
		last = err
	}

	return last
}
