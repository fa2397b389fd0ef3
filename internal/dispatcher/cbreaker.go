package dispatcher

import (
	"sync"
	"time"
)

type state int

const (
	closed state = iota
	open
	halfOpen
)

func (s state) String() string {
	switch s {
	case open:
		return "open"
	case halfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker opens after threshold consecutive failures, then admits a single probe once
// openFor has elapsed. A successful probe closes it; a failed one reopens it.
type Breaker struct {
	mu        sync.Mutex
	st        state
	fails     int
	threshold int
	openFor   time.Duration
	reopenAt  time.Time
	probing   bool
	now       func() time.Time
}

func NewBreaker(threshold int, openFor time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if openFor <= 0 {
		openFor = 15 * time.Second
	}
	return &Breaker{threshold: threshold, openFor: openFor, now: time.Now}
}

// Ready reports whether Acquire would currently succeed, without taking the probe slot.
func (b *Breaker) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case open:
		return !b.probing && b.now().After(b.reopenAt)
	case halfOpen:
		return !b.probing
	default:
		return true
	}
}

func (b *Breaker) Acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case open:
		if b.probing || !b.now().After(b.reopenAt) {
			return false
		}
		b.st = halfOpen
		b.probing = true
		return true
	case halfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.st = closed
	b.fails = 0
	b.probing = false
}

func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.st == halfOpen {
		b.trip()
		return
	}

	b.fails++
	if b.fails >= b.threshold {
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.st = open
	b.probing = false
	b.reopenAt = b.now().Add(b.openFor)
}

func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st.String()
}
