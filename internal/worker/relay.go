package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/kafka"
	"github.com/jmehdipour/agent-bridge/internal/metrics"
	"github.com/jmehdipour/agent-bridge/internal/model"
	"go.uber.org/zap"
)

// Fetcher is satisfied by *kafka.Consumer.
type Fetcher interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Deliverer is satisfied by *dispatcher.Dispatcher.
type Deliverer interface {
	Deliver(ctx context.Context, payload []byte) error
}

// Deduper is satisfied by *dedup.Store.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Relay:
// - fetches normalized events from Kafka,
// - drops revisions it has already relayed,
// - forwards the rest to downstream publishing targets.
//
// Offsets are committed once a message is settled: delivered, skipped as a duplicate, unreadable,
// or failed on every target. Messages cut short by shutdown stay uncommitted.
type Relay struct {
	Consumer Fetcher
	Dispatch Deliverer
	Dedup    Deduper // optional
	Log      *zap.Logger

	Workers    int           // number of goroutines processing messages
	FetchDelay time.Duration // backoff after a fetch error
}

func NewRelay(consumer Fetcher, dispatch Deliverer, dedup Deduper, log *zap.Logger) *Relay {
	return &Relay{
		Consumer:   consumer,
		Dispatch:   dispatch,
		Dedup:      dedup,
		Log:        log,
		Workers:    16,
		FetchDelay: 200 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled and all in-flight messages are finished.
func (w *Relay) Run(ctx context.Context) error {
	if w.Consumer == nil || w.Dispatch == nil {
		return errors.New("relay: consumer and dispatcher are required")
	}
	if w.Log == nil {
		w.Log = zap.NewNop()
	}
	if w.Workers <= 0 {
		w.Workers = 16
	}
	if w.FetchDelay <= 0 {
		w.FetchDelay = 200 * time.Millisecond
	}

	msgCh := make(chan kafka.Message, w.Workers*2)

	go func() {
		defer close(msgCh)
		for {
			m, err := w.Consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Log.Warn("kafka fetch failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.FetchDelay):
				}
				continue
			}

			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				if w.processOne(ctx, m) {
					w.commit(ctx, m)
				}
			}
		}()
	}

	wg.Wait()
	return nil
}

// processOne reports whether the offset may be committed. Messages interrupted by shutdown are
// left uncommitted so the group redelivers them.
func (w *Relay) processOne(ctx context.Context, m kafka.Message) bool {
	if ctx.Err() != nil {
		return false
	}

	var ev model.Event
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.Document.ID == "" {
		metrics.RelayDeliveriesTotal.WithLabelValues("poison").Inc()
		w.Log.Warn("skipping unreadable event",
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Error(err),
		)
		return true
	}

	log := w.Log.With(zap.String("eventId", ev.ID), zap.String("documentId", ev.Document.ID))
	key := ev.DedupKey()

	claimed := false
	if w.Dedup != nil && key != "" {
		ok, err := w.Dedup.Claim(ctx, key)
		switch {
		case err != nil:
			// redis unavailable: relay anyway, duplicates are preferable to gaps
			log.Warn("dedup claim failed", zap.Error(err))
		case !ok:
			metrics.RelayDeliveriesTotal.WithLabelValues("duplicate").Inc()
			log.Debug("duplicate revision skipped", zap.String("revision", ev.Document.Revision))
			return true
		default:
			claimed = true
		}
	}

	if err := w.Dispatch.Deliver(ctx, m.Value); err != nil {
		if claimed {
			if rerr := w.Dedup.Release(context.WithoutCancel(ctx), key); rerr != nil {
				log.Warn("dedup release failed", zap.Error(rerr))
			}
		}
		if ctx.Err() != nil {
			log.Info("relay interrupted by shutdown, leaving offset uncommitted", zap.Int64("offset", m.Offset))
			return false
		}
		metrics.RelayDeliveriesTotal.WithLabelValues("failed").Inc()
		log.Error("relay delivery failed", zap.Error(err))
		return true
	}

	metrics.RelayDeliveriesTotal.WithLabelValues("delivered").Inc()
	log.Info("event relayed", zap.Int("platforms", platformCount(ev)))
	return true
}

func (w *Relay) commit(ctx context.Context, m kafka.Message) {
	if err := w.Consumer.Commit(context.WithoutCancel(ctx), m); err != nil {
		w.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
	}
}

func platformCount(ev model.Event) int {
	if ev.SocialMedia == nil {
		return 0
	}
	return ev.SocialMedia.PlatformCount
}
