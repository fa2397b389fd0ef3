package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmehdipour/agent-bridge/internal/metrics"
	"github.com/jmehdipour/agent-bridge/internal/model"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaSink publishes events as JSON keyed by document id.
type KafkaSink struct {
	pub Publisher
}

func NewKafkaSink(pub Publisher) *KafkaSink {
	return &KafkaSink{pub: pub}
}

func (s *KafkaSink) Emit(ctx context.Context, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}

	if err := s.pub.Publish(ctx, []byte(ev.Document.ID), payload); err != nil {
		metrics.SinkEventsTotal.WithLabelValues("kafka", "error").Inc()
		return fmt.Errorf("publish event %s: %w", ev.ID, err)
	}

	metrics.SinkEventsTotal.WithLabelValues("kafka", "ok").Inc()
	return nil
}
