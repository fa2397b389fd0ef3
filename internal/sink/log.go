package sink

import (
	"context"

	"github.com/jmehdipour/agent-bridge/internal/metrics"
	"github.com/jmehdipour/agent-bridge/internal/model"
	"go.uber.org/zap"
)

const PayloadMessage = "SOCIAL_MEDIA_WEBHOOK_PAYLOAD"

// LogSink writes each event as one structured log record.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(_ context.Context, ev model.Event) error {
	s.log.Info(PayloadMessage,
		zap.String("eventId", ev.ID),
		zap.Any("webhook", ev.Webhook),
		zap.Any("document", ev.Document),
		zap.Any("socialMedia", ev.SocialMedia),
		zap.Any("metadata", ev.Metadata),
	)

	platforms := 0
	if ev.SocialMedia != nil {
		platforms = ev.SocialMedia.PlatformCount
	}
	s.log.Info("Social media webhook processing completed",
		zap.String("documentId", ev.Document.ID),
		zap.Int("platformsToProcess", platforms),
	)

	metrics.SinkEventsTotal.WithLabelValues("log", "ok").Inc()
	return nil
}
