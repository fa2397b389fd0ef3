package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/classifier"
	"github.com/jmehdipour/agent-bridge/internal/http/middleware"
	"github.com/jmehdipour/agent-bridge/internal/metrics"
	"github.com/jmehdipour/agent-bridge/internal/model"
	"github.com/jmehdipour/agent-bridge/internal/normalizer"
	"github.com/jmehdipour/agent-bridge/internal/sink"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var errMalformedEnvelope = errors.New("envelope is not a JSON object")

type processedDocument struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Processed bool   `json:"processed"`
}

type webhookResponse struct {
	Success           bool              `json:"success"`
	Message           string            `json:"message"`
	Timestamp         string            `json:"timestamp"`
	ProcessedDocument processedDocument `json:"processedDocument"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func timestamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// webhookHandler runs after WebhookSignature has verified the raw body.
//
// Every verified request is acknowledged with 200, whether or not the document was
// interesting: the CMS redelivers on non-2xx and uninteresting documents must not cause
// retries. Internal failures answer 500 with a generic body; details stay in the logs.
func webhookHandler(norm normalizer.Normalizer, out sink.Sink, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		source := c.Param("source")
		docID := ""

		defer func() {
			if r := recover(); r != nil {
				err = fail(c, log, source, docID, fmt.Errorf("panic: %v", r))
			}
		}()

		raw, ok := middleware.RawBodyFromCtx(c)
		if !ok {
			return fail(c, log, source, docID, errors.New("raw body missing from context"))
		}

		env, err := decodeEnvelope(raw)
		if err != nil {
			return fail(c, log, source, docID, err)
		}
		docID = env.ID

		log.Info("Sanity webhook payload received",
			zap.String("source", source),
			zap.String("documentType", env.Type),
			zap.String("documentId", env.ID),
			zap.String("documentRev", env.Revision),
			zap.Bool("hasSlug", env.SlugValue() != ""),
		)

		cls := classifier.Classify(env)
		if !cls.Actionable {
			log.Debug("Non-social media document - ignoring",
				zap.String("documentType", env.Type),
				zap.String("documentId", env.ID),
			)
			metrics.WebhooksTotal.WithLabelValues(source, "ignored").Inc()
			return acknowledge(c, env, false)
		}

		log.Info("Social Media document detected - processing",
			zap.String("documentId", env.ID),
			zap.String("internalTitle", env.InternalTitle),
			zap.String("campaignStatus", env.CampaignStatus),
			zap.String("scheduledDate", env.ScheduledPublicationDate),
			zap.Int("platformCount", len(env.Platforms)),
		)

		receivedAt, ok := middleware.ReceivedAtFromCtx(c)
		if !ok {
			receivedAt = time.Now().UTC()
		}

		ctx := c.Request().Context()
		ev, err := norm.Normalize(ctx, normalizer.Delivery{Source: source, ReceivedAt: receivedAt}, env)
		if err != nil {
			return fail(c, log, source, docID, fmt.Errorf("normalize: %w", err))
		}

		if err := out.Emit(ctx, ev); err != nil {
			return fail(c, log, source, docID, fmt.Errorf("emit event %s: %w", ev.ID, err))
		}

		metrics.WebhooksTotal.WithLabelValues(source, "emitted").Inc()
		return acknowledge(c, env, true)
	}
}

func decodeEnvelope(raw []byte) (model.Envelope, error) {
	var env model.Envelope
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return env, errMalformedEnvelope
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

func acknowledge(c echo.Context, env model.Envelope, processed bool) error {
	return c.JSON(http.StatusOK, webhookResponse{
		Success:   true,
		Message:   "Webhook processed successfully",
		Timestamp: timestamp(),
		ProcessedDocument: processedDocument{
			Type:      env.Type,
			ID:        env.ID,
			Processed: processed,
		},
	})
}

// fail logs err in full and answers with a body that carries none of it.
func fail(c echo.Context, log *zap.Logger, source, docID string, err error) error {
	log.Error("Webhook processing failed",
		zap.String("source", source),
		zap.String("documentId", docID),
		zap.Error(err),
		zap.Stack("stack"),
	)
	metrics.WebhooksTotal.WithLabelValues(source, "failed").Inc()

	return c.JSON(http.StatusInternalServerError, errorResponse{
		Error:     "Webhook processing failed",
		Message:   "An unexpected error occurred",
		Timestamp: timestamp(),
	})
}
