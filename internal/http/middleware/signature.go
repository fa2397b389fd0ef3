package middleware

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/config"
	"github.com/jmehdipour/agent-bridge/internal/metrics"
	"github.com/jmehdipour/agent-bridge/internal/signature"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	ctxRawBody    = "raw_body"
	ctxReceivedAt = "received_at"
)

// RawBodyFromCtx returns the exact request bytes captured by WebhookSignature.
func RawBodyFromCtx(c echo.Context) ([]byte, bool) {
	b, ok := c.Get(ctxRawBody).([]byte)
	return b, ok
}

// ReceivedAtFromCtx returns when WebhookSignature started handling the request.
func ReceivedAtFromCtx(c echo.Context) (time.Time, bool) {
	t, ok := c.Get(ctxReceivedAt).(time.Time)
	return t, ok
}

type SignatureConfig struct {
	Verifier *signature.Verifier
	Sources  map[string]config.SourceConfig
	MaxBytes int64
	Log      *zap.Logger
	Now      func() time.Time // defaults to time.Now
}

// WebhookSignature reads the raw body of POST /webhook/:source, checks it against the
// source's signature header and stores it in the context for the handler.
// Unknown sources are 404, oversize bodies 413, bad signatures 401.
func WebhookSignature(cfg SignatureConfig) echo.MiddlewareFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			receivedAt := cfg.Now().UTC()
			source := c.Param("source")
			src, ok := cfg.Sources[source]
			if !ok {
				return echo.ErrNotFound
			}

			req := c.Request()
			body, err := io.ReadAll(io.LimitReader(req.Body, cfg.MaxBytes+1))
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					return he
				}
				return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
			}
			if int64(len(body)) > cfg.MaxBytes {
				return echo.ErrStatusRequestEntityTooLarge
			}

			cfg.Log.Info("Webhook received",
				zap.String("source", source),
				zap.String("contentType", req.Header.Get(echo.HeaderContentType)),
				zap.String("userAgent", req.UserAgent()),
				zap.Int64("contentLength", req.ContentLength),
				zap.Int("bodySize", len(body)),
			)

			switch {
			case !cfg.Verifier.Enabled():
				cfg.Log.Warn("No webhook secret configured - skipping verification", zap.String("source", source))
			case !cfg.Verifier.Verify(body, req.Header.Get(src.SignatureHeader)):
				cfg.Log.Warn("Webhook verification failed",
					zap.String("source", source),
					zap.String("ip", c.RealIP()),
					zap.String("userAgent", req.UserAgent()),
				)
				metrics.WebhooksTotal.WithLabelValues(source, "rejected").Inc()
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			default:
				cfg.Log.Debug("Webhook signature verified", zap.String("source", source))
			}

			c.Set(ctxReceivedAt, receivedAt)
			c.Set(ctxRawBody, body)
			return next(c)
		}
	}
}
