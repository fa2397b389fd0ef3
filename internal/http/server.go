package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/config"
	"github.com/jmehdipour/agent-bridge/internal/http/middleware"
	"github.com/jmehdipour/agent-bridge/internal/metrics"
	"github.com/jmehdipour/agent-bridge/internal/normalizer"
	"github.com/jmehdipour/agent-bridge/internal/signature"
	"github.com/jmehdipour/agent-bridge/internal/sink"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, log *zap.Logger, norm normalizer.Normalizer, out sink.Sink) (*Server, error) {
	maxBytes, err := bytes.Parse(cfg.HTTP.BodyLimit)
	if err != nil || maxBytes <= 0 {
		return nil, fmt.Errorf("invalid http.body_limit %q: %v", cfg.HTTP.BodyLimit, err)
	}

	verifier := signature.NewVerifier(cfg.Webhook.Secret)
	endpoints := knownEndpoints(cfg.Webhook.Sources)
	paths := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		paths = append(paths, ep.Path)
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log, paths)

	e.Use(
		echoMid.Recover(),
		echoMid.Secure(),
		echoMid.CORSWithConfig(echoMid.CORSConfig{
			AllowOrigins:     cfg.HTTP.AllowedOrigins,
			AllowCredentials: true,
		}),
		echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
			LogMethod:    true,
			LogURI:       true,
			LogStatus:    true,
			LogUserAgent: true,
			LogLatency:   true,
			LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
				log.Info("Incoming request",
					zap.String("method", v.Method),
					zap.String("url", v.URI),
					zap.Int("status", v.Status),
					zap.String("userAgent", v.UserAgent),
					zap.Duration("latency", v.Latency),
				)
				return nil
			},
		}),
		echoMid.BodyLimit(cfg.HTTP.BodyLimit),
	)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	startedAt := time.Now()
	e.GET("/health", healthHandler(cfg.App, startedAt))
	e.GET("/", rootHandler(cfg.App, endpoints))

	// middlewares
	sigMW := middleware.WebhookSignature(middleware.SignatureConfig{
		Verifier: verifier,
		Sources:  cfg.Webhook.Sources,
		MaxBytes: maxBytes,
		Log:      log,
	})

	// routes
	e.POST("/webhook/:source", webhookHandler(norm, out, log), sigMW)

	return &Server{e: e, log: log}, nil
}

func knownEndpoints(sources map[string]config.SourceConfig) []endpoint {
	eps := []endpoint{
		{Path: "/health", Method: http.MethodGet, Description: "Health check endpoint"},
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		eps = append(eps, endpoint{
			Path:        "/webhook/" + name,
			Method:      http.MethodPost,
			Description: name + " webhook receiver",
		})
	}

	return append(eps, endpoint{Path: "/metrics", Method: http.MethodGet, Description: "Prometheus metrics"})
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
