package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/config"
	httpSrv "github.com/jmehdipour/agent-bridge/internal/http"
	"github.com/jmehdipour/agent-bridge/internal/kafka"
	"github.com/jmehdipour/agent-bridge/internal/logger"
	"github.com/jmehdipour/agent-bridge/internal/normalizer"
	"github.com/jmehdipour/agent-bridge/internal/sink"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		if cfg.Webhook.Secret == "" {
			log.Warn("SANITY_WEBHOOK_SECRET not set - webhook signatures will not be verified",
				zap.String("environment", cfg.App.Environment))
		}

		out, closeSinks := buildSink(cfg, log)

		norm := normalizer.New(normalizer.Info{
			Service:     cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
		})

		server, err := httpSrv.NewServer(cfg, log, norm, out)
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		addr := cfg.HTTP.ListenAddr()
		errCh := make(chan error, 1)
		go func() {
			log.Info("Sanity webhook server started",
				zap.String("addr", addr),
				zap.String("environment", cfg.App.Environment),
				zap.Bool("signatureVerification", cfg.Webhook.Secret != ""),
				zap.Bool("kafka", cfg.Kafka.Enabled()),
			)
			errCh <- server.Start(addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
		closeSinks(ctx)

		return nil
	},
}

// buildSink always logs events; with brokers configured it also publishes them to Kafka
// through a bounded background queue.
func buildSink(cfg config.Config, log *zap.Logger) (sink.Sink, func(context.Context)) {
	logSink := sink.NewLogSink(log)
	if !cfg.Kafka.Enabled() {
		return logSink, func(context.Context) {}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	})
	async := sink.NewAsync(sink.NewKafkaSink(producer), sink.AsyncConfig{
		Name:      "kafka",
		Workers:   cfg.Async.Workers,
		QueueSize: cfg.Async.QueueSize,
		Timeout:   cfg.Kafka.WriteTimeout,
	}, log)

	log.Info("kafka sink enabled",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)

	return sink.Fanout{logSink, async}, func(ctx context.Context) {
		if err := async.Close(ctx); err != nil {
			log.Warn("async sink drain incomplete", zap.Error(err))
		}
		if err := producer.Close(); err != nil {
			log.Warn("kafka producer close", zap.Error(err))
		}
	}
}
