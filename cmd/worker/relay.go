package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/config"
	"github.com/jmehdipour/agent-bridge/internal/db"
	"github.com/jmehdipour/agent-bridge/internal/dedup"
	"github.com/jmehdipour/agent-bridge/internal/dispatcher"
	"github.com/jmehdipour/agent-bridge/internal/kafka"
	"github.com/jmehdipour/agent-bridge/internal/logger"
	"github.com/jmehdipour/agent-bridge/internal/metrics"
	"github.com/jmehdipour/agent-bridge/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dedupPrefix = "bridge:relay:"

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay normalized events from Kafka to publishing targets",
	RunE:  runRelay,
}

// openDedup returns nil when redis is not configured or not reachable; the relay then runs
// without revision dedup.
func openDedup(cfg config.Config, log *zap.Logger) (*dedup.Store, func()) {
	if cfg.Redis.Addr == "" {
		log.Warn("redis.addr empty - relaying without revision dedup")
		return nil, nil
	}

	rdb, err := db.NewRedisClient(db.RedisOpts{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	if err != nil {
		log.Warn("redis unreachable - relaying without revision dedup", zap.Error(err))
		return nil, nil
	}

	return dedup.NewStore(rdb, dedupPrefix, cfg.Dedup.TTL), func() { _ = rdb.Close() }
}

func runRelay(cmd *cobra.Command, args []string) error {
	// 1) config + logger
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	if !cfg.Kafka.Enabled() {
		return errors.New("relay needs kafka.brokers")
	}

	// 2) targets -> dispatcher
	var targets []dispatcher.Target
	for _, tc := range cfg.Relay.Targets {
		if !tc.Enabled || strings.TrimSpace(tc.URL) == "" {
			continue
		}
		targets = append(targets, dispatcher.NewHTTPTarget(
			tc.Name,
			tc.URL,
			time.Duration(tc.TimeoutMs)*time.Millisecond,
			dispatcher.NewBreaker(tc.Breaker.FailThreshold, time.Duration(tc.Breaker.OpenForMs)*time.Millisecond),
		))
	}
	if len(targets) == 0 {
		return errors.New("no relay targets enabled in config")
	}
	disp := dispatcher.NewDispatcher(targets, cfg.Relay.MaxAttempts)

	// 3) kafka consumer
	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewRelay(consumer, disp, nil, log)

	// 4) redis dedup (optional)
	if store, closeStore := openDedup(cfg, log); store != nil {
		defer closeStore()
		w.Dedup = store
	}

	if cfg.Relay.Workers > 0 {
		w.Workers = cfg.Relay.Workers
	}

	// 5) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("relay started",
		zap.String("topic", consumer.Topic()),
		zap.String("group", cfg.Kafka.GroupID),
		zap.Int("targets", len(targets)),
		zap.Int("workers", w.Workers),
		zap.Bool("dedup", w.Dedup != nil),
	)

	return w.Run(ctx)
}
