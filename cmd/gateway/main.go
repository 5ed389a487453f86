package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/events"
	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/gateway"
	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/hub"
	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/repository"
	"github.com/shubham-shewale/stock-dashboard/pkg/config"
	"github.com/shubham-shewale/stock-dashboard/pkg/ticker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seedStore := newSeedStore(cfg, logger)
	defer seedStore.Close()

	seed, err := seedStore.LoadSeed(ctx)
	if err != nil {
		logger.Fatal("Failed to load seed data", zap.Error(err))
	}
	logger.Info("Seed loaded",
		zap.String("source", cfg.Seed.Source),
		zap.Int("watchlist", len(seed.Watchlist)),
		zap.Int("ticker", len(seed.Ticker)),
	)

	var sink events.Sink = events.NopSink{}
	var publisher *events.Publisher
	publisherDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		publisher = newPublisher(ctx, cfg, logger)
		sink = publisher
		go func() {
			publisher.Run(ctx)
			close(publisherDone)
		}()
	}

	// Dependency Injection: each session gets its own store and cursor built from the seed
	wsHub := hub.NewHub(hub.Options{
		Seed:      seed,
		Ticker:    ticker.Options{Interval: cfg.Ticker.Interval, AutoPlay: cfg.Ticker.AutoPlay},
		Scheduler: ticker.RealScheduler{},
		Sink:      sink,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.App.Port,
		Handler:           gateway.NewRouter(wsHub, seed, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	// Hijacked websocket conns are not covered by Shutdown
	wsHub.Close()

	cancel()
	if publisher != nil {
		<-publisherDone
		if err := publisher.Close(); err != nil {
			logger.Error("Error closing Kafka writer", zap.Error(err))
		}
	}

	logger.Info("Shutdown Complete")
}

func newSeedStore(cfg *config.Config, logger *zap.Logger) repository.SeedStore {
	if cfg.Seed.Source != config.SeedSourceRedis {
		return repository.NewStaticSeedStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	return repository.NewRedisSeedStore(rdb, logger)
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) *events.Publisher {
	clock := events.RealClock{}

	provisioner := events.NewTopicProvisioner(logger, &events.RealKafkaDialer{Dialer: kafka.DefaultDialer}, clock)
	err := provisioner.Ensure(ctx, cfg.Kafka.Brokers, events.TopicSpec{
		Name:              cfg.Kafka.Topic,
		Partitions:        cfg.Kafka.Partitions,
		ReplicationFactor: cfg.Kafka.ReplicationFactor,
		ReadyTimeout:      cfg.Kafka.ReadyTimeout,
	})
	if err != nil {
		// Sessions never depend on Kafka; publishing stays best effort
		logger.Warn("Event topic not ready", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.Hash{}, // session id key keeps a session on one partition
		// Optimization: Send batches to reduce network IO
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}

	return events.NewPublisher(logger, writer, clock, 1024)
}
