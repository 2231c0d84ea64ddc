package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/handyhub/dispatch-api/internal/config"
	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/mapview"
	"github.com/handyhub/dispatch-api/internal/pkg/eventbus"
	"github.com/handyhub/dispatch-api/internal/pkg/logger"
	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
	"github.com/handyhub/dispatch-api/internal/pkg/storage"
)

const (
	consumerGroup = "map-worker"
	retryDelay    = 5 * time.Second
)

// map-worker pre-publishes booking map pages to object storage as booking
// events arrive on the bus.
func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		Service:     "map-worker",
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().Str("event_bus", cfg.EventBus).Msg("Starting map-worker")

	if cfg.StoreDriver == config.StoreMemory {
		log.Fatal().Msg("map-worker needs a shared record store, set STORE_DRIVER to mongo or postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := recordstore.Open(ctx, recordstore.Options{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		MongoURI:    cfg.MongoURI,
		MongoDB:     cfg.MongoDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer closeStore()

	st, err := storage.New(ctx, storage.Config{
		Driver:      cfg.StorageDriver,
		LocalPath:   cfg.LocalStoragePath,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		PublicURL:   publicURL(cfg),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create map storage")
	}

	consumer, err := eventbus.NewConsumer(eventbus.Config{
		Driver:   cfg.EventBus,
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		URL:      cfg.RabbitMQURL,
		Exchange: cfg.RabbitMQExchange,
	}, consumerGroup, []string{"#"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create event consumer")
	}
	defer consumer.Close()

	bookings := booking.NewService(booking.NewRepository(store))
	worker := mapview.NewPrepublisher(bookings, mapview.NewPublisher(st))

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	for {
		err := consumer.Consume(ctx, worker.HandleMessage)
		if ctx.Err() != nil {
			log.Info().Msg("map-worker stopped")
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Dur("retry_in", retryDelay).Msg("Consumer stopped, restarting")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("map-worker stopped")
			return
		case <-time.After(retryDelay):
		}
	}
}

func publicURL(cfg *config.Config) string {
	if cfg.StorageDriver == config.StorageS3 {
		return cfg.S3PublicURL
	}
	return cfg.PublicBaseURL
}
