package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spendwatch/internal/alert"
	"spendwatch/internal/amqp"
	"spendwatch/internal/config"
	"spendwatch/internal/dates"
	"spendwatch/internal/email"
	"spendwatch/internal/gcs"
	"spendwatch/internal/logger"
	"spendwatch/internal/pipeline"
	"spendwatch/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	log := logger.New()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration validation failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	objects, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage client")
	}
	defer objects.Close()

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.EventQueue, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AMQP client")
	}
	defer queue.Close()

	extractor, err := email.NewExtractor(cfg.AmountMerchantPattern)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compile extraction pattern")
	}
	normalizer, err := dates.New(cfg.ReportingTimezone, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load reporting timezone")
	}

	records := store.NewRecordWriter(objects, cfg.OutputBucket)
	alerts := alert.NewDispatcher(queue, cfg.HighValueTopic, cfg.HighValueThreshold, log)
	p := pipeline.New(objects, records, alerts, extractor, normalizer, log)

	log.Info().Str("queue", cfg.EventQueue).Int("batch_size", cfg.BatchSize).
		Msg("Starting ingest worker")

	go func() {
		err := queue.ConsumeBatches(ctx, cfg.BatchSize, cfg.FlushInterval, p.ProcessBatch)
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Message consumption failed")
		}
		cancel()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down ingest worker")
	cancel()
}
