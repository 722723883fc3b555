package main

import (
	"context"
	"flag"
	"fmt"
	"time"

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

// Manual single-email ingestion, for reprocessing an object without going
// through the event queue.
func main() {
	_ = godotenv.Load()

	log := logger.New()

	uri := flag.String("uri", "", "Storage URI of the email object (e.g. gs://bucket/emails/x.eml)")
	flag.Parse()

	if *uri == "" {
		log.Fatal().Msg("Error: --uri is required")
	}
	bucket, object, err := gcs.ParseURI(*uri)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid storage URI")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration validation failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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

	log.Info().Str("uri", *uri).Msg("Starting ingestion")

	if err := p.ProcessObject(ctx, bucket, object); err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Println("Ingestion completed successfully.")
}
