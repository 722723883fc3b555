package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"spendwatch/internal/amqp"
	"spendwatch/internal/config"
	"spendwatch/internal/gcs"
	"spendwatch/internal/infra/bigquery"
	"spendwatch/internal/logger"
	"spendwatch/internal/report"
	"spendwatch/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration validation failed")
	}
	if cfg.ProjectID == "" {
		log.Fatal().Msg("GCP_PROJECT_ID is required for the daily report")
	}

	// One-shot run; bound it so a stuck query cannot hang the process.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	objects, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage client")
	}
	defer objects.Close()

	engine, err := bigquery.NewEngine(ctx, cfg.ProjectID, cfg.QueryDataset, cfg.QueryResultDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize query engine")
	}
	defer engine.Close()

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.EventQueue, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AMQP client")
	}
	defer queue.Close()

	totals := store.NewMonthlyTotals(objects, cfg.OutputBucket, log)
	generator := report.NewGenerator(engine, totals, queue, cfg.ReportTopic, cfg.ReportingLocation(), log)

	if err := generator.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Daily spending report failed")
	}

	fmt.Println("Daily spending report generated.")
}
