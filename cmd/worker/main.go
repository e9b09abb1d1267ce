package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/tourplanner/config"
	"github.com/Domenick1991/tourplanner/internal/kafka"
	"github.com/Domenick1991/tourplanner/internal/repository"
	"github.com/Domenick1991/tourplanner/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
)

func main() {
	cfgPath := pflag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	pflag.Parse()
	if *cfgPath == "" {
		*cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.AnomalyTopic == "" {
		log.Fatalf("worker needs kafka.brokers and kafka.anomaly_topic")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	anomalyRepo := repository.NewAnomalyRepository(pool)
	if err := anomalyRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("prepare schema: %v", err)
	}
	ingestor := telemetry.NewIngestor(anomalyRepo)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.AnomalyTopic)
	defer consumer.Close()

	go func() {
		if err := consumer.Consume(ctx, ingestor.Handle); err != nil {
			log.Printf("consumer stopped: %v", err)
			stop()
		}
	}()

	interval := time.Duration(cfg.Worker.ReportIntervalMinutes) * time.Minute
	reportTicker := time.NewTicker(interval)
	defer reportTicker.Stop()

	for {
		select {
		case <-reportTicker.C:
			ingestor.Report(ctx, interval)
		case <-ctx.Done():
			log.Printf("shutting down")
			return
		}
	}
}
