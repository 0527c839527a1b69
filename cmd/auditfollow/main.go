// Command auditfollow tails the audit topic. Security records are logged as
// warnings for alerting; compliance and security records are archived to
// postgres when DATABASE_URL is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pawtrail/internal/platform/config"
	"pawtrail/internal/platform/logger"
	"pawtrail/internal/platform/postgres"
	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/audit/consumer"
	pgstore "pawtrail/pkg/platform/audit/store/postgres"
	kafkastream "pawtrail/pkg/platform/audit/stream/kafka"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "auditfollow: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	log := logger.New(cfg.Server.Environment).With("component", "auditfollow")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := consumer.NewRouter(log, nil)
	var archive consumer.Handler

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		store := pgstore.New(db)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate audit archive: %w", err)
		}
		archive = consumer.NewArchiveHandler(store, log)
		router.Register(audit.CategoryCompliance, archive)
	}
	router.Register(audit.CategorySecurity, consumer.NewSecurityHandler(archive, log))

	client, err := kafkastream.NewConsumerClient(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup)
	if err != nil {
		return err
	}
	defer client.Close()

	log.Info("following audit topic",
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.ConsumerGroup,
		"archive", db != nil,
	)
	return kafkastream.NewConsumer(client, router, kafkastream.WithConsumerLogger(log)).Run(ctx)
}
