package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"pawtrail/internal/platform/config"
	"pawtrail/internal/platform/postgres"
	"pawtrail/internal/platform/redis"
	httptransport "pawtrail/internal/transport/http"
	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/audit/forwarder"
	pgstore "pawtrail/pkg/platform/audit/store/postgres"
	redisstore "pawtrail/pkg/platform/audit/store/redis"
	kafkastream "pawtrail/pkg/platform/audit/stream/kafka"
	"pawtrail/pkg/platform/circuit"
)

const (
	topicPartitions  = 3
	topicReplication = 1
)

// backends holds the optional forwarding targets and what is needed to
// health-check and release them.
type backends struct {
	forwarders []*forwarder.Forwarder
	health     []httptransport.HealthCheck
	closers    []func()
}

func (b *backends) sink() audit.Sink {
	if len(b.forwarders) == 0 {
		return nil
	}
	fanout := make(forwarder.Fanout, 0, len(b.forwarders))
	for _, f := range b.forwarders {
		fanout = append(fanout, f)
	}
	return fanout
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func (b *backends) add(f *forwarder.Forwarder, check func(context.Context) error, closer func()) {
	b.forwarders = append(b.forwarders, f)
	b.closers = append(b.closers, closer)
	b.health = append(b.health,
		httptransport.HealthCheck{Name: f.Name(), Check: check},
		httptransport.HealthCheck{Name: f.Name() + "_circuit", Check: breakerCheck(f.Breaker())},
	)
}

// openSinks connects every configured backend. Unconfigured backends are
// skipped; a configured backend that cannot be reached fails startup.
func openSinks(ctx context.Context, cfg config.Config, registry *audit.Registry, reg prometheus.Registerer, log *slog.Logger) (*backends, error) {
	b := &backends{}
	fwdMetrics := forwarder.NewMetrics(reg)
	sampler := forwarder.NewSampler(cfg.Audit.SampleRate)

	newForwarder := func(name string, sink audit.Sink) *forwarder.Forwarder {
		log.Info("audit sink enabled", "sink", name)
		return forwarder.New(name, sink,
			forwarder.WithSampler(sampler),
			forwarder.WithBreaker(circuit.New(name)),
			forwarder.WithMetrics(fwdMetrics),
			forwarder.WithLogger(log),
		)
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if db != nil {
		store := pgstore.New(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate audit archive: %w", err)
		}
		b.add(newForwarder("archive", store), db.PingContext, closeDB(db, log))
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		b.close()
		return nil, err
	}
	if rdb != nil {
		store := redisstore.New(rdb, registry.Capacity)
		b.add(newForwarder("mirror", store), rdb.Health, func() {
			if err := rdb.Close(); err != nil {
				log.Warn("close redis", "error", err)
			}
		})
	}

	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafkastream.NewClient(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			b.close()
			return nil, err
		}
		if err := kafkastream.EnsureTopic(ctx, kadm.NewClient(client), cfg.Kafka.Topic, topicPartitions, topicReplication); err != nil {
			client.Close()
			b.close()
			return nil, err
		}
		b.add(newForwarder("stream", kafkastream.New(client, cfg.Kafka.Topic)), client.Ping, closeKafka(client))
	}

	return b, nil
}

func breakerCheck(br *circuit.Breaker) func(context.Context) error {
	return func(context.Context) error {
		if br != nil && br.IsOpen() {
			return fmt.Errorf("circuit %s is open", br.Name())
		}
		return nil
	}
}

func closeDB(db *sql.DB, log *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("close postgres", "error", err)
		}
	}
}

func closeKafka(client *kgo.Client) func() {
	return func() {
		client.Flush(context.Background())
		client.Close()
	}
}
