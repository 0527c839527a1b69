package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	audithandler "pawtrail/internal/audit/handler"
	"pawtrail/internal/currency"
	currencyhandler "pawtrail/internal/currency/handler"
	"pawtrail/internal/featureflags"
	flagshandler "pawtrail/internal/featureflags/handler"
	"pawtrail/internal/platform/config"
	"pawtrail/internal/platform/httpserver"
	"pawtrail/internal/platform/logger"
	"pawtrail/internal/platform/metrics"
	"pawtrail/internal/stringutils"
	stringshandler "pawtrail/internal/stringutils/handler"
	httptransport "pawtrail/internal/transport/http"
	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/audit/publisher"
)

var defaultFlags = map[string]bool{
	"online_booking":    true,
	"spotlight_index":   true,
	"sms_reminders":     false,
	"loyalty_discounts": false,
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Domain logic lives in internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pawtrail: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(reg)

	registry := audit.NewRegistry(cfg.Audit.DefaultCapacity,
		audit.WithCapacities(cfg.Audit.Capacities),
		audit.WithObserverFactory(appMetrics.ObserverFor),
	)

	targets, err := openSinks(ctx, cfg, registry, reg, log)
	if err != nil {
		return err
	}
	defer targets.close()

	pubOpts := []publisher.Option{publisher.WithLogger(log)}
	if sink := targets.sink(); sink != nil {
		pubOpts = append(pubOpts,
			publisher.WithSink(sink),
			publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
			publisher.WithWriteTimeout(cfg.Audit.ForwardTimeout),
		)
	}
	pub := publisher.NewPublisher(registry, pubOpts...)
	appMetrics.RegisterPublisher(pub)

	flags := featureflags.New(defaultFlags, pub, featureflags.WithLogger(log))
	formatter, err := currency.New("en-US", pub, currency.WithLogger(log))
	if err != nil {
		return err
	}

	transformer := stringutils.New(pub, stringutils.WithLogger(log))

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Latency:  appMetrics,
		Gatherer: reg,
		Health:   targets.health,
		Routes: []httptransport.Registrar{
			audithandler.New(pub, log, cfg.Server.AdminAPIToken),
			flagshandler.New(flags, log, cfg.Server.AdminAPIToken),
			currencyhandler.New(formatter),
			stringshandler.New(transformer),
		},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting pawtrail", "addr", cfg.Server.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		pub.Close()
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("audit forwarding drained",
			"dropped", pub.Dropped(),
			"failed", pub.Failed(),
		)
		return nil
	})
	return g.Wait()
}
