package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"clanhub/internal/clan"
	"clanhub/internal/clan/events"
	clanmetrics "clanhub/internal/clan/metrics"
	"clanhub/internal/clan/service"
	"clanhub/internal/clan/store"
	"clanhub/internal/clan/store/cache"
	httpapi "clanhub/internal/http"
	"clanhub/internal/platform/config"
	"clanhub/internal/platform/database"
	"clanhub/internal/platform/httpserver"
	"clanhub/internal/platform/logger"
	"clanhub/internal/platform/metrics"
	"clanhub/internal/platform/redis"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Connects to the database, applies the schema if enabled, and serves the clan API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, log, flush, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = flush() }()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := store.EnsureSchema(ctx, db); err != nil {
			return err
		}
		log.InfoContext(ctx, "schema ensured")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "clanhub"),
	)
	clanMetrics := clanmetrics.New(reg)

	app, cleanup, err := wireClan(ctx, cfg, db, log, clanMetrics)
	if err != nil {
		return err
	}
	defer cleanup()

	router := httpapi.NewRouter(httpapi.Dependencies{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		Checks:         app.checks,
		Modules:        []httpapi.Registrar{clan.NewHandler(app.service, log)},
	})
	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting clanhub", "addr", cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

type clanApp struct {
	service *clan.Service
	checks  map[string]httpapi.Pinger
}

// wireClan builds the clan service over Postgres, layering the optional Redis
// cache and Kafka publisher when configured.
func wireClan(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger, m *clanmetrics.Metrics) (*clanApp, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	pg := store.NewPostgres(db)
	var backend service.Store = pg
	checks := map[string]httpapi.Pinger{"database": pg}

	if cfg.CacheEnabled() {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = rc.Close() })
		cached := cache.NewRedisCache(backend, rc.Client, cfg.Redis.CacheTTL,
			cache.WithLogger(log),
			cache.WithMetrics(m),
		)
		backend = cached
		checks["redis"] = cached
		log.InfoContext(ctx, "redis cache enabled", "ttl", cfg.Redis.CacheTTL.String())
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
	}
	if cfg.EventsEnabled() {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, events.WithLogger(log))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, pub.Close)
		if err := pub.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, service.WithEventPublisher(pub))
		checks["kafka"] = pub
		log.InfoContext(ctx, "clan events enabled", "topic", cfg.Kafka.Topic)
	}

	return &clanApp{
		service: clan.NewService(backend, opts...),
		checks:  checks,
	}, cleanup, nil
}

// bootstrap loads configuration and builds the logger.
func bootstrap() (config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, flush, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	slog.SetDefault(log)
	return cfg, log, flush, nil
}
