// @title        Twin API
// @version      1.0
// @description  Session and identity service for the Twin mini app.
// @BasePath     /
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

	"github.com/rs/zerolog"

	"github.com/twinmarket/twin-api/internal/api"
	"github.com/twinmarket/twin-api/internal/api/handler"
	"github.com/twinmarket/twin-api/internal/api/metrics"
	"github.com/twinmarket/twin-api/internal/core/ports"
	"github.com/twinmarket/twin-api/internal/core/service"
	"github.com/twinmarket/twin-api/internal/infrastructure/config"
	mongostore "github.com/twinmarket/twin-api/internal/infrastructure/db/mongo"
	pgstore "github.com/twinmarket/twin-api/internal/infrastructure/db/postgres"
	redisstore "github.com/twinmarket/twin-api/internal/infrastructure/db/redis"
	"github.com/twinmarket/twin-api/internal/infrastructure/ens"
	"github.com/twinmarket/twin-api/internal/infrastructure/farcaster"
	"github.com/twinmarket/twin-api/internal/infrastructure/queue"
	"github.com/twinmarket/twin-api/internal/infrastructure/tracing"
	"github.com/twinmarket/twin-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "twin-api",
		Env:     cfg.Env,
	})

	shutdownTracing, err := tracing.Setup(ctx, "twin-api", cfg.Env, cfg.TraceEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	readiness := map[string]handler.Pinger{}
	repo, closeStore, err := openStore(ctx, cfg, readiness)
	if err != nil {
		return err
	}
	defer closeStore()

	var dedup handler.Deduplicator
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, webhook deduplication disabled")
	} else {
		defer rdb.Close()
		dedup = redisstore.NewDedupChecker(rdb)
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	httpClient := farcaster.NewHTTPClient()
	profiles := farcaster.NewNeynarClient(cfg.Farcaster.NeynarAPIURL, cfg.Farcaster.NeynarAPIKey, httpClient)
	quickAuth := farcaster.NewQuickAuthClient(cfg.Farcaster.QuickAuthURL, cfg.AppDomain, httpClient)
	hub := farcaster.NewHubClient(cfg.Farcaster.NeynarHubURL, cfg.Farcaster.NeynarAPIKey, httpClient)
	notifier := metrics.InstrumentNotifier(farcaster.NewNotifier(httpClient))

	ensRegistry, baseRegistry := nameRegistries(ctx, cfg, log)

	policy := service.NewAccessPolicy(cfg.Env, cfg.AdminFIDs)
	codec := service.NewTokenCodec(cfg.JWTSecret)

	names := service.NewNameService(repo, ensRegistry, baseRegistry, logger.Component("names"))
	dispatcher := queue.NewDispatcher(cfg.NameWorkers, names, logger.Component("queue"),
		queue.WithObserver(metrics.ObserveNameResolution))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	resolver := service.NewPrincipalResolver(repo, profiles, dispatcher, logger.Component("resolver"))
	sessions := service.NewSessionService(
		service.NewFarcasterVerifier(quickAuth, policy),
		service.NewWalletVerifier(),
		resolver,
		profiles,
		codec,
		logger.Component("sessions"),
	)
	webhooks := service.NewWebhookService(resolver, repo, notifier, cfg.AppURL, logger.Component("webhook"))

	var origins []string
	if cfg.AppURL != "" {
		origins = []string{cfg.AppURL}
	}

	e := api.NewRouter(api.Dependencies{
		Sessions:      sessions,
		Authenticator: service.NewAuthenticator(repo, policy),
		Codec:         codec,
		Policy:        policy,
		Webhooks:      webhooks,
		Verifier:      farcaster.NewWebhookVerifier(hub),
		Dedup:         dedup,
		Readiness:     readiness,
		AllowOrigins:  origins,
		Log:           logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stopWorkers()
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// openStore connects the configured principal store and registers its
// readiness probe.
func openStore(ctx context.Context, cfg *config.Config, readiness map[string]handler.Pinger) (ports.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := pgstore.Open(ctx, cfg.Postgres.DSN, logger.Component("gorm"))
		if err != nil {
			return nil, nil, err
		}
		if err := pgstore.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		readiness["postgres"] = sqlDB.PingContext
		return pgstore.NewUserRepository(db), func() { _ = sqlDB.Close() }, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		readiness["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil
	}
}

// nameRegistries dials the configured chains. A chain without an RPC URL, or
// one that cannot be reached, leaves its registry disabled.
func nameRegistries(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.NameRegistry, ports.NameRegistry) {
	var ensRegistry, baseRegistry ports.NameRegistry

	if cfg.Chain.EthereumRPC != "" {
		client, err := ens.Dial(ctx, cfg.Chain.EthereumRPC)
		if err != nil {
			log.Warn().Err(err).Msg("ens registry disabled")
		} else {
			ensRegistry = ens.NewENS(client)
		}
	}
	if cfg.Chain.BaseRPC != "" {
		client, err := ens.Dial(ctx, cfg.Chain.BaseRPC)
		if err != nil {
			log.Warn().Err(err).Msg("basename registry disabled")
		} else {
			baseRegistry = ens.NewBasename(client)
		}
	}
	return ensRegistry, baseRegistry
}
