package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/corporate-ledger/api"
	"github.com/josh-kwaku/corporate-ledger/internal/auth"
	"github.com/josh-kwaku/corporate-ledger/internal/config"
	"github.com/josh-kwaku/corporate-ledger/internal/events"
	"github.com/josh-kwaku/corporate-ledger/internal/fx"
	"github.com/josh-kwaku/corporate-ledger/internal/handler"
	"github.com/josh-kwaku/corporate-ledger/internal/lock"
	"github.com/josh-kwaku/corporate-ledger/internal/logging"
	"github.com/josh-kwaku/corporate-ledger/internal/middleware"
	"github.com/josh-kwaku/corporate-ledger/internal/outbox"
	"github.com/josh-kwaku/corporate-ledger/internal/service"
	"github.com/josh-kwaku/corporate-ledger/internal/validation"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init("corporate-ledger", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.close(context.Background()); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	registry, err := validation.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("load validation schemas: %w", err)
	}
	slog.Info("validation schemas loaded", "version", registry.Version())

	checks := map[string]handler.Pinger{"database": store.ping}

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		client, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		opts := lock.DefaultRedisOptions()
		opts.Expiry = cfg.LockExpiry
		locker = lock.NewRedisLocker(client, "corporate-ledger:", opts)
		checks["redis"] = redisPing(client)
		slog.Info("using redis account locks", "addr", cfg.RedisAddr)
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaLedgerTopic, logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close publisher", "error", err)
		}
	}()

	rates := fx.NewRateTable()
	balanceSvc := service.NewBalanceService(store.accounts, store.ledger, store.executor, registry, rates, locker, cfg.LedgerMaxRetries)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	accountSvc := service.NewAccountService(store.accounts, registry, tokens, service.AccountConfig{
		DefaultMaxCredit: cfg.DefaultMaxCredit,
	})
	provider := auth.NewProvider(store.accounts, tokens)

	relay := outbox.NewRelay(store.outbox, publisher, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relay.Start(ctx)
	}()

	if store.sweep != nil {
		go sweepIdempotency(ctx, store.sweep, time.Hour)
	}

	balanceH := handler.NewBalanceHandler(balanceSvc)
	accountH := handler.NewAccountHandler(accountSvc)
	authH := handler.NewAuthHandler(accountSvc)
	healthH := handler.NewHealthHandler(checks)
	fxH := handler.NewFXHandler(rates)
	docsH := handler.NewDocsHandler("Corporate Ledger API", api.OpenAPISpec)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(provider)(middleware.Idempotency(store.idempotency, locker)(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", healthH.Liveness)
	mux.HandleFunc("GET /health/ready", healthH.Readiness)
	mux.HandleFunc("GET /docs", docsH.UI)
	mux.HandleFunc("GET "+docsH.SpecPath(), docsH.Spec)
	mux.HandleFunc("GET /api/v1/fx/rates", fxH.ListRates)

	mux.HandleFunc("POST /api/v1/accounts", accountH.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)

	mux.Handle("GET /api/v1/accounts/{id}", authed(accountH.Get))
	mux.Handle("POST /api/v1/accounts/{id}/balance/increase", authed(balanceH.Increase))
	mux.Handle("POST /api/v1/accounts/{id}/balance/use", authed(balanceH.Use))
	mux.Handle("GET /api/v1/accounts/{id}/balance/history", authed(balanceH.History))

	mux.Handle("GET /api/v1/admin/accounts", authed(accountH.List))
	mux.Handle("GET /api/v1/admin/accounts/{id}", authed(accountH.Get))
	mux.Handle("PATCH /api/v1/admin/accounts/{id}", authed(accountH.Update))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.RequestID(middleware.Logging(middleware.Recovery(mux))),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-relayDone
	slog.Info("server stopped")
	return nil
}

func redisPing(client *redis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func sweepIdempotency(ctx context.Context, sweep func(context.Context) (int64, error), every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweep(ctx)
			if err != nil {
				slog.Error("failed to delete expired idempotency records", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired idempotency records deleted", "count", n)
			}
		}
	}
}
