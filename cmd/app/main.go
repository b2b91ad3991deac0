// File: cmd/app/main.go
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

	"golang.org/x/sync/errgroup"

	"egas-delivery/internal/config"
	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/adapter"
	"egas-delivery/internal/domain/ports/repository"
	pg "egas-delivery/internal/infra/db/postgres"
	"egas-delivery/internal/infra/logging"
	"egas-delivery/internal/infra/metrics"
	red "egas-delivery/internal/infra/redis"
	"egas-delivery/internal/infra/sched"
	"egas-delivery/internal/infra/web"
	"egas-delivery/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfg, err := config.FromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("development mode enabled")
	}

	if cfg.Metrics.Enabled {
		metrics.MustRegister()
		metrics.SetBuildInfo(version, commit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional) ----
	var (
		locker  adapter.Locker
		limiter adapter.RateLimiter
	)
	products := repository.ProductRepository(pg.NewPostgresProductRepo(pool))
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; running without cache, lock and rate limit")
		} else {
			defer rc.Close()
			locker = red.NewLocker(rc)
			limiter = red.NewRateLimiter(rc)
			products = pg.NewProductRepoCacheDecorator(products, rc, cfg.Redis.TTL)
		}
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	users := pg.NewPostgresUserRepo(pool)
	subs := pg.NewPostgresSubscriptionRepo(pool)
	orders := pg.NewPostgresOrderRepo(pool)
	payments := pg.NewPostgresPaymentRepo(pool)
	tickets := pg.NewPostgresSupportTicketRepo(pool)

	// ---- Use cases ----
	policy, err := model.ParseSchedulePolicy(cfg.Billing.ScheduleAnchor)
	if err != nil {
		logger.Fatal().Err(err).Msg("billing policy")
	}
	billingUC := usecase.NewBillingUseCase(subs, products, users, orders, tm, locker, usecase.BillingOptions{
		Policy:      policy,
		Concurrency: cfg.Billing.Concurrency,
		BatchLimit:  cfg.Billing.BatchLimit,
		LockTTL:     cfg.Billing.LockTTL,
	}, logger)
	statsUC := usecase.NewStatsUseCase(users, subs, orders, payments, tickets, logger)

	svc := web.Services{
		Users: usecase.NewUserUseCase(users, tm, limiter, usecase.LoginPolicy{
			MaxAttempts:  cfg.Auth.MaxLoginAttempts,
			LockDuration: cfg.Auth.LockDuration,
			RateLimit:    cfg.Auth.LoginRateLimit,
			RateWindow:   cfg.Auth.LoginRateWindow,
		}, cfg.Runtime.Dev, logger),
		Products:      usecase.NewProductUseCase(products, logger),
		Orders:        usecase.NewOrderUseCase(orders, products, users, tm, cfg.Delivery.ExpressFee, logger),
		Subscriptions: usecase.NewSubscriptionUseCase(subs, products, tm, logger),
		Billing:       billingUC,
		Payments:      usecase.NewPaymentUseCase(payments, users, orders, tm, logger),
		Support:       usecase.NewSupportUseCase(tickets, tm, logger),
		Staff:         usecase.NewStaffUseCase(orders, tickets, logger),
		Stats:         statsUC,
	}

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, !cfg.Runtime.Dev, cfg.Auth.TokenTTL)
	opts := web.Options{
		StaticDir:      cfg.HTTP.StaticDir,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		Dev:            cfg.Runtime.Dev,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           web.NewServer(svc, auth, opts, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// ---- Workers ----
	if cfg.Billing.Enabled {
		worker := sched.NewBillingWorker(cfg.Billing.Interval, billingUC, logger)
		g.Go(func() error { return worker.Run(gctx) })
	}
	if cfg.Metrics.Enabled {
		sw := sched.NewStatsWorker(time.Minute, statsUC, pool, logger)
		g.Go(func() error { return sw.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("shutdown with error")
		return
	}
	logger.Info().Msg("shutdown complete")
}
