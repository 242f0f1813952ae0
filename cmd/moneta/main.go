package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/moneta-app/moneta/internal/app"
	"github.com/moneta-app/moneta/internal/fx"
	"github.com/moneta-app/moneta/internal/ledger"
	"github.com/moneta-app/moneta/internal/ledger/accounts"
	"github.com/moneta-app/moneta/internal/ledger/currencies"
	"github.com/moneta-app/moneta/internal/ledger/lifecycle"
	"github.com/moneta-app/moneta/internal/ledger/tags"
	"github.com/moneta-app/moneta/internal/ledger/transactions"
	"github.com/moneta-app/moneta/internal/ledger/transfers"
	"github.com/moneta-app/moneta/internal/observability"
	"github.com/moneta-app/moneta/internal/platform/cache"
	"github.com/moneta-app/moneta/internal/platform/db"
	"github.com/moneta-app/moneta/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := ledger.EnsureReferenceData(ctx, pool); err != nil {
		logger.Error("verify reference data", slog.Any("error", err))
		os.Exit(1)
	}

	var rateCache *fx.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, rate caching disabled", slog.Any("error", err))
	} else {
		rateCache = fx.NewCache(redisClient, cfg.FXCacheTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	repo := ledger.NewRepository(pool)

	rates := fx.NewClient(cfg.ExchangeRateURL, cfg.ExchangeTimeout, rateCache)

	accountsService := accounts.NewService(logger, repo)
	transactionsService := transactions.NewService(repo)
	transfersService := transfers.NewService(repo, rates)
	creditsService := lifecycle.NewService(repo, lifecycle.Credit)
	depositsService := lifecycle.NewService(repo, lifecycle.Deposit)
	tagsService := tags.NewService(repo)
	currenciesService := currencies.NewService(repo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AccountsHandler:     accounts.NewHandler(logger, accountsService),
		TransactionsHandler: transactions.NewHandler(logger, transactionsService),
		TransfersHandler:    transfers.NewHandler(logger, transfersService),
		CreditsHandler:      lifecycle.NewHandler(logger, creditsService),
		DepositsHandler:     lifecycle.NewHandler(logger, depositsService),
		TagsHandler:         tags.NewHandler(logger, tagsService),
		CurrenciesHandler:   currencies.NewHandler(logger, currenciesService),
		JobsHandler:         jobs.NewHandler(inspector, logger),
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
