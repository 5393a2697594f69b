package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/events"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/repository"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "Server error", log.FieldError, err, "port", cfg.Port)
		stop()
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend config: %w", err)
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if be.Cleanup == nil {
			return
		}
		if err := be.Cleanup(); err != nil {
			logger.WarnContext(context.Background(), "Backend cleanup failed", log.FieldError, err)
		}
	}()

	repo := repository.New(be.Store)
	cur := currency.NewService(ctx, nil, repo, core.Currency(cfg.DefaultCurrency))

	var notifier events.Notifier = events.Nop{}
	if be.Publisher != nil {
		cur.Subscribe(be.Publisher)
		notifier = be.Publisher
	}

	txns := services.NewTransactionService(repo, notifier)
	budgets := services.NewBudgetService(repo, notifier)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:       txns,
		Budgets:            budgets,
		Stats:              services.NewStatsService(txns, budgets, cur),
		Currency:           cur,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting fintrack server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			log.FieldCurrency, string(cur.Current()),
			"change_feed", be.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(context.Background(), "Shutting down server",
			log.FieldOperation, log.OpShutdown,
			"timeout", cfg.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
