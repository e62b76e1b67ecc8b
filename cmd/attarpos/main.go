package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/attarpos/attarpos/internal/app"
	"github.com/attarpos/attarpos/internal/auth"
	"github.com/attarpos/attarpos/internal/inventory"
	"github.com/attarpos/attarpos/internal/invoicing"
	"github.com/attarpos/attarpos/internal/observability"
	"github.com/attarpos/attarpos/internal/platform/cache"
	"github.com/attarpos/attarpos/internal/platform/db"
	"github.com/attarpos/attarpos/internal/sales"
	"github.com/attarpos/attarpos/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	tokens := auth.NewTokenManager(redisClient, cfg.TokenTTL)
	authMiddleware := auth.Middleware{Tokens: tokens, Logger: logger}
	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, tokens, authMiddleware)

	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, authMiddleware)

	invoiceService := invoicing.NewService(invoicing.NewRepository(pool))

	salesService := sales.NewService(
		sales.NewRepository(pool),
		auditLogger,
		sales.NewSummaryCache(redisClient),
		metrics,
	)
	salesHandler := sales.NewHandler(logger, salesService, invoiceService, authMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		InventoryHandler: inventoryHandler,
		SalesHandler:     salesHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
