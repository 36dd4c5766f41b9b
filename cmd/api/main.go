package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/borobepari/marketplace-api/internal/di"
	"github.com/borobepari/marketplace-api/internal/handlers"
	"github.com/borobepari/marketplace-api/internal/platform/auth"
	"github.com/borobepari/marketplace-api/internal/platform/config"
	"github.com/borobepari/marketplace-api/internal/platform/idempotency"
	"github.com/borobepari/marketplace-api/internal/platform/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to build dependencies", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("dependency close error", zap.Error(err))
		}
	}()

	adminHandlers := handlers.NewAdminOrderHandlers(container.Services.Statuses, container.Services.Queries)
	supplierHandlers := handlers.NewSupplierOrderHandlers(container.Services.Statuses, container.Services.Queries)

	healthHandlers := handlers.NewHealthHandlers(map[string]handlers.ReadinessCheck{
		"postgres": func(ctx context.Context) error {
			return container.DB.Ping(ctx)
		},
		"redis": func(ctx context.Context) error {
			return container.Redis.Ping(ctx).Err()
		},
	})

	authMiddleware := auth.Middleware(container.Verifier)
	idempotencyMiddleware := idempotency.Middleware(
		container.IdempotencyStore,
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger.Named("http")),
			observability.TraceMiddleware(),
			observability.RecoveryMiddleware(logger.Named("http")),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithAdminMiddlewares(authMiddleware, auth.RequireRole(auth.RoleOperator), idempotencyMiddleware),
		handlers.WithAdminRoutes(adminHandlers.Routes),
		handlers.WithSupplierMiddlewares(authMiddleware, auth.RequireRole(auth.RoleSupplier), idempotencyMiddleware),
		handlers.WithSupplierRoutes(supplierHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("marketplace api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
