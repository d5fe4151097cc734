package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/flourish-bakery/api/internal/catalog"
	"github.com/flourish-bakery/api/internal/handlers"
	"github.com/flourish-bakery/api/internal/platform/config"
	"github.com/flourish-bakery/api/internal/platform/observability"
	"github.com/flourish-bakery/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(startedAt)

	var source catalog.Source
	if path := strings.TrimSpace(cfg.Catalog.FilePath); path != "" {
		fileSource, err := catalog.NewFileSource(path)
		if err != nil {
			logger.Fatal("failed to initialise catalog file source", zap.Error(err))
		}
		source = fileSource
		logger.Info("catalog loading from file", zap.String("path", path))
	} else {
		source = catalog.NewStaticSource()
		logger.Info("catalog loading built-in sample data")
	}

	pricingEngine := services.NewPricingEngine(services.PricingEngineDeps{
		Logger: zapEventLogger(logger.Named("pricing")),
	})

	validator := services.NewOrderValidator(services.OrderValidatorDeps{
		Now: time.Now,
	})

	catalogService, err := services.NewCatalogService(ctx, services.CatalogServiceDeps{
		Source:  source,
		Pricing: pricingEngine,
		Logger:  zapEventLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	orderHandlers := handlers.NewOrderHandlers(validator, pricingEngine,
		handlers.WithOrderRateLimit(120, time.Minute),
	)
	catalogHandlers := handlers.NewCatalogHandlers(catalogService, pricingEngine)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthReadinessChecks(handlers.ReadinessCheck{
			Name: "catalog",
			Probe: func(ctx context.Context) error {
				_, err := catalogService.ListProducts(ctx)
				return err
			},
		}),
	)

	projectID := strings.TrimSpace(cfg.Observability.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
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
		serverLogger.Info("flourish bakery api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("API_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(os.Getenv("API_ENVIRONMENT"))
	if environment == "" {
		environment = "local"
	}
	return handlers.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func zapEventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service event", zFields...)
	}
}
