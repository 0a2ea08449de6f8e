package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/servicelane/servicelane-backend/api/routes"
	"github.com/servicelane/servicelane-backend/internal/audit"
	"github.com/servicelane/servicelane-backend/internal/branches"
	"github.com/servicelane/servicelane-backend/internal/catalog"
	"github.com/servicelane/servicelane-backend/internal/customers"
	"github.com/servicelane/servicelane-backend/internal/joborders"
	"github.com/servicelane/servicelane-backend/internal/pricing"
	"github.com/servicelane/servicelane-backend/internal/vehicles"
	"github.com/servicelane/servicelane-backend/pkg/config"
	"github.com/servicelane/servicelane-backend/pkg/db"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/metrics"
	"github.com/servicelane/servicelane-backend/pkg/migrate"
	"github.com/servicelane/servicelane-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	auditMetrics := metrics.NewAuditMetrics(registry)

	auditRepo := audit.NewRepository(dbClient.DB())
	auditRecorder, err := audit.NewRecorder(auditRepo, logg, auditMetrics, cfg.Audit)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Audit.DrainTimeout)
		defer cancel()
		if err := auditRecorder.Close(drainCtx); err != nil {
			logg.Error(context.Background(), "error draining audit recorder", err)
		}
	}()

	branchService, err := branches.NewService(branches.NewRepository(dbClient.DB()), auditRecorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create branch service", err)
		os.Exit(1)
	}

	customerRepo := customers.NewRepository(dbClient.DB())
	customerService, err := customers.NewService(customerRepo, auditRecorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	vehicleRepo := vehicles.NewRepository(dbClient.DB())
	vehicleService, err := vehicles.NewService(vehicleRepo, customerRepo, auditRecorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create vehicle service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, auditRecorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	pricingRepo := pricing.NewRepository(dbClient.DB())
	priceResolver, err := pricing.NewResolver(pricingRepo, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create price resolver", err)
		os.Exit(1)
	}
	pricingService, err := pricing.NewService(pricingRepo, priceResolver, auditRecorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	jobOrderService, err := joborders.NewService(
		joborders.NewRepository(dbClient.DB()),
		dbClient,
		priceResolver,
		customerRepo,
		vehicleRepo,
		auditRecorder,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create job order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			auditRepo,
			branchService,
			customerService,
			vehicleService,
			catalogService,
			pricingService,
			jobOrderService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(stopCtx); err != nil {
			logg.Error(ctx, "error shutting down api server", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
