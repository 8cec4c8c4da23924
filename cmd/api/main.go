package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/angelmondragon/storedash-backend/api/middleware"
	"github.com/angelmondragon/storedash-backend/api/routes"
	"github.com/angelmondragon/storedash-backend/internal/auth"
	"github.com/angelmondragon/storedash-backend/internal/categories"
	"github.com/angelmondragon/storedash-backend/internal/dashboard"
	"github.com/angelmondragon/storedash-backend/internal/integrity"
	"github.com/angelmondragon/storedash-backend/internal/orders"
	"github.com/angelmondragon/storedash-backend/internal/products"
	"github.com/angelmondragon/storedash-backend/internal/stores"
	"github.com/angelmondragon/storedash-backend/internal/users"
	"github.com/angelmondragon/storedash-backend/pkg/auth/session"
	"github.com/angelmondragon/storedash-backend/pkg/config"
	"github.com/angelmondragon/storedash-backend/pkg/db"
	"github.com/angelmondragon/storedash-backend/pkg/logger"
	"github.com/angelmondragon/storedash-backend/pkg/metrics"
	"github.com/angelmondragon/storedash-backend/pkg/migrate"
	"github.com/angelmondragon/storedash-backend/pkg/oauth/google"
	"github.com/angelmondragon/storedash-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if cfg.App.IsProd() && cfg.FeatureFlags.AutoMigrate {
		logg.Warn(bootCtx, "STOREDASH_AUTO_MIGRATE is ignored outside dev; run cmd/migrate instead")
	}
	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := metrics.NewDomainMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	googleClient, err := google.New(cfg.Google)
	if err != nil {
		return err
	}

	usersRepo := users.NewRepository(dbClient.DB())
	storesRepo := stores.NewRepository(dbClient.DB())
	categoryRepo := categories.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	provisioner, err := auth.NewProvisioner(dbClient, usersRepo, storesRepo, domainMetrics, logg)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Provider:       googleClient,
		States:         redisClient,
		Provisioner:    provisioner,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		StateTTL:       cfg.Google.StateTTL,
		Metrics:        domainMetrics,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	resolver, err := auth.NewResolver(middleware.ClaimsSessionProvider{}, storesRepo)
	if err != nil {
		return err
	}

	guard, err := integrity.NewGuard(dbClient, domainMetrics, logg)
	if err != nil {
		return err
	}
	categoryService, err := categories.NewService(categoryRepo, guard)
	if err != nil {
		return err
	}
	productService, err := products.NewService(productRepo, categoryRepo, guard)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orderRepo, productRepo, dbClient)
	if err != nil {
		return err
	}
	dashboardService, err := dashboard.NewService(categoryRepo, productRepo, orderRepo)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": cfg.DB.Driver,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			resolver,
			authService,
			categoryService,
			productService,
			orderService,
			dashboardService,
			httpMetrics,
			registry,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
