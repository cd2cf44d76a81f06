package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tablekeep/internal/caching"
	"tablekeep/internal/common"
	"tablekeep/internal/config"
	"tablekeep/internal/handlers"
	"tablekeep/internal/jobs"
	"tablekeep/internal/locking"
	"tablekeep/internal/logger"
	"tablekeep/internal/metrics"
	"tablekeep/internal/middleware"
	"tablekeep/internal/repositories"
	"tablekeep/internal/services"
	"tablekeep/pkg/database"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Server.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (err error) {
	pool, err := database.NewPool(ctx, database.Config{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { err = multierr.Append(err, redisClient.Close()) }()
	if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
		if cfg.Admission.LockBackend == config.LockBackendRedis {
			return fmt.Errorf("redis is required for the %s lock backend: %w", config.LockBackendRedis, pingErr)
		}
		zlog.Warn("redis unavailable, public tenant lookups will not be cached", zap.Error(pingErr))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var locker locking.KeyedLocker
	switch cfg.Admission.LockBackend {
	case config.LockBackendRedis:
		locker = locking.NewRedisLocker(redisClient, cfg.Admission.LockTTL, cfg.Admission.LockTimeout)
	default:
		locker = locking.NewMemoryLocker(cfg.Admission.LockTimeout)
	}
	zlog.Info("admission lock backend selected", zap.String("backend", cfg.Admission.LockBackend))

	tenantCache := caching.NewRedisTenantCache(redisClient, cfg.Tenancy.CacheTTL)

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	staffRepo := repositories.NewStaffAssignmentRepo(pool)
	settingsRepo := repositories.NewReservationSettingsRepo(pool)
	reservationRepo := repositories.NewReservationRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	auditService := services.NewAuditService(auditRepo)
	authorizer := services.NewRoleAuthorizer(auditService, m)
	resolver := services.NewTenantResolver(tenantRepo, staffRepo, tenantCache)
	admission := services.NewAdmissionService(reservationRepo, settingsRepo, locker, authorizer, auditService, m,
		services.AdmissionOptions{NearCapacityRatio: cfg.Admission.NearCapacityRatio})
	reservations := services.NewReservationService(reservationRepo, authorizer)
	catalog := services.NewCatalog(
		repositories.NewCategoryRepo(pool),
		repositories.NewIngredientRepo(pool),
		repositories.NewRecipeRepo(pool),
		repositories.NewMenuItemRepo(pool),
	)

	verifier, err := newVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}
	defer verifier.Close()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = common.NewHTTPErrorHandler(e)
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware(zlog))
	e.Use(m.Middleware())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	router := &handlers.Router{
		Verifier:     verifier,
		Tenants:      middleware.NewTenantMiddleware(resolver, cfg.Tenancy.Header, cfg.Tenancy.BaseDomain),
		Authz:        middleware.NewAuthorizationMiddleware(authorizer),
		Health:       handlers.NewHealthHandlers(pool, handlers.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })),
		Tenant:       handlers.NewTenantHandlers(services.NewTenantService(tenantRepo, tenantCache, auditService)),
		Settings:     handlers.NewSettingsHandlers(services.NewSettingsService(settingsRepo, auditService)),
		Staff:        handlers.NewStaffHandlers(services.NewStaffService(staffRepo, authorizer, auditService)),
		Reservations: handlers.NewReservationHandlers(admission, reservations),
		Public:       handlers.NewPublicHandlers(catalog, admission, reservations),
		Audit:        handlers.NewAuditHandlers(auditService),
		Catalog:      catalog,
	}
	router.Register(e)

	scheduler, err := jobs.NewScheduler(reservationRepo, cfg.Jobs.LifecycleSweepInterval, zlog)
	if err != nil {
		return err
	}
	scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		zlog.Info("starting server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		zlog.Info("shutdown signal received")
	case err = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return multierr.Combine(
		err,
		e.Shutdown(shutdownCtx),
		scheduler.Stop(),
	)
}

func newVerifier(ctx context.Context, cfg config.AuthConfig) (*middleware.TokenVerifier, error) {
	if cfg.JWKSURL != "" {
		return middleware.NewJWKSVerifier(ctx, cfg.JWKSURL)
	}
	return middleware.NewHMACVerifier(cfg.JWTSecret), nil
}
