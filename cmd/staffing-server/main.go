package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/staffing/pkg/accounts"
	"github.com/platinummonkey/staffing/pkg/api"
	"github.com/platinummonkey/staffing/pkg/async"
	"github.com/platinummonkey/staffing/pkg/audit"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/config"
	"github.com/platinummonkey/staffing/pkg/httputil"
	"github.com/platinummonkey/staffing/pkg/middleware"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/staff"
	"github.com/platinummonkey/staffing/pkg/storage/postgres"
	"github.com/platinummonkey/staffing/pkg/teams"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	agencyCacheSize = 256
	agencyCacheTTL  = 5 * time.Minute
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "Apply database migrations and exit")
	flag.Parse()

	if err := run(*migrateOnly); err != nil {
		log.Fatalf("staffing-server: %v", err)
	}
}

func run(migrateOnly bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", cfg.Observability.OTelServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("Tracing unavailable, continuing without it")
		tp = nil
	}

	conns, err := postgres.NewConnectionManager(postgres.ConnectionConfigFrom(cfg.Database), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.MigrateOnRun || migrateOnly {
		if err := postgres.RunMigrations(ctx, conns.Primary(), logger); err != nil {
			conns.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	if migrateOnly {
		return conns.Close()
	}

	var registry *prometheus.Registry
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(registry)
	}
	conns.StartHealthCheckRoutine(ctx, 30*time.Second, metrics)

	limitConfig := &middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		WindowDuration:    cfg.RateLimit.Window,
		BurstSize:         cfg.RateLimit.Burst,
	}

	var redisClient *redis.Client
	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		if cfg.Redis.URL != "" {
			redisClient, err = postgres.NewRedisClient(ctx, cfg.Redis)
			if err != nil {
				conns.Close()
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			limiter = middleware.NewDistributedRateLimiter(redisClient, limitConfig, "staffing:login")
			logger.Info("Login rate limit shared through redis")
		} else {
			local := middleware.NewRateLimiter(limitConfig)
			local.StartCleanup(ctx, 5*time.Minute, logger)
			limiter = local
		}
	}

	issuer, err := auth.NewSessionIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL)
	if err != nil {
		conns.Close()
		return fmt.Errorf("failed to create session issuer: %w", err)
	}

	proxies, err := httputil.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		conns.Close()
		return fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	var auditLogger audit.Logger = audit.NoopLogger{}
	if cfg.Observability.AuditEnabled {
		auditLogger = audit.NewLogrusLogger(os.Stdout)
	}

	primary, replica := conns.Primary(), conns.Replica()
	staffStore := staff.NewPostgresStore(primary, replica, metrics)
	agencies := staff.NewAgencyCache(staffStore, agencyCacheSize, agencyCacheTTL)
	async.SafeGo(ctx, logger, 10*time.Second, "agency cache warm-up", func(ctx context.Context) error {
		_, err := agencies.List(ctx)
		return err
	})

	server := api.NewServer(api.Handlers{
		Accounts: accounts.NewHandlers(
			accounts.NewService(accounts.NewPostgresStore(primary, replica, metrics), issuer, metrics),
			cfg.Auth.CookieSecure,
		),
		Staff: staff.NewHandlers(
			staff.NewService(staffStore, agencies, metrics),
		),
		Teams: teams.NewHandlers(teams.NewService(teams.NewPostgresStore(primary, replica, metrics))),
	}, api.Options{
		SigningKey:     issuer.Key(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		TrustedProxies: proxies,
		Logger:         logger,
		Metrics:        metrics,
		Audit:          auditLogger,
		LoginLimiter:   limiter,
		LoginLimit:     limitConfig,
		Tracing:        tp != nil,
	})

	apiServer := server.HTTPServer(cfg.Server)
	healthServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           api.NewHealthMux(observability.NewHealthChecker(primary, redisClient, version), registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	shutdown.RegisterShutdownFunc(func(context.Context) error { return auditLogger.Close() })
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error { return redisClient.Close() })
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error { return conns.Close() })
	if tp != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error { return observability.ShutdownOTel(ctx, tp, logger) })
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(apiServer, logger, "API") })
	g.Go(func() error { return serve(healthServer, logger, "health") })
	g.Go(func() error { return shutdown.WaitForShutdown(gctx) })

	logger.WithFields(map[string]interface{}{
		"version": version,
		"addr":    apiServer.Addr,
		"health":  healthServer.Addr,
	}).Info("Staffing server started")

	return g.Wait()
}

func serve(srv *http.Server, logger *observability.Logger, name string) error {
	logger.Infof("%s server listening on %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}
