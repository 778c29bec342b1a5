package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/cleancare/ccadmin/pkg/api"
	"github.com/cleancare/ccadmin/pkg/audit"
	"github.com/cleancare/ccadmin/pkg/cache"
	"github.com/cleancare/ccadmin/pkg/config"
	"github.com/cleancare/ccadmin/pkg/geo"
	"github.com/cleancare/ccadmin/pkg/observability"
	"github.com/cleancare/ccadmin/pkg/permissions"
	"github.com/cleancare/ccadmin/pkg/schema"
	"github.com/cleancare/ccadmin/pkg/scope"
	"github.com/cleancare/ccadmin/pkg/users"
	"github.com/cleancare/ccadmin/pkg/zones"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log, err := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}

	ctx := context.Background()

	// Tracing and OTel metrics
	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize OpenTelemetry")
	}

	// Prometheus metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)
	recorder := observability.Fanout{metrics}
	if providers != nil {
		otelMetrics, err := observability.NewOTelMetrics()
		if err != nil {
			log.WithError(err).Fatal("Failed to create OpenTelemetry instruments")
		}
		recorder = append(recorder, otelMetrics)
	}

	// Database
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if cfg.Database.RunMigrations {
		if err := schema.Apply(ctx, db, log); err != nil {
			log.WithError(err).Fatal("Failed to apply migrations")
		}
	}

	// Cache
	var (
		tiered      *cache.Tiered
		redisClient *redis.Client
		sweeper     *cron.Cron
	)
	if cfg.Cache.Enabled {
		local, err := cache.NewMemoryBackend(cfg.Cache.LocalMaxKeys)
		if err != nil {
			log.WithError(err).Fatal("Failed to create local cache")
		}

		var remote cache.Backend
		if cfg.Redis.URL != "" {
			redisClient, err = cache.NewRedisClient(ctx, cache.RedisConfig{
				URL:        cfg.Redis.URL,
				Password:   cfg.Redis.Password,
				DB:         cfg.Redis.DB,
				MaxRetries: cfg.Redis.MaxRetries,
				PoolSize:   cfg.Redis.PoolSize,
			})
			if err != nil {
				log.WithError(err).Warn("Redis unavailable, running with the local cache tier only")
			} else {
				remote = cache.NewRedisBackend(redisClient, cfg.Cache.KeyPrefix)
			}
		}
		tiered = cache.NewTiered(remote, local, cache.WithLogger(log), cache.WithRecorder(recorder))

		if cfg.Cache.SweepSchedule != "" {
			sweeper, err = cache.StartSweeper(local, cfg.Cache.SweepSchedule, log)
			if err != nil {
				log.WithError(err).Fatal("Failed to start cache sweeper")
			}
		}
	}
	ttls := cache.TTLs{
		List:     cfg.Cache.ListTTL,
		Stats:    cfg.Cache.StatsTTL,
		Detail:   cfg.Cache.DetailTTL,
		Activity: cfg.Cache.ActivityTTL,
	}

	// Audit trail
	dbAudit, err := audit.NewDBLogger(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create audit logger")
	}
	auditLogger := audit.NewMultiLogger(dbAudit, audit.NewLogrusLogger(log))

	// Services
	geoStore := geo.NewStore(db)
	zoneOpts := []zones.Option{
		zones.WithAuditLogger(auditLogger),
		zones.WithLogger(log),
		zones.WithMetrics(metrics),
	}
	permOpts := []permissions.Option{
		permissions.WithAuditLogger(auditLogger),
		permissions.WithLogger(log),
	}
	userOpts := []users.Option{
		users.WithAuditLogger(auditLogger),
		users.WithLogger(log),
	}
	if tiered != nil {
		zoneOpts = append(zoneOpts, zones.WithCache(tiered, ttls.Detail))
		permOpts = append(permOpts, permissions.WithCache(tiered))
		userOpts = append(userOpts, users.WithCache(tiered, ttls))
	}

	zoneRegistry := zones.NewRegistry(zones.NewStore(db), geoStore, zoneOpts...)
	permOpts = append(permOpts, permissions.WithZoneAccess(zoneRegistry))
	permService := permissions.NewService(permissions.NewStore(db), geoStore, permOpts...)
	userService := users.NewService(users.NewStore(db), userOpts...)
	resolver := scope.NewResolver(zoneRegistry, permService, geoStore,
		scope.WithLogger(log),
		scope.WithRecorder(recorder),
	)

	server := api.NewServer(api.Deps{
		Resolver:    resolver,
		Users:       users.NewHandlers(userService, log),
		Permissions: permissions.NewHandlers(permService, log),
		Zones:       zones.NewHandlers(zoneRegistry, log),
		Cache:       tiered,
		Logger:      log,
		Metrics:     metrics,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient, version))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	// Log level follows the config file
	var watcher *config.Watcher
	if path := os.Getenv("CCADMIN_CONFIG_FILE"); path != "" {
		watcher, err = config.Watch(path, log, func(next *config.Config) {
			level, err := observability.ParseLevel(next.Observability.LogLevel)
			if err != nil {
				log.WithError(err).Warn("Ignoring invalid log level")
				return
			}
			log.SetLevel(level)
		})
		if err != nil {
			log.WithError(err).Warn("Config file watching disabled")
		}
	}

	shutdown := observability.NewShutdownManager(log, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	if watcher != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error { return watcher.Close() })
	}
	if sweeper != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			select {
			case <-sweeper.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		})
	}
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error { return redisClient.Close() })
	}
	shutdown.RegisterShutdownFunc(func(context.Context) error { return auditLogger.Close() })
	shutdown.RegisterShutdownFunc(func(context.Context) error { return db.Close() })
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, log)
	})

	go serve(log, "health", healthServer)
	go serve(log, "api", apiServer)

	log.WithFields(logrus.Fields{
		"addr":        apiServer.Addr,
		"health_addr": healthServer.Addr,
		"version":     version,
	}).Info("ccadmin started")

	if err := shutdown.WaitForShutdown(); err != nil {
		log.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
	log.Info("ccadmin stopped")
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func serve(log logrus.FieldLogger, name string, srv *http.Server) {
	log.WithField("addr", srv.Addr).Infof("Starting %s server", name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatalf("%s server failed", name)
	}
}
