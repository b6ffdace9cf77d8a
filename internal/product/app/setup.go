// Package app contains the application setup for the product catalog service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productcatalog/internal/config"
	"github.com/abgdnv/productcatalog/internal/platform/server"
	"github.com/abgdnv/productcatalog/internal/platform/web"
	grpcImpl "github.com/abgdnv/productcatalog/internal/product/grpc"
	"github.com/abgdnv/productcatalog/internal/product/handler"
	"github.com/abgdnv/productcatalog/internal/product/migrations"
	"github.com/abgdnv/productcatalog/internal/product/service"
	"github.com/abgdnv/productcatalog/internal/product/store"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const metricsNamespace = "product_catalog"

type Dependencies struct {
	Store          store.ProductStore
	ProductService service.ProductService
	Logger         *slog.Logger
	Registry       *prometheus.Registry
}

// SetupDependencies wires the service on top of an opened store.
// Each call gets its own metrics registry.
func SetupDependencies(productStore store.ProductStore, logger *slog.Logger) *Dependencies {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Dependencies{
		Store:          productStore,
		ProductService: service.NewService(productStore),
		Logger:         logger,
		Registry:       registry,
	}
}

// NewStore opens the store selected by database.driver. The caller owns the returned store and must Close it.
func NewStore(ctx context.Context, cfg config.DatabaseConfig, tracing bool, logger *slog.Logger) (store.ProductStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.Migrate {
			if err := migrations.Up(cfg.URL); err != nil {
				return nil, err
			}
			logger.Info("Database migrations applied")
		}
		dbPool, err := NewDbPool(ctx, cfg, tracing)
		if err != nil {
			return nil, err
		}
		logger.Info("Successfully connected to the database!", "driver", cfg.Driver)
		return store.NewPgStore(dbPool), nil
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		gormStore, err := store.NewGormStore(db)
		if err != nil {
			return nil, err
		}
		logger.Info("Successfully opened the database!", "driver", cfg.Driver, "path", cfg.Path)
		return gormStore, nil
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return store.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// NewDbPool creates a new database connection pool and pings it, optionally tracing every query.
func NewDbPool(ctx context.Context, cfg config.DatabaseConfig, tracing bool) (*pgxpool.Pool, error) {
	// Create context with timeout for database connection
	poolCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	pgxConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if tracing {
		pgxConfig.ConnConfig.Tracer = otelpgx.NewTracer(
			otelpgx.WithAttributes(semconv.DBSystemNamePostgreSQL),
		)
	}

	dbPool, errPool := pgxpool.NewWithConfig(poolCtx, pgxConfig)
	if errPool != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", errPool)
	}
	// Ping the database to ensure the connection is established (fail early if not)
	if err := dbPool.Ping(poolCtx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbPool, nil
}

// OpenSQLite opens a SQLite database through GORM. The path may be ":memory:".
// A single connection serializes writes and keeps an in-memory database alive.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// SetupHttpHandler initializes the router, middleware and routes.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	metrics := web.NewHTTPMetrics(metricsNamespace, deps.Registry)
	mux := server.NewChiRouter(deps.Logger, metrics.Middleware)

	handler.NewAPI(deps.ProductService, deps.Logger).RegisterRoutes(mux)
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))

	return mux
}

// SetupHttpServer creates and configures the HTTP server, wrapped with OpenTelemetry when tracing is on.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	var h http.Handler = SetupHttpHandler(deps)
	if cfg.Telemetry.Enabled {
		h = otelhttp.NewHandler(h, "product-http")
	}

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, h)
}

// SetupGrpcServer initializes the gRPC server with the store-driven health service.
// The returned monitor must be run for the health status to follow the store.
func SetupGrpcServer(deps *Dependencies, cfg *config.Config) (*grpc.Server, *grpcImpl.HealthMonitor) {
	monitor := grpcImpl.NewHealthMonitor(deps.Store, cfg.GRPC.HealthInterval, deps.Logger)

	var opts []grpc.ServerOption
	if cfg.Telemetry.Enabled {
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}
	healthRegisterFunc := func(s *grpc.Server) {
		healthpb.RegisterHealthServer(s, monitor.Server())
	}
	grpcServer := server.NewGRPCServer(deps.Logger, cfg.GRPC.ReflectionEnabled, opts, healthRegisterFunc)
	return grpcServer, monitor
}
