// Command portal launches the Lumera portal state service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sourcegraph/conc"

	"github.com/lumera/portal/internal/cache"
	"github.com/lumera/portal/internal/cart"
	"github.com/lumera/portal/internal/catalog"
	"github.com/lumera/portal/internal/configurator"
	"github.com/lumera/portal/internal/domain/sessionstore"
	"github.com/lumera/portal/internal/favorites"
	"github.com/lumera/portal/internal/infra/config"
	"github.com/lumera/portal/internal/infra/persistence/migrations"
	"github.com/lumera/portal/internal/infra/persistence/postgres"
	httpserver "github.com/lumera/portal/internal/infra/server/http"
	infratelemetry "github.com/lumera/portal/internal/infra/telemetry"
	"github.com/lumera/portal/internal/observability"
	"github.com/lumera/portal/internal/remote"
	"github.com/lumera/portal/lib/telemetry"
)

const (
	defaultConfigPath        = "config/portal.yaml"
	portalLoggerPrefix       = "portal "
	defaultMigrationsDir     = "db/migrations"
	shutdownTimeout          = 30 * time.Second
	apiShutdownTimeout       = 5 * time.Second
	lifecycleShutdownTimeout = 10 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	warmUpTimeout            = 30 * time.Second
	readHeaderTimeout        = 5 * time.Second
)

func main() {
	cfgPathFlag := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := newPortalLogger()
	observability.SetLogger(stdLogger{logger})

	configPath := resolveConfigPath(cfgPathFlag)
	appCfg, err := config.Load(ctx, configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	logger.Printf("configuration initialised: env=%s, cache=%s", appCfg.Environment, appCfg.Cache.Backend)

	providers, telemetryShutdown, err := telemetry.Init(ctx, appCfg.Telemetry)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}
	observability.SetMetrics(infratelemetry.NewBridge(
		providers.MeterProvider.Meter("lumera-portal"), string(appCfg.Environment)))

	kv, err := openCache(appCfg.Cache)
	if err != nil {
		logger.Fatalf("open cache: %v", err)
	}

	metrics := observability.NewRuntimeMetrics()
	client := remote.NewClient(appCfg.Remote)

	catalogSvc := catalog.NewService(catalog.ProviderFunc(client.FetchUniverse), kv)
	warmUpCatalog(ctx, logger, catalogSvc)

	cartStore := cart.NewStore(kv, metrics)
	if err := cartStore.Hydrate(ctx); err != nil {
		logger.Printf("hydrate cart: %v", err)
	}
	favoriteStore := favorites.NewStore(kv, metrics)
	if err := favoriteStore.Hydrate(ctx); err != nil {
		logger.Printf("hydrate favorites: %v", err)
	}
	reconciler := favorites.NewReconciler(favoriteStore, client, catalogSvc, metrics)

	history := configurator.NewHistoryStore(configurator.Snapshot{
		Brightness:       80,
		ColorTemperature: 3000,
		Scene:            configurator.SceneAmbient,
	}, metrics)

	sessions, pgStore := openSessionStore(ctx, logger, appCfg.Database)
	defer pgStore.Close()

	runtimeCfg, err := config.NewRuntimeStore(appCfg.Runtime())
	if err != nil {
		logger.Fatalf("runtime config: %v", err)
	}

	var lifecycle conc.WaitGroup

	apiServer := buildAPIServer(appCfg, httpserver.Deps{
		Environment: appCfg.Environment,
		Cart:        cartStore,
		Favorites:   favoriteStore,
		Reconciler:  reconciler,
		History:     history,
		Configs:     client,
		Catalog:     catalogSvc,
		Sessions:    sessions,
		Metrics:     metrics,
		Runtime:     runtimeCfg,
	})
	startAPIServer(&lifecycle, logger, apiServer)
	logger.Printf("portal API listening on %s", apiServer.Addr)

	startReconcileLoop(ctx, &lifecycle, logger, reconciler, runtimeCfg)

	logger.Print("portal started; awaiting shutdown signal")
	<-ctx.Done()
	logger.Print("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownStart := time.Now()
	performGracefulShutdown(shutdownCtx, logger, gracefulShutdownConfig{
		server:     apiServer,
		mainCancel: cancel,
		lifecycle:  &lifecycle,
		cache:      kv,
		telemetry:  telemetryShutdown,
	})

	logger.Printf("shutdown completed in %v", time.Since(shutdownStart))
}

func parseFlags() string {
	cfgPath := flag.String("config", "", fmt.Sprintf("Path to application configuration file (default: %s)", defaultConfigPath))
	flag.Parse()
	return *cfgPath
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newPortalLogger() *log.Logger {
	return log.New(os.Stdout, portalLoggerPrefix, log.LstdFlags|log.Lmicroseconds)
}

// stdLogger bridges the process logger onto the observability contract.
type stdLogger struct {
	logger *log.Logger
}

func (l stdLogger) Debug(msg string, fields ...observability.Field) { l.print("DEBUG", msg, fields) }
func (l stdLogger) Info(msg string, fields ...observability.Field)  { l.print("INFO", msg, fields) }
func (l stdLogger) Error(msg string, fields ...observability.Field) { l.print("ERROR", msg, fields) }

func (l stdLogger) print(level, msg string, fields []observability.Field) {
	if len(fields) == 0 {
		l.logger.Printf("%s %s", level, msg)
		return
	}
	line := fmt.Sprintf("%s %s", level, msg)
	for _, field := range fields {
		line += fmt.Sprintf(" %s=%v", field.Key, field.Value)
	}
	l.logger.Print(line)
}

func openCache(cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case config.CacheSQLite:
		return cache.NewSQLiteStore(cfg.Path)
	default:
		return cache.NewMemoryStore(), nil
	}
}

func warmUpCatalog(ctx context.Context, logger *log.Logger, svc *catalog.Service) {
	warmCtx, cancel := context.WithTimeout(ctx, warmUpTimeout)
	defer cancel()
	universe, err := svc.WarmUp(warmCtx)
	if err != nil {
		logger.Printf("catalog warm-up failed, continuing with cached overrides: %v", err)
		return
	}
	logger.Printf("catalog warmed up: products=%d", len(universe))
}

// openSessionStore connects to PostgreSQL for the visitor-session log,
// falling back to the in-memory store when the database is unreachable so a
// local run does not require infrastructure.
func openSessionStore(ctx context.Context, logger *log.Logger, cfg config.DatabaseConfig) (sessionstore.Store, *postgres.Store) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Printf("parse database dsn, using in-memory session store: %v", err)
		return sessionstore.NewMemoryStore(), nil
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err != nil {
		logger.Printf("database unavailable, using in-memory session store: %v", err)
		if pool != nil {
			pool.Close()
		}
		return sessionstore.NewMemoryStore(), nil
	}

	if cfg.RunMigrations {
		err := migrations.Apply(ctx, cfg.DSN, defaultMigrationsDir, logger)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Print("migrations directory missing, applying embedded migrations")
			err = migrations.ApplyEmbedded(ctx, cfg.DSN, logger)
		}
		if err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
	}

	store := postgres.New(pool)
	logger.Print("visitor-session log backed by PostgreSQL")
	return store.Sessions(), store
}

func buildAPIServer(cfg config.AppConfig, deps httpserver.Deps) *http.Server {
	return &http.Server{
		Addr:              cfg.APIServer.Addr,
		Handler:           httpserver.NewHandler(deps),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func startAPIServer(lifecycle *conc.WaitGroup, logger *log.Logger, server *http.Server) {
	lifecycle.Go(func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("portal server: %v", err)
		}
	})
}

// startReconcileLoop schedules periodic reconciliation passes. The interval is
// re-read from the runtime store after every pass so admin updates take effect
// without a restart.
func startReconcileLoop(ctx context.Context, lifecycle *conc.WaitGroup, logger *log.Logger, reconciler *favorites.Reconciler, runtimeCfg *config.RuntimeStore) {
	lifecycle.Go(func() {
		timer := time.NewTimer(runtimeCfg.ReconcileInterval())
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if err := reconciler.Reconcile(ctx); err != nil {
					logger.Printf("reconcile favorites: %v", err)
				}
				timer.Reset(runtimeCfg.ReconcileInterval())
			}
		}
	})
}

type gracefulShutdownConfig struct {
	server     *http.Server
	mainCancel context.CancelFunc
	lifecycle  *conc.WaitGroup
	cache      cache.Store
	telemetry  func(context.Context) error
}

func performGracefulShutdown(ctx context.Context, logger *log.Logger, cfg gracefulShutdownConfig) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		logger.Printf("shutdown: %s...", name)
		if err := fn(stepCtx); err != nil {
			logger.Printf("shutdown: %s failed: %v", name, err)
		} else {
			logger.Printf("shutdown: %s completed", name)
		}
	}

	if cfg.server != nil {
		shutdownStep("stopping portal server", apiShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.server.Shutdown(stepCtx)
		})
	}

	logger.Print("shutdown: cancelling main context")
	if cfg.mainCancel != nil {
		cfg.mainCancel()
	}

	if cfg.lifecycle != nil {
		shutdownStep("waiting for lifecycle goroutines", lifecycleShutdownTimeout, func(stepCtx context.Context) error {
			done := make(chan struct{})
			go func() {
				cfg.lifecycle.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stepCtx.Done():
				return fmt.Errorf("timeout waiting for goroutines: %w", stepCtx.Err())
			}
		})
	}

	if cfg.cache != nil {
		shutdownStep("closing cache", apiShutdownTimeout, func(context.Context) error {
			return cfg.cache.Close()
		})
	}

	if cfg.telemetry != nil {
		shutdownStep("shutting down telemetry", telemetryShutdownTimeout, cfg.telemetry)
	}
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Clean(defaultConfigPath)
}
