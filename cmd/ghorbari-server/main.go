// Command ghorbari-server runs the GhorBari marketplace API.
//
// Configuration comes from environment variables (see internal/config); a
// .env file in the working directory is loaded first when present.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/api"
	"github.com/ghorbari/ghorbari/internal/config"
	"github.com/ghorbari/ghorbari/internal/db"
	"github.com/ghorbari/ghorbari/internal/db/migrations"
	"github.com/ghorbari/ghorbari/internal/dbpool"
	"github.com/ghorbari/ghorbari/internal/service"
	"github.com/ghorbari/ghorbari/internal/store"
	"github.com/ghorbari/ghorbari/internal/ws"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = 24 * time.Hour
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

//nolint:funlen // Startup wiring is sequential; splitting would hurt readability.
func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}
	log.WithField("schema_version", db.SchemaVersion()).Info("database ready")

	var wg sync.WaitGroup

	// WebSocket hub for negotiation events.
	hub := ws.NewHub(log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	// Cross-instance change feed: pg NOTIFY payloads fan out through the hub.
	bridge := db.NewNotifyBridge(log, pool, hub)
	if err := bridge.Start(ctx); err != nil {
		return err
	}

	// Stores.
	base := store.Base{Pool: pool, Log: log}
	propertyStore := store.NewPropertyStore(base)
	applicationStore := store.NewApplicationStore(base)
	auditStore := store.NewAuditStore(base)

	// Async audit trail.
	auditWorker := service.NewAuditWorker(auditStore, log, cfg.AuditQueueSize)
	wg.Add(1)
	go func() {
		defer wg.Done()
		auditWorker.Run(ctx)
	}()

	// Optional Redis read cache for property lookups.
	cache, err := service.NewPropertyCache(cfg.RedisURL, log)
	if err != nil {
		return err
	}
	defer cache.Close() //nolint:errcheck // nil-safe, best-effort close on shutdown.

	// Services.
	properties := service.NewPropertyService(propertyStore, cache, auditWorker, hub, log)
	applications := service.NewApplicationService(applicationStore, cache, auditWorker, hub, log)
	audit := service.NewAuditService(auditStore, log)

	// Daily audit retention sweep.
	wg.Add(1)
	go func() {
		defer wg.Done()
		runAuditPurge(ctx, log, audit, cfg.AuditRetentionDays)
	}()

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:          log,
		Pool:         pool,
		Hub:          hub,
		Properties:   properties,
		Applications: applications,
		Audit:        audit,
		JWTSecret:    []byte(cfg.JWTSecret.Value()),
		CORSOrigins:  cfg.CORSOrigins,
		Version:      config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Addr(), "version": config.Version}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		log.WithField("addr", cfg.MetricsAddr()).Info("metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown incomplete")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("metrics shutdown incomplete")
	}

	hub.Shutdown()
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// runAuditPurge deletes expired audit entries once a day.
func runAuditPurge(ctx context.Context, log *logrus.Logger, audit *service.AuditService, retentionDays int) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := audit.PurgeOldEntries(ctx, retentionDays)
			if err != nil {
				log.WithError(err).Warn("audit purge failed")
				continue
			}
			if deleted > 0 {
				log.WithField("deleted", deleted).Info("audit entries purged")
			}
		}
	}
}
