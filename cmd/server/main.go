package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/calendar/internal/auth"
	"github.com/mmynk/calendar/internal/config"
	"github.com/mmynk/calendar/internal/metrics"
	"github.com/mmynk/calendar/internal/server"
	"github.com/mmynk/calendar/internal/service"
	"github.com/mmynk/calendar/internal/storage"
	"github.com/mmynk/calendar/internal/storage/postgres"
	"github.com/mmynk/calendar/internal/storage/sqlite"
	"github.com/mmynk/calendar/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (created with defaults if missing)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	m := metrics.New()
	opts := server.Options{Metrics: m}
	if cfg.Auth.Secret != "" {
		opts.JWT = auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL())
		slog.Info("Bearer authentication enabled")
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.New(service.NewEventService(store, m), opts)

	// h2c serves HTTP/2 without TLS alongside HTTP/1.1
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "address", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down server", "error", err)
	}
	slog.Info("Server stopped")
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.DatabaseURI == "" {
			return nil, errors.New("postgres driver requires a database uri")
		}
		return postgres.New(ctx, cfg.DatabaseURI)
	default:
		return sqlite.New(cfg.Path)
	}
}
