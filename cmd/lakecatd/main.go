// Package main is the entry point for the lakecatd server: it opens the
// embedded DuckDB, connects the object store, and serves the catalog data
// API over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"lakecat/internal/api"
	"lakecat/internal/config"
	"lakecat/internal/engine"
	"lakecat/internal/objstore"
	"lakecat/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	store, err := objstore.NewS3Store(ctx, cfg)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}

	eng, err := engine.Open(cfg.DuckDBPath, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Bootstrap(ctx); err != nil {
		return err
	}
	if err := eng.ConfigureS3(ctx, cfg); err != nil {
		return err
	}

	attacher := engine.NewAttacher(eng.DB(), store, cfg.Bucket(), cfg.PresignTTL, logger)
	data := service.NewCatalogData(store, attacher, eng, cfg.ReadConcurrency, logger)

	handler := api.NewHandler(data, logger)
	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: handler.Router(api.RouterOptions{
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			AllowedOrigins: cfg.CORSAllowedOrigins,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("lakecatd listening", "addr", cfg.ListenAddr, "bucket", cfg.Bucket())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// loadConfig reads configuration from CONFIG_FILE when set, otherwise
// from the environment alone.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.LoadFromEnv()
}
