// Package main runs the relay server: it accepts records pushed by the
// scraper over authenticated HTTP, keeps a bounded recent-token window,
// and fans new tokens out to WebSocket subscribers.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"base-token-tracker/internal/config"
	"base-token-tracker/internal/hub"
	"base-token-tracker/internal/observability"
	"base-token-tracker/internal/server"
	"base-token-tracker/internal/storage"
	"base-token-tracker/internal/storage/memory"
	pgstore "base-token-tracker/internal/storage/postgres"
	"base-token-tracker/internal/store"
)

func main() {
	cfg := config.LoadServer()

	// Flags override environment values.
	port := flag.String("port", cfg.Port, "HTTP listen port")
	scraperToken := flag.String("scraper-token", cfg.ScraperToken, "Shared bearer token for the ingress endpoint")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string for the archive (empty = in-memory)")
	flag.Parse()

	cfg.Port = *port
	cfg.ScraperToken = *scraperToken
	cfg.PostgresDSN = *postgresDSN

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	archive, cleanup, err := createArchive(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		logger.Fatalf("Failed to create archive: %v", err)
	}
	defer cleanup()

	tokenStore := store.NewTokenStore(cfg.MaxEntries, cfg.MaxAge)
	metrics := observability.NewMetrics("")
	broadcastHub := hub.NewHub(tokenStore.Snapshot, log.New(os.Stdout, "[hub] ", log.LstdFlags))

	srv := server.New(server.Options{
		Store:   tokenStore,
		Hub:     broadcastHub,
		Archive: archive,
		Token:   cfg.ScraperToken,
		Metrics: metrics,
		Logger:  logger,
	})

	sweepInterval := cfg.SweepEvery
	if sweepInterval == 0 {
		sweepInterval = store.DefaultSweepInterval
	}
	go tokenStore.RunSweeper(ctx, sweepInterval, metrics, logger)

	// Handle shutdown signals
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing exit", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	logger.Printf("Listening on :%s", cfg.Port)
	err = srv.Run(ctx, ":"+cfg.Port)
	close(done)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createArchive picks the archive backend: PostgreSQL when a DSN is
// configured, in-memory otherwise.
func createArchive(ctx context.Context, dsn string, logger *log.Logger) (storage.TokenArchive, func(), error) {
	if dsn == "" {
		logger.Println("No POSTGRES_DSN set, using in-memory archive")
		return memory.NewTokenArchive(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	logger.Println("Connected to PostgreSQL archive")
	return pgstore.NewTokenArchive(pool), pool.Close, nil
}
