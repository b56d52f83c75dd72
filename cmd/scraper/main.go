// Package main runs the scraper: it polls the token feed page in a
// headless browser, extracts token records, dedups them, and pushes
// fresh ones to the relay server.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"base-token-tracker/internal/config"
	"base-token-tracker/internal/discovery"
	"base-token-tracker/internal/ingestion"
	"base-token-tracker/internal/observability"
	"base-token-tracker/internal/page"
	"base-token-tracker/internal/relay"
)

func main() {
	cfg := config.LoadScraper()

	// Flags override environment values.
	backendURL := flag.String("backend-url", cfg.BackendURL, "Relay server base URL")
	scrapeURL := flag.String("scrape-url", cfg.ScrapeURL, "Token feed page URL")
	scraperToken := flag.String("scraper-token", cfg.ScraperToken, "Shared bearer token for the relay ingress")
	pollInterval := flag.Duration("poll-interval", cfg.PollInterval, "Delay between page captures")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty = disabled)")
	flag.Parse()

	cfg.BackendURL = *backendURL
	cfg.ScrapeURL = *scrapeURL
	cfg.ScraperToken = *scraperToken
	cfg.PollInterval = *pollInterval

	logger := log.New(os.Stdout, "[scraper] ", log.LstdFlags)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("")
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	chromeCfg := page.DefaultChromeConfig(cfg.ScrapeURL)
	chromeCfg.Headless = cfg.Headless

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:         page.NewChromeSource(chromeCfg),
		Extractor:      discovery.NewExtractor(),
		Tracker:        discovery.NewTracker(cfg.DedupMode),
		Deliverer:      relay.NewClient(cfg.BackendURL, cfg.ScraperToken),
		Interval:       cfg.PollInterval,
		SettleDelay:    cfg.SettleDelay,
		RestartBackoff: cfg.RestartBackoff,
		Metrics:        metrics,
		Logger:         logger,
	})

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

	logger.Printf("Scraping %s every %v, pushing to %s", cfg.ScrapeURL, cfg.PollInterval, cfg.BackendURL)
	err := runner.Run(ctx)
	close(done)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Scraper error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// serveMetrics exposes Prometheus metrics on a dedicated address.
func serveMetrics(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	logger.Printf("Serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("Metrics server error: %v", err)
	}
}
