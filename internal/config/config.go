// Package config loads service configuration from the environment,
// with optional .env file support for local development.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"base-token-tracker/internal/discovery"
)

// Defaults used when the corresponding environment variable is unset.
const (
	DefaultPort         = "3001"
	DefaultScraperToken = "local-scraper-secret"
	DefaultBackendURL   = "http://localhost:3001"
	DefaultScrapeURL    = "https://szn.zone/base"

	DefaultPollInterval   = 10 * time.Second
	DefaultSettleDelay    = 10 * time.Second
	DefaultRestartBackoff = 10 * time.Second
)

// ServerConfig configures the relay server.
type ServerConfig struct {
	Port         string
	ScraperToken string
	PostgresDSN  string // empty means in-memory archive only
	MaxEntries   int
	MaxAge       time.Duration
	SweepEvery   time.Duration
}

// ScraperConfig configures the scraper process.
type ScraperConfig struct {
	BackendURL     string
	ScrapeURL      string
	ScraperToken   string
	DedupMode      discovery.KeyMode
	PollInterval   time.Duration
	SettleDelay    time.Duration
	RestartBackoff time.Duration
	Headless       bool
}

// LoadServer builds a ServerConfig from the environment.
// A .env file in the working directory is loaded first if present.
func LoadServer() *ServerConfig {
	_ = godotenv.Load()

	return &ServerConfig{
		Port:         getEnv("PORT", DefaultPort),
		ScraperToken: getEnv("SCRAPER_TOKEN", DefaultScraperToken),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		MaxEntries:   getEnvInt("STORE_MAX_ENTRIES", 0),
		MaxAge:       getEnvDuration("STORE_MAX_AGE", 0),
		SweepEvery:   getEnvDuration("STORE_SWEEP_INTERVAL", 0),
	}
}

// LoadScraper builds a ScraperConfig from the environment.
func LoadScraper() *ScraperConfig {
	_ = godotenv.Load()

	return &ScraperConfig{
		BackendURL:     getEnv("BACKEND_URL", DefaultBackendURL),
		ScrapeURL:      getEnv("SCRAPE_URL", DefaultScrapeURL),
		ScraperToken:   getEnv("SCRAPER_TOKEN", DefaultScraperToken),
		DedupMode:      discovery.KeyMode(os.Getenv("DEDUP_MODE")),
		PollInterval:   getEnvDuration("POLL_INTERVAL", DefaultPollInterval),
		SettleDelay:    getEnvDuration("SETTLE_DELAY", DefaultSettleDelay),
		RestartBackoff: getEnvDuration("RESTART_BACKOFF", DefaultRestartBackoff),
		Headless:       getEnvBool("HEADLESS", true),
	}
}

// Validate checks the server configuration for obvious misconfiguration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	if c.ScraperToken == "" {
		return errors.New("scraper token must not be empty")
	}
	if c.MaxEntries < 0 {
		return errors.New("store max entries must not be negative")
	}
	return nil
}

// Validate checks the scraper configuration for obvious misconfiguration.
func (c *ScraperConfig) Validate() error {
	if c.BackendURL == "" {
		return errors.New("backend URL must not be empty")
	}
	if c.ScrapeURL == "" {
		return errors.New("scrape URL must not be empty")
	}
	if c.ScraperToken == "" {
		return errors.New("scraper token must not be empty")
	}
	if c.DedupMode != "" && !c.DedupMode.IsValid() {
		return errors.New("dedup mode must be CONTRACT or CONTRACT_NAME")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
