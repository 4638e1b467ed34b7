// Package config loads runtime configuration from environment variables,
// with an optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the tool needs for one session.
type Config struct {
	// PageURL is the RMS routine page to automate. Required.
	PageURL string

	// DevToolsURL, when set, attaches to an already running Chrome over its
	// remote debugging endpoint instead of launching one. This is how a run
	// reuses the user's logged-in session.
	DevToolsURL string

	// Headless controls the launched browser when DevToolsURL is empty.
	Headless bool

	// OutputDir receives the exported workbooks.
	OutputDir string

	// WaitTimeout bounds each individual DOM wait; SubmitTimeout bounds the
	// post-confirm modal wait, which includes a server round trip.
	WaitTimeout   time.Duration
	SubmitTimeout time.Duration

	// RunTimeout caps a whole scrape or fill task.
	RunTimeout time.Duration

	// WebhookURL optionally receives run summaries. Empty disables it.
	WebhookURL string

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if
// present). godotenv.Load will not override existing env variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PageURL:       os.Getenv("RMS_PAGE_URL"),
		DevToolsURL:   os.Getenv("RMS_DEVTOOLS_URL"),
		OutputDir:     envOr("RMS_OUTPUT_DIR", "reports"),
		WebhookURL:    os.Getenv("RMS_WEBHOOK_URL"),
		LogLevel:      envOr("RMS_LOG_LEVEL", "info"),
		Environment:   envOr("RMS_ENVIRONMENT", "development"),
		Headless:      true,
		WaitTimeout:   10 * time.Second,
		SubmitTimeout: 20 * time.Second,
		RunTimeout:    15 * time.Minute,
	}

	if cfg.PageURL == "" {
		return nil, fmt.Errorf("RMS_PAGE_URL is not set")
	}

	if v := os.Getenv("RMS_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RMS_HEADLESS: %w", err)
		}
		cfg.Headless = b
	}

	var err error
	if cfg.WaitTimeout, err = durationOr("RMS_WAIT_TIMEOUT", cfg.WaitTimeout); err != nil {
		return nil, err
	}
	if cfg.SubmitTimeout, err = durationOr("RMS_SUBMIT_TIMEOUT", cfg.SubmitTimeout); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = durationOr("RMS_RUN_TIMEOUT", cfg.RunTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
