// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the scan service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// Scan trigger protection. Empty disables the check (local dev).
	CronSecret string

	// LLM collaborator (extraction, scoring, document generation).
	OpenAIAPIKey  string
	OpenAIBaseURL string // optional override, e.g. a local mock server
	OpenAIModel   string

	// Email delivery via the Resend HTTP API. Empty key disables sending.
	ResendAPIKey string
	FromEmail    string
	AppURL       string

	// Optional real job source. When either credential is missing the
	// scanner falls back to the stub source.
	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string // e.g. "fr", "gb", "us"

	ScanIntervalHours int // how often the cron job fires
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}

	interval := 24
	if s := os.Getenv("SCAN_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SCAN_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	country := os.Getenv("ADZUNA_COUNTRY")
	if country == "" {
		country = "us"
	}

	fromEmail := os.Getenv("FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = "noreply@findmygig.com"
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}

	port := os.Getenv("SCAN_PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		Port:              port,
		DatabaseURL:       dbURL,
		RedisURL:          redisURL,
		CronSecret:        os.Getenv("CRON_SECRET"),
		OpenAIAPIKey:      apiKey,
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:       model,
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		FromEmail:         fromEmail,
		AppURL:            appURL,
		AdzunaAppID:       os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:      os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry:     country,
		ScanIntervalHours: interval,
	}, nil
}
