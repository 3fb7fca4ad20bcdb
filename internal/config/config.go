// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	Foundry       FoundryConfig
	Orchestration OrchestrationConfig
}

// FoundryConfig describes the remote agent platform.
type FoundryConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string

	NursingAgentID    string
	ExerciseAgentID   string
	DietAgentID       string
	MedicationAgentID string
}

// OrchestrationConfig carries the tunables of the routing core. The
// confidence and adequacy thresholds are configurable because the upstream
// values (0.05, 50) have no documented rationale.
type OrchestrationConfig struct {
	ThreadTTL           time.Duration
	PollInterval        time.Duration
	PollMaxAttempts     int
	ConfidenceThreshold float64
	AdequacyThreshold   int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/cardiacare.db"),
		Foundry: FoundryConfig{
			Endpoint:          getEnv("FOUNDRY_ENDPOINT", ""),
			APIKey:            getEnv("FOUNDRY_API_KEY", ""),
			APIVersion:        getEnv("FOUNDRY_API_VERSION", "2024-12-01-preview"),
			NursingAgentID:    getEnv("NURSING_AGENT_ID", ""),
			ExerciseAgentID:   getEnv("EXERCISE_AGENT_ID", ""),
			DietAgentID:       getEnv("DIET_AGENT_ID", ""),
			MedicationAgentID: getEnv("MEDICATION_AGENT_ID", ""),
		},
		Orchestration: OrchestrationConfig{
			ThreadTTL:           getEnvDuration("THREAD_TTL", 30*time.Minute),
			PollInterval:        getEnvDuration("RUN_POLL_INTERVAL", time.Second),
			PollMaxAttempts:     getEnvInt("RUN_POLL_MAX_ATTEMPTS", 30),
			ConfidenceThreshold: getEnvFloat("ROUTING_CONFIDENCE_THRESHOLD", 0.05),
			AdequacyThreshold:   getEnvInt("RESPONSE_ADEQUACY_THRESHOLD", 50),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set. A
// partially configured deployment must refuse to start rather than route
// queries to the wrong place.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Foundry.Endpoint == "" {
		return fmt.Errorf("FOUNDRY_ENDPOINT cannot be empty")
	}
	if c.Orchestration.ThreadTTL <= 0 {
		return fmt.Errorf("THREAD_TTL must be > 0")
	}
	if c.Orchestration.PollInterval <= 0 {
		return fmt.Errorf("RUN_POLL_INTERVAL must be > 0")
	}
	if c.Orchestration.PollMaxAttempts <= 0 {
		return fmt.Errorf("RUN_POLL_MAX_ATTEMPTS must be > 0")
	}
	if c.Orchestration.ConfidenceThreshold < 0 || c.Orchestration.ConfidenceThreshold >= 1 {
		return fmt.Errorf("ROUTING_CONFIDENCE_THRESHOLD must be in [0,1)")
	}
	if c.Orchestration.AdequacyThreshold < 0 {
		return fmt.Errorf("RESPONSE_ADEQUACY_THRESHOLD must be >= 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
