package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:   "8080",
		DBPath: "./data/test.db",
		Foundry: FoundryConfig{
			Endpoint: "https://foundry.example.com/api/projects/cardiac",
		},
		Orchestration: OrchestrationConfig{
			ThreadTTL:           30 * time.Minute,
			PollInterval:        time.Second,
			PollMaxAttempts:     30,
			ConfidenceThreshold: 0.05,
			AdequacyThreshold:   50,
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	mutations := map[string]func(*Config){
		"empty port":          func(c *Config) { c.Port = "" },
		"empty db path":       func(c *Config) { c.DBPath = "" },
		"empty endpoint":      func(c *Config) { c.Foundry.Endpoint = "" },
		"zero ttl":            func(c *Config) { c.Orchestration.ThreadTTL = 0 },
		"zero poll interval":  func(c *Config) { c.Orchestration.PollInterval = 0 },
		"zero poll attempts":  func(c *Config) { c.Orchestration.PollMaxAttempts = 0 },
		"confidence too high": func(c *Config) { c.Orchestration.ConfidenceThreshold = 1 },
		"negative adequacy":   func(c *Config) { c.Orchestration.AdequacyThreshold = -1 },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_DURATION", "15m")
	t.Setenv("TEST_BAD_INT", "not-a-number")

	if got := getEnv("TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv = %q", got)
	}
	if got := getEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt = %d", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt fallback = %d", got)
	}
	if got := getEnvFloat("TEST_FLOAT", 0.5); got != 0.25 {
		t.Errorf("getEnvFloat = %f", got)
	}
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 15*time.Minute {
		t.Errorf("getEnvDuration = %s", got)
	}
	if got := getEnvDuration("TEST_UNSET", time.Second); got != time.Second {
		t.Errorf("getEnvDuration fallback = %s", got)
	}
}
