package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != DefaultStatsHost {
		t.Errorf("Expected host %s, got %s", DefaultStatsHost, cfg.Server.Host)
	}
	if cfg.Server.Port != DefaultStatsPort {
		t.Errorf("Expected port %d, got %d", DefaultStatsPort, cfg.Server.Port)
	}

	if cfg.Pool.MaxPerHost != 2 {
		t.Errorf("Expected max_per_host 2, got %d", cfg.Pool.MaxPerHost)
	}
	if cfg.Pool.ConnectTimeout != 30*time.Second {
		t.Errorf("Expected connect timeout 30s, got %v", cfg.Pool.ConnectTimeout)
	}
	if cfg.Pool.WriteTimeout != 30*time.Second {
		t.Errorf("Expected write timeout 30s, got %v", cfg.Pool.WriteTimeout)
	}
	if cfg.Pool.ReadTimeout != 60*time.Second {
		t.Errorf("Expected read timeout 60s, got %v", cfg.Pool.ReadTimeout)
	}
	if cfg.Pool.KeepAliveTimeout != 60*time.Second {
		t.Errorf("Expected keep-alive timeout 60s, got %v", cfg.Pool.KeepAliveTimeout)
	}
	if cfg.Pool.StatsResetInterval != 30*time.Second {
		t.Errorf("Expected stats reset interval 30s, got %v", cfg.Pool.StatsResetInterval)
	}
	if cfg.Pool.RetryNonIdempotent {
		t.Error("Expected RetryNonIdempotent to default to false")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected log format 'json', got %s", cfg.Logging.Format)
	}
}

func TestLoadConfig_WithoutFile(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != DefaultStatsPort {
		t.Errorf("Expected default port %d, got %d", DefaultStatsPort, cfg.Server.Port)
	}
	if cfg.Pool.MaxPerHost != 2 {
		t.Errorf("Expected default max_per_host 2, got %d", cfg.Pool.MaxPerHost)
	}
}

func TestLoadConfig_WithEnvironmentVariables(t *testing.T) {
	testEnvVars := map[string]string{
		"CONDUIT_SERVER_PORT":              "8080",
		"CONDUIT_SERVER_HOST":              "0.0.0.0",
		"CONDUIT_LOGGING_LEVEL":            "debug",
		"CONDUIT_POOL_MAX_PER_HOST":        "4",
		"CONDUIT_POOL_RETRY_NON_IDEMPOTENT": "true",
	}

	for key, value := range testEnvVars {
		os.Setenv(key, value)
	}
	defer func() {
		for key := range testEnvVars {
			os.Unsetenv(key)
		}
	}()

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load with env vars failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080 from env var, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host 0.0.0.0 from env var, got %s", cfg.Server.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug from env var, got %s", cfg.Logging.Level)
	}
	if cfg.Pool.MaxPerHost != 4 {
		t.Errorf("Expected max_per_host 4 from env var, got %d", cfg.Pool.MaxPerHost)
	}
	if !cfg.Pool.RetryNonIdempotent {
		t.Error("Expected RetryNonIdempotent true from env var")
	}
}
