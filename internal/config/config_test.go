package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		original, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, original)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "RESULTS_DIR", "MAX_CONCURRENT_JOBS", "LISTEN_ADDR", "OTEL_ENABLED", "REDIS_ADDR")

	cfg := Load()

	if cfg.ResultsDir != "./data/results" {
		t.Errorf("expected default results dir, got %q", cfg.ResultsDir)
	}
	if cfg.MaxConcurrentJobs != 2 {
		t.Errorf("expected default concurrency 2, got %d", cfg.MaxConcurrentJobs)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.OTELEnabled {
		t.Error("expected OTEL disabled by default")
	}
	if cfg.RedisAddr != "" {
		t.Errorf("expected empty Redis addr by default, got %q", cfg.RedisAddr)
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	clearEnv(t, "RESULTS_DIR", "MAX_CONCURRENT_JOBS", "OTEL_ENABLED")
	os.Setenv("RESULTS_DIR", "/tmp/results")
	os.Setenv("MAX_CONCURRENT_JOBS", "8")
	os.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	if cfg.ResultsDir != "/tmp/results" {
		t.Errorf("expected overridden results dir, got %q", cfg.ResultsDir)
	}
	if cfg.MaxConcurrentJobs != 8 {
		t.Errorf("expected overridden concurrency, got %d", cfg.MaxConcurrentJobs)
	}
	if !cfg.OTELEnabled {
		t.Error("expected OTEL enabled from env")
	}
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	clearEnv(t, "MAX_FILE_SIZE_MB")
	os.Setenv("MAX_FILE_SIZE_MB", "not-a-number")

	cfg := Load()

	if cfg.MaxFileSizeMB != 500 {
		t.Errorf("expected fallback default for unparsable int, got %d", cfg.MaxFileSizeMB)
	}
}

func TestGetEnvBoolFallsBackOnGarbage(t *testing.T) {
	clearEnv(t, "OTEL_ENABLED")
	os.Setenv("OTEL_ENABLED", "not-a-bool")

	cfg := Load()

	if cfg.OTELEnabled {
		t.Error("expected fallback default (false) for unparsable bool")
	}
}
