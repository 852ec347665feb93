package config_test

import (
	"testing"

	"github.com/hawkingrei/greenhouse/config"
)

func TestDefaultIsValidOnceCacheDirSet(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = "/var/cache/greenhouse"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config (with cache_dir) to validate, got %v", err)
	}
}

func TestValidateRejectsEmptyCacheDir(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty cache_dir")
	}
}

func TestValidateRejectsStopAboveMin(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = "/tmp/x"
	cfg.MinPercentBlockFree = 0.5
	cfg.StopPercentBlock = 0.6
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when stop_percent_block >= min_percent_block_free")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := config.Load([]byte(`{"cache_dir":"/data/cache","retention_days":7}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CacheDir != "/data/cache" {
		t.Fatalf("expected cache_dir override, got %q", cfg.CacheDir)
	}
	if cfg.RetentionDays != 7 {
		t.Fatalf("expected retention_days override, got %d", cfg.RetentionDays)
	}
	// Untouched fields keep their defaults.
	if cfg.WriteQueueCapacity != 8192 {
		t.Fatalf("expected default write_queue_capacity, got %d", cfg.WriteQueueCapacity)
	}
}
