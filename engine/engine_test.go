package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/hawkingrei/greenhouse/config"
	"github.com/hawkingrei/greenhouse/engine"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default() // CacheDir empty
	if _, err := engine.New(cfg); err == nil {
		t.Fatal("expected New to reject a config with an empty cache_dir")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.CacheDir = dir
	cfg.BloomDir = dir + "-bloom"

	e, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Facade.Write("cas/k", []byte("payload")); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	e.Shutdown(shutdownCtx)
}
