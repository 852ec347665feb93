// Package main is the greenhoused cache engine process entrypoint.
// Grounded on cmd/authn/main.go's shape (config-path flag, signal
// handler, logger flush loop); CLI flag parsing beyond the config path
// and the HTTP exposition transport are external contracts (spec.md §1),
// so this file stays thin by design.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hawkingrei/greenhouse/cmn/nlog"
	"github.com/hawkingrei/greenhouse/config"
	"github.com/hawkingrei/greenhouse/engine"
	"github.com/hawkingrei/greenhouse/httpapi"
	"github.com/hawkingrei/greenhouse/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "path to the JSON configuration file")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	eng.Start(ctx)
	go flushLoop(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/", httpapi.NewHandler(eng.Facade))

	srv := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nlog.Errorf("http server: %v", err)
		}
	}()

	nlog.Infof("greenhoused listening on %s, cache_dir=%s", srv.Addr, cfg.CacheDir)

	waitForSignal()

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	eng.Shutdown(shutdownCtx)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, fmt.Errorf("missing -config flag")
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return config.Load(data)
}

func flushLoop(ctx context.Context) {
	t := time.NewTicker(2 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			nlog.Flush()
			return
		case <-t.C:
			nlog.Flush()
		}
	}
}

func waitForSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-c
}
