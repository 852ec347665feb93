// Package engine is the composition root: it wires config, logging, disk
// probing, the priority pools, the write-back queue and workers, the
// storage facade, and both GC passes into one runnable process
// (spec.md §5 concurrency model).
package engine

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/hawkingrei/greenhouse/bloomgc"
	"github.com/hawkingrei/greenhouse/bloomstore"
	"github.com/hawkingrei/greenhouse/cmn/nlog"
	"github.com/hawkingrei/greenhouse/config"
	"github.com/hawkingrei/greenhouse/fs"
	"github.com/hawkingrei/greenhouse/ios"
	"github.com/hawkingrei/greenhouse/lazygc"
	"github.com/hawkingrei/greenhouse/priopool"
	"github.com/hawkingrei/greenhouse/storage"
	"github.com/hawkingrei/greenhouse/writeback"
)

// Engine owns every component's lifecycle and is the single thing
// cmd/greenhoused constructs and drives.
type Engine struct {
	cfg config.Config

	index    *fs.Index
	prober   *ios.Prober
	observer *storage.Observer

	writeQueue  *writeback.Queue
	writePool   *writeback.WorkerPool
	readRouter  *priopool.Router
	writeRouter *priopool.Router

	Facade *storage.Facade

	lazyGC  *lazygc.Runner
	store   *bloomstore.Store
	bloomGC *bloomgc.Engine

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds every component from cfg without starting any goroutines;
// call Start to run.
func New(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	index, err := fs.NewIndex()
	if err != nil {
		return nil, err
	}
	if err := index.Rebuild(cfg.CacheDir); err != nil {
		nlog.Warningf("engine: initial index rebuild failed, starting with an empty index: %v", err)
	}

	prober := ios.NewProber(cfg.CacheDir, cfg.DiskProbeInterval, func(u ios.Usage) {
		publishDiskGauges(u)
	})

	observer := storage.NewObserver(storage.DefaultObserverCapacity)

	writeQueue := writeback.NewQueue(cfg.WriteQueueCapacity)
	writePool := writeback.NewWorkerPool(writeQueue, cfg.WriteWorkers)

	readRouter := priopool.NewRouter(toRouterConfig(cfg.ReadingThreadPool))
	// Blob writes go through the queue (spec §4.6's canonical write path);
	// the write-side pool exists for C5's "optionally writes" case and is
	// what Facade.Delete actually submits to, at LOW priority.
	writeRouter := priopool.NewRouter(toRouterConfig(cfg.WritingThreadPool))

	facade := storage.NewFacade(cfg.CacheDir, readRouter, writeRouter, writeQueue, index, observer)
	facade.Strict = cfg.StrictWriteBackpressure
	writePool.OnDone(facade.OnWriteComplete)

	lazyRunner := lazygc.NewRunner(lazygc.Config{
		Root:                cfg.CacheDir,
		MinPercentBlockFree: cfg.MinPercentBlockFree,
		StopPercentBlock:    cfg.StopPercentBlock,
		Interval:            cfg.LazyGCInterval,
	}, prober, index)

	bloomDir := cfg.BloomDir
	if bloomDir == "" {
		bloomDir = filepath.Join(cfg.CacheDir, "..", "bloom")
	}
	store, err := bloomstore.NewStore(bloomDir)
	if err != nil {
		return nil, err
	}
	bloomGC, err := bloomgc.NewEngine(bloomgc.Config{
		Root:          cfg.CacheDir,
		RetentionDays: cfg.RetentionDays,
		MinDailyPuts:  cfg.MinDailyPutsToKeep,
		TickInterval:  cfg.BloomTickInterval,
		RolloverCheck: cfg.BloomRolloverCheck,
	}, store, index)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:         cfg,
		index:       index,
		prober:      prober,
		observer:    observer,
		writeQueue:  writeQueue,
		writePool:   writePool,
		readRouter:  readRouter,
		writeRouter: writeRouter,
		Facade:      facade,
		lazyGC:      lazyRunner,
		store:       store,
		bloomGC:     bloomGC,
	}, nil
}

// Start launches every background goroutine (spec §5: C4 workers, C7/C8
// tickers, C10's single select loop).
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.writePool.Start()

	e.wg.Add(3)
	go func() { defer e.wg.Done(); e.prober.Run(ctx) }()
	go func() { defer e.wg.Done(); e.lazyGC.Run(ctx) }()
	go func() { defer e.wg.Done(); e.bloomGC.Run(ctx, e.observer.Events()) }()
}

// Shutdown cancels every background goroutine and joins them, then drains
// the write-back workers (spec §5 shutdown sequence).
func (e *Engine) Shutdown(ctx context.Context) {
	if e.cancel != nil {
		e.cancel()
	}
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		e.writePool.Stop()
		e.readRouter.Stop()
		e.writeRouter.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		nlog.Warningf("engine: shutdown deadline exceeded, some components may not have joined")
	}
	_ = e.index.Close()
	nlog.Flush()
}

func toRouterConfig(t config.ThreadPoolConfig) priopool.RouterConfig {
	return priopool.RouterConfig{
		High:   priopool.Config{Workers: t.High.Workers, MaxTasksPerWorker: t.High.MaxTasksPerWorker},
		Normal: priopool.Config{Workers: t.Normal.Workers, MaxTasksPerWorker: t.Normal.MaxTasksPerWorker},
		Low:    priopool.Config{Workers: t.Low.Workers, MaxTasksPerWorker: t.Low.MaxTasksPerWorker},
	}
}
