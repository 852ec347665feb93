// Package config loads and validates the cache engine's configuration.
// Shape follows original_source/components/storage/src/config.rs (storage
// config) and original_source/components/threadpool/src/config.rs
// (per-priority pool config), decoded with the teacher's package-wide JSON
// codec (github.com/json-iterator/go, see cmn/cos/fs.go's use of it).
package config

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/hawkingrei/greenhouse/cmn/cos"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PoolConfig is the per-priority-tier worker pool shape (spec §4.5):
// worker count, per-worker task bound, and (informational) stack size.
type PoolConfig struct {
	Workers           int            `json:"workers"`
	MaxTasksPerWorker int            `json:"max_tasks_per_worker"`
	StackSize         cos.ReadableSize `json:"stack_size"`
}

func (p PoolConfig) validate(name string) error {
	if p.Workers <= 0 {
		return errors.Errorf("%s.workers must be > 0", name)
	}
	if p.MaxTasksPerWorker <= 1 {
		return errors.Errorf("%s.max_tasks_per_worker must be > 1", name)
	}
	return nil
}

// ThreadPoolConfig configures the three priority tiers (spec §4.5).
type ThreadPoolConfig struct {
	High   PoolConfig `json:"high"`
	Normal PoolConfig `json:"normal"`
	Low    PoolConfig `json:"low"`
}

func (t ThreadPoolConfig) validate(name string) error {
	if err := t.High.validate(name + ".high"); err != nil {
		return err
	}
	if err := t.Normal.validate(name + ".normal"); err != nil {
		return err
	}
	return t.Low.validate(name + ".low")
}

// Config is the complete cache engine configuration (spec §6).
type Config struct {
	CacheDir string `json:"cache_dir"`

	HTTPWorkers int `json:"http_worker"`

	ReadingThreadPool ThreadPoolConfig `json:"reading_threadpool"`
	WritingThreadPool ThreadPoolConfig `json:"writing_threadpool"`

	WriteQueueCapacity int  `json:"write_queue_capacity"`
	WriteWorkers       int  `json:"write_workers"`
	StrictWriteBackpressure bool `json:"strict_write_backpressure"`

	MinPercentBlockFree float64       `json:"min_percent_block_free"`
	StopPercentBlock    float64       `json:"stop_percent_block"`
	LazyGCInterval      time.Duration `json:"lazy_gc_interval"`

	RetentionDays      int           `json:"retention_days"`
	DiskProbeInterval  time.Duration `json:"disk_probe_interval"`
	BloomTickInterval  time.Duration `json:"bloom_tick_interval"`
	BloomRolloverCheck time.Duration `json:"bloom_rollover_check_interval"`
	MinDailyPutsToKeep uint64        `json:"min_daily_puts_to_keep"`

	BloomDir string `json:"bloom_dir"`
}

// Default returns the configuration used by the original greenhouse-rs
// binary's defaults (spec §6 table), adapted to Go time.Duration units.
func Default() Config {
	pool := PoolConfig{Workers: 4, MaxTasksPerWorker: 200, StackSize: cos.MB(8)}
	return Config{
		HTTPWorkers: 2,
		ReadingThreadPool: ThreadPoolConfig{
			High:   PoolConfig{Workers: 16, MaxTasksPerWorker: 400, StackSize: cos.MB(8)},
			Normal: PoolConfig{Workers: 8, MaxTasksPerWorker: 200, StackSize: cos.MB(8)},
			Low:    PoolConfig{Workers: 4, MaxTasksPerWorker: 100, StackSize: cos.MB(8)},
		},
		WritingThreadPool: ThreadPoolConfig{High: pool, Normal: pool, Low: pool},

		WriteQueueCapacity: 8192,
		WriteWorkers:       4,

		MinPercentBlockFree: 0.8,
		StopPercentBlock:    0.6,
		LazyGCInterval:      10 * time.Second,

		RetentionDays:      3,
		DiskProbeInterval:  2 * time.Second,
		BloomTickInterval:  5 * time.Second,
		BloomRolloverCheck: 3 * time.Second,
		MinDailyPutsToKeep: 200_000,

		BloomDir: "",
	}
}

// Load decodes JSON configuration over the defaults.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, cos.WrapFatal(err, "decode config")
		}
	}
	return cfg, nil
}

// Validate mirrors original_source/components/storage/src/config.rs's
// validate(): cache_dir must be non-empty, and stop must be strictly below
// min so the lazy GC pass always makes forward progress.
func (c Config) Validate() error {
	if c.CacheDir == "" {
		return cos.WrapFatal(errors.New("cache_dir must be non-empty"), "validate config")
	}
	if c.StopPercentBlock >= c.MinPercentBlockFree {
		return cos.WrapFatal(
			errors.Errorf("stop_percent_block (%.2f) must be < min_percent_block_free (%.2f)",
				c.StopPercentBlock, c.MinPercentBlockFree),
			"validate config")
	}
	if c.RetentionDays <= 0 {
		return cos.WrapFatal(errors.New("retention_days must be > 0"), "validate config")
	}
	if err := c.ReadingThreadPool.validate("reading_threadpool"); err != nil {
		return cos.WrapFatal(err, "validate config")
	}
	if err := c.WritingThreadPool.validate("writing_threadpool"); err != nil {
		return cos.WrapFatal(err, "validate config")
	}
	if c.WriteQueueCapacity <= 0 {
		return cos.WrapFatal(errors.New("write_queue_capacity must be > 0"), "validate config")
	}
	return nil
}
