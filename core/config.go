package core

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the small, whole-engine configuration surface spec §6
// describes: "a max_frames_in_flight integer (typically 2 or 3), a
// maximum pool size for descriptor sets, a 'frames to persist' value for
// the pipeline cache." Loaded the same way the teacher loads
// `.shadercfg`/`.amt` files: a plain struct decoded with go-toml, then
// validated.
type Config struct {
	// MaxFramesInFlight is the platform-mandated number of frames that
	// may be unfinished on the GPU simultaneously (N in spec §4.3/§4.4).
	MaxFramesInFlight int `toml:"max_frames_in_flight"`

	// MaxDescriptorPoolSize bounds the total number of descriptor sets a
	// single per-layout pool may allocate before PoolExhausted fires.
	MaxDescriptorPoolSize uint32 `toml:"max_descriptor_pool_size"`

	// PipelineCacheFramesToPersist is the graphics-pipeline cache's
	// eviction horizon (spec §9 open question 2).
	PipelineCacheFramesToPersist uint32 `toml:"pipeline_cache_frames_to_persist"`

	// JobSystemWorkers sizes the parallel thread-pool driver. Zero means
	// "use the single-threaded default."
	JobSystemWorkers int `toml:"job_system_workers"`

	// AssetWatchPaths lists directories the dev asset watcher recurses
	// into (see assets.Watcher).
	AssetWatchPaths []string `toml:"asset_watch_paths"`
}

// DefaultConfig mirrors the values the teacher hardcodes in
// NewSystemManager (pool sizes, worker counts) before any config file is
// read.
func DefaultConfig() *Config {
	return &Config{
		MaxFramesInFlight:            2,
		MaxDescriptorPoolSize:        4096,
		PipelineCacheFramesToPersist: 3,
		JobSystemWorkers:             0,
		AssetWatchPaths:              nil,
	}
}

// Validate checks for the combinations that would otherwise surface as
// confusing panics deep inside a slab or pool.
func (c *Config) Validate() error {
	if c.MaxFramesInFlight < 1 {
		return fmt.Errorf("config: max_frames_in_flight must be >= 1, got %d", c.MaxFramesInFlight)
	}
	if c.MaxDescriptorPoolSize == 0 {
		return fmt.Errorf("config: max_descriptor_pool_size must be > 0")
	}
	if c.PipelineCacheFramesToPersist == 0 {
		return fmt.Errorf("config: pipeline_cache_frames_to_persist must be > 0")
	}
	if c.JobSystemWorkers < 0 {
		return fmt.Errorf("config: job_system_workers must be >= 0, got %d", c.JobSystemWorkers)
	}
	return nil
}

// LoadConfig reads and decodes a TOML config file over DefaultConfig, then
// validates it. Fields absent from the file keep their default values; a
// field set explicitly, even to zero, overrides the default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	LogInfo("loaded config from %s (max_frames_in_flight=%d)", path, cfg.MaxFramesInFlight)
	return cfg, nil
}
