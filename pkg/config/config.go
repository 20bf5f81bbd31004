// Package config holds texturestream's demo CLI configuration: worker
// count, queue sizes, cache budget, archive root, and log level. Config
// values can be bound onto a cobra.Command's flag set, or loaded from and
// saved to a YAML file.
package config

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Config is the root configuration for the texturestreamctl demo CLI.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Loader configuration
	Loader LoaderConfig `yaml:"loader"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// ArchiveRoot is the directory the demo's DirArchive reads from.
	ArchiveRoot string `yaml:"archive_root"`
}

// LoaderConfig mirrors FileLoaderPool.Initialize's tunables.
type LoaderConfig struct {
	// Workers is the worker goroutine count (0 = auto-detect, clamped to
	// [4, 16] by loader.Pool.Initialize).
	Workers int `yaml:"workers"`
	// RequestQueueSize is the per-worker request ring capacity.
	RequestQueueSize int `yaml:"request_queue_size"`
	// CompletedQueueSize is the shared completion ring capacity.
	CompletedQueueSize int `yaml:"completed_queue_size"`
}

// CacheConfig mirrors texcache.New's tunables.
type CacheConfig struct {
	// MaxMemoryBytes is the texture cache's total byte budget.
	MaxMemoryBytes uint64 `yaml:"max_memory_bytes"`
}

// NewDefaultConfig returns a Config whose queue sizes equal the loader's
// own defaults (loader.RequestQueueSize, loader.CompletedQueueSize), with a
// 256 MiB cache budget, auto-detected worker count, info logging, and the
// current directory as archive root. The values are literals here, not
// read from the loader package.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Loader: LoaderConfig{
			Workers:            0,
			RequestQueueSize:   16384,
			CompletedQueueSize: 32768,
		},
		Cache: CacheConfig{
			MaxMemoryBytes: 256 * 1024 * 1024,
		},
		ArchiveRoot: ".",
	}
}

// AddFlagsToCommand binds every Config field onto cmd's persistent flag
// set.
func (c *Config) AddFlagsToCommand(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&c.ArchiveRoot, "archive-root", c.ArchiveRoot, "Directory the demo archive reads packed assets from")

	cmd.PersistentFlags().IntVar(&c.Loader.Workers, "workers", c.Loader.Workers, "Loader worker count, clamped to [4, 16] (0 = auto-detect from the CPU count)")
	cmd.PersistentFlags().IntVar(&c.Loader.RequestQueueSize, "request-queue-size", c.Loader.RequestQueueSize, "Per-worker request ring capacity")
	cmd.PersistentFlags().IntVar(&c.Loader.CompletedQueueSize, "completed-queue-size", c.Loader.CompletedQueueSize, "Shared completion ring capacity")

	cmd.PersistentFlags().Uint64Var(&c.Cache.MaxMemoryBytes, "cache-memory-bytes", c.Cache.MaxMemoryBytes, "Texture cache byte budget")
}

// ResolvedWorkerCount applies the same auto-detect rule loader.Pool.Initialize
// uses (half of runtime.NumCPU, minimum 4) so the CLI can report the worker
// count it is about to request before Initialize clamps it internally.
func (c *Config) ResolvedWorkerCount() int {
	if c.Loader.Workers != 0 {
		return c.Loader.Workers
	}
	n := runtime.NumCPU() / 2
	if n < 4 {
		return 4
	}
	return n
}
