package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"texturestream/pkg/archive"
	"texturestream/pkg/bufferpool"
	"texturestream/pkg/config"
	"texturestream/pkg/loader"
	"texturestream/pkg/metrics"
	"texturestream/pkg/texcache"
)

// newServeCmd starts a loader pool and texture cache with no fixed
// workload and keeps them alive until interrupted, logging a periodic
// stats report on a robfig/cron schedule.
func newServeCmd() *cobra.Command {
	var statsSchedule string
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the loader pool and texture cache with a periodic stats report",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, ctx, cancel := setupCommand(cmd.Context())
			defer cancel()

			if configFile != "" {
				logger.WithField("file", configFile).Info("serve: loading configuration from file")
				loaded, err := config.LoadFromFile(configFile)
				if err != nil {
					return fmt.Errorf("loading configuration from %s: %w", configFile, err)
				}
				cfg = loaded
			}

			reg := metrics.NewRegistry()

			buffers := bufferpool.New()
			buffers.SetMetrics(reg)

			dirArchive := archive.NewDirArchive(cfg.ArchiveRoot, logger)

			pool := loader.New(dirArchive, buffers, logger,
				loader.WithQueueSizes(cfg.Loader.RequestQueueSize, cfg.Loader.CompletedQueueSize))
			pool.SetMetrics(reg)
			if !pool.Initialize(cfg.ResolvedWorkerCount()) {
				return fmt.Errorf("loader pool failed to initialize")
			}
			defer pool.Shutdown()

			cache := texcache.New(cfg.Cache.MaxMemoryBytes)
			cache.SetMetrics(reg)

			c := cron.New()
			if _, err := c.AddFunc(statsSchedule, func() {
				pool.Report()
				buffers.Report()
				cache.Report()

				cacheStats := cache.Stats()
				logger.WithFields(map[string]interface{}{
					"pending":    pool.GetPendingCount(),
					"busy":       pool.BusyWorkerCount(),
					"cache_hits": cacheStats.Hits,
					"cache_rate": cacheStats.HitRate,
				}).Info("serve: stats report")
			}); err != nil {
				return fmt.Errorf("invalid stats schedule %q: %w", statsSchedule, err)
			}
			c.Start()
			defer c.Stop()

			logger.WithField("workers", pool.WorkerCount()).Info("serve: loader pool running")

			// Drain completions as they arrive so IsIdle/stats stay
			// meaningful for anything submitted by another process sharing
			// this archive root in a future iteration; for the demo CLI
			// this loop simply idles until shutdown is requested.
			for {
				var result loader.LoadResult
				if pool.Fetch(&result) {
					logger.WithField("file", result.Filename).Debug("serve: fetched result")
					continue
				}
				select {
				case <-ctx.Done():
					logger.Info("serve: shutting down")
					return nil
				case <-time.After(50 * time.Millisecond):
				}
			}
		},
	}

	cmd.Flags().StringVar(&statsSchedule, "stats-schedule", "@every 10s", "Cron schedule for the periodic stats report")
	cmd.Flags().StringVar(&configFile, "config", "", "Load configuration from a YAML file, overriding flag defaults")

	return cmd
}
