package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"texturestream/pkg/archive"
	"texturestream/pkg/bufferpool"
	"texturestream/pkg/helper/log"
	"texturestream/pkg/helper/util"
	"texturestream/pkg/loader"
	"texturestream/pkg/metrics"
	"texturestream/pkg/texcache"
)

// newPreloadCmd drives the full pipeline end to end: walk --archive-root,
// submit every file through the loader pool with a bounded number of
// concurrent submitters (util.LimitedErrGroup, an errgroup/semaphore-backed
// helper), drain completions into the texture cache, then report pool and
// cache statistics.
func newPreloadCmd() *cobra.Command {
	var submitConcurrency int

	cmd := &cobra.Command{
		Use:   "preload",
		Short: "Preload every file under --archive-root through the asset-loading pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, ctx, cancel := setupCommand(cmd.Context())
			defer cancel()

			files, err := listFiles(cfg.ArchiveRoot)
			if err != nil {
				return fmt.Errorf("listing %s: %w", cfg.ArchiveRoot, err)
			}
			if len(files) == 0 {
				logger.Warn("preload: no files found under archive root")
				return nil
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

			results := util.NewResults()

			submitted := submitAll(ctx, logger, pool, files, submitConcurrency)
			drainAll(pool, cache, results, submitted)

			pool.Report()
			buffers.Report()
			cache.Report()

			stats := cache.Stats()
			bufStats := buffers.Stats()
			fields := map[string]interface{}{
				"files_submitted":    submitted,
				"cache_entries":      stats.EntryCount,
				"cache_hit_rate":     stats.HitRate,
				"cache_memory_bytes": stats.CurrentMemory,
				"bufferpool_allocs":  bufStats.TotalAllocations,
			}
			for name, value := range results.GetAllMetrics() {
				fields[name] = value
			}
			logger.WithFields(fields).Info("preload: complete")

			return nil
		},
	}

	cmd.Flags().IntVar(&submitConcurrency, "submit-concurrency", 8, "Maximum concurrent goroutines submitting requests")

	return cmd
}

// listFiles walks root and returns paths relative to it.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

// submitAll dispatches every file to the pool, bounding the number of
// concurrent submitter goroutines with util.LimitedErrGroup. A Request
// that fails because every worker queue is full is retried with a short
// backoff rather than dropped, since the demo CLI has no other
// backpressure mechanism to apply. Each worker's request queue takes a
// single producer, so the Request calls themselves are serialized.
func submitAll(ctx context.Context, logger log.Logger, pool *loader.Pool, files []string, concurrency int) int {
	g := util.NewLimitedErrGroup(ctx, concurrency)
	submitted := 0
	var requestMu sync.Mutex

	for _, f := range files {
		name := f
		g.Go(func() error {
			for {
				requestMu.Lock()
				ok := pool.Request(name)
				requestMu.Unlock()
				if ok {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Millisecond):
				}
			}
		})
		submitted++
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Warn("preload: submission interrupted")
	}
	return submitted
}

// drainAll pulls exactly `expected` results off the pool, populating the
// texture cache for every result that decoded to pixels and tallying
// decoded bytes / failures in results for the final summary log line.
func drainAll(pool *loader.Pool, cache *texcache.Cache, results *util.Results, expected int) {
	fetched := 0
	for fetched < expected {
		var result loader.LoadResult
		if !pool.Fetch(&result) {
			if pool.IsIdle() && fetched >= expected {
				return
			}
			time.Sleep(time.Millisecond)
			continue
		}
		fetched++

		if result.HasDecodedImage {
			results.AddMetric("decoded_bytes", int64(len(result.DecodedImage.Pixels)))
			cache.Put(result.Filename, texcache.CachedTexture{
				Pixels:     result.DecodedImage.Pixels,
				Width:      result.DecodedImage.Width,
				Height:     result.DecodedImage.Height,
				MemorySize: uint64(len(result.DecodedImage.Pixels)),
				Filename:   result.Filename,
			})
		} else {
			results.AddMetric("decode_failures", 1)
		}
	}
}
