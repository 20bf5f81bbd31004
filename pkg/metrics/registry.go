// Package metrics wraps a Prometheus registry with the gauges and counters
// the asset-loading core exposes for monitoring: loader pool occupancy,
// buffer pool recycling efficiency, and texture cache hit rate. One
// *prometheus.Registry holds one struct field per collector, named by a
// consistent gauge-per-resource convention.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the collectors texturestream registers. All fields are
// safe for concurrent use, matching the underlying Prometheus types.
type Registry struct {
	registry *prometheus.Registry

	// Loader pool metrics
	loaderPendingRequests prometheus.Gauge
	loaderActiveTasks     prometheus.Gauge
	loaderBusyWorkers     prometheus.Gauge
	loaderWorkerCount     prometheus.Gauge
	loaderRequestsTotal   prometheus.Counter
	loaderRequestsFailed  prometheus.Counter
	loaderFetchesTotal    prometheus.Counter

	// Buffer pool metrics
	bufferPoolSize        prometheus.Gauge
	bufferPoolBytes       prometheus.Gauge
	bufferPoolAllocations prometheus.Counter

	// Texture cache metrics
	cacheCurrentMemory prometheus.Gauge
	cacheMaxMemory     prometheus.Gauge
	cacheEntryCount    prometheus.Gauge
	cacheHitsTotal     prometheus.Counter
	cacheMissesTotal   prometheus.Counter
}

// NewRegistry creates a Registry with every collector registered against a
// fresh *prometheus.Registry.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		loaderPendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_loader_pending_requests",
			Help: "Sum of per-worker request queue depths.",
		}),
		loaderActiveTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_loader_active_tasks",
			Help: "Requests dispatched but not yet fetched.",
		}),
		loaderBusyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_loader_busy_workers",
			Help: "Workers currently mid-request.",
		}),
		loaderWorkerCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_loader_worker_count",
			Help: "Worker goroutines the pool was initialized with.",
		}),
		loaderRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "texturestream_loader_requests_total",
			Help: "Requests accepted into a worker queue.",
		}),
		loaderRequestsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "texturestream_loader_requests_failed_total",
			Help: "Requests rejected because every worker queue was full.",
		}),
		loaderFetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "texturestream_loader_fetches_total",
			Help: "Results handed back via Fetch.",
		}),

		bufferPoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_bufferpool_population",
			Help: "Buffers currently resident in the recycler.",
		}),
		bufferPoolBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_bufferpool_pooled_bytes",
			Help: "Aggregate capacity of pooled buffers.",
		}),
		bufferPoolAllocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "texturestream_bufferpool_allocations_total",
			Help: "Lifetime count of fresh buffer allocations.",
		}),

		cacheCurrentMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_cache_current_memory_bytes",
			Help: "Current texture cache memory usage.",
		}),
		cacheMaxMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_cache_max_memory_bytes",
			Help: "Configured texture cache memory budget.",
		}),
		cacheEntryCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "texturestream_cache_entries",
			Help: "Number of cached textures.",
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "texturestream_cache_hits_total",
			Help: "Cache Get calls that found an entry.",
		}),
		cacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "texturestream_cache_misses_total",
			Help: "Cache Get calls that found nothing.",
		}),
	}

	r.registerAll()
	return r
}

func (r *Registry) registerAll() {
	collectors := []prometheus.Collector{
		r.loaderPendingRequests,
		r.loaderActiveTasks,
		r.loaderBusyWorkers,
		r.loaderWorkerCount,
		r.loaderRequestsTotal,
		r.loaderRequestsFailed,
		r.loaderFetchesTotal,
		r.bufferPoolSize,
		r.bufferPoolBytes,
		r.bufferPoolAllocations,
		r.cacheCurrentMemory,
		r.cacheMaxMemory,
		r.cacheEntryCount,
		r.cacheHitsTotal,
		r.cacheMissesTotal,
	}
	for _, c := range collectors {
		r.registry.MustRegister(c)
	}
}

// GetRegistry returns the underlying Prometheus registry, e.g. to back an
// HTTP /metrics handler via promhttp.HandlerFor.
func (r *Registry) GetRegistry() *prometheus.Registry {
	return r.registry
}

// SetLoaderPending records the loader pool's current pending request sum.
func (r *Registry) SetLoaderPending(n int) { r.loaderPendingRequests.Set(float64(n)) }

// SetLoaderActiveTasks records the loader pool's active-task counter.
func (r *Registry) SetLoaderActiveTasks(n int64) { r.loaderActiveTasks.Set(float64(n)) }

// SetLoaderBusyWorkers records how many workers are mid-request.
func (r *Registry) SetLoaderBusyWorkers(n int) { r.loaderBusyWorkers.Set(float64(n)) }

// SetLoaderWorkerCount records the pool's worker goroutine count.
func (r *Registry) SetLoaderWorkerCount(n int) { r.loaderWorkerCount.Set(float64(n)) }

// IncLoaderRequestsAccepted counts one successfully dispatched Request.
func (r *Registry) IncLoaderRequestsAccepted() { r.loaderRequestsTotal.Inc() }

// IncLoaderRequestsFailed counts one Request rejected for lack of queue room.
func (r *Registry) IncLoaderRequestsFailed() { r.loaderRequestsFailed.Inc() }

// IncLoaderFetches counts one successful Fetch.
func (r *Registry) IncLoaderFetches() { r.loaderFetchesTotal.Inc() }

// SetBufferPoolOccupancy records the pool's current population and
// aggregate pooled bytes.
func (r *Registry) SetBufferPoolOccupancy(poolSize int, pooledBytes uint64) {
	r.bufferPoolSize.Set(float64(poolSize))
	r.bufferPoolBytes.Set(float64(pooledBytes))
}

// AddBufferPoolAllocations adds delta fresh allocations observed since the
// last report (the lifetime counter only moves forward, so callers report
// deltas against bufferpool.Stats.TotalAllocations rather than the raw total).
func (r *Registry) AddBufferPoolAllocations(delta uint64) {
	if delta > 0 {
		r.bufferPoolAllocations.Add(float64(delta))
	}
}

// SetCacheStats records a texture cache occupancy snapshot. Hits and misses
// are not part of it; they go through AddCacheHits/AddCacheMisses as deltas
// against the caller's last-seen totals, since Prometheus counters may only
// move forward.
func (r *Registry) SetCacheStats(currentMemory, maxMemory uint64, entries int) {
	r.cacheCurrentMemory.Set(float64(currentMemory))
	r.cacheMaxMemory.Set(float64(maxMemory))
	r.cacheEntryCount.Set(float64(entries))
}

// AddCacheHits adds delta cache hits observed since the last report.
func (r *Registry) AddCacheHits(delta uint64) {
	if delta > 0 {
		r.cacheHitsTotal.Add(float64(delta))
	}
}

// AddCacheMisses adds delta cache misses observed since the last report.
func (r *Registry) AddCacheMisses(delta uint64) {
	if delta > 0 {
		r.cacheMissesTotal.Add(float64(delta))
	}
}
