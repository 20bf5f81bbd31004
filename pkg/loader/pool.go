// Package loader implements the fixed-worker asynchronous file/decode
// pipeline: the orchestrator that dispatches filename requests to the
// least-loaded worker, performs the archive read and optional decode on a
// worker goroutine, and hands results back through a shared completion
// path. No result ordering is guaranteed across requests; within one
// worker's own queue, FIFO order is preserved.
package loader

import (
	"sync"
	"sync/atomic"

	"texturestream/pkg/bufferpool"
	"texturestream/pkg/helper/errors"
	"texturestream/pkg/helper/log"
	"texturestream/pkg/metrics"
	"texturestream/pkg/queue"
)

const (
	// RequestQueueSize is the per-worker request ring capacity.
	RequestQueueSize = 16384
	// CompletedQueueSize is the shared completion ring capacity.
	CompletedQueueSize = 32768

	minWorkers = 4
	maxWorkers = 16
)

type worker struct {
	requestQueue *queue.SPSC[LoadRequest]
	busy         atomic.Bool
}

// Pool owns the worker goroutines, their per-worker request queues, and the
// shared completion queue. It dispatches incoming requests to the
// least-loaded worker and hands results back through one shared completion
// path.
type Pool struct {
	logger  log.Logger
	archive Archive
	buffers *bufferpool.Pool
	metrics *metrics.Registry

	requestQueueSize   int
	completedQueueSize int

	workers     []*worker
	completed   *queue.SPSC[LoadResult]
	completedMu sync.Mutex // serializes the N-producer push onto completed

	shutdown    atomic.Bool
	nextRequest atomic.Uint32
	activeTasks atomic.Int64
	wg          sync.WaitGroup

	mu sync.Mutex // guards initialize/shutdown lifecycle transitions
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithQueueSizes overrides the per-worker request ring and shared
// completion ring capacities (defaults RequestQueueSize/CompletedQueueSize).
// Both are rounded up to a power of two by queue.New.
func WithQueueSizes(requestQueueSize, completedQueueSize int) Option {
	return func(p *Pool) {
		p.requestQueueSize = requestQueueSize
		p.completedQueueSize = completedQueueSize
	}
}

// New creates an uninitialized pool. archive and buffers are the shared
// collaborators every worker uses to perform its read; buffers is also
// lent directly to archive, since the buffer pool is shared between the
// pool's workers and the archive reader.
func New(archive Archive, buffers *bufferpool.Pool, logger log.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = log.NewLogger()
	}
	p := &Pool{
		archive:            archive,
		buffers:            buffers,
		logger:             logger,
		requestQueueSize:   RequestQueueSize,
		completedQueueSize: CompletedQueueSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.requestQueueSize <= 0 {
		p.requestQueueSize = RequestQueueSize
	}
	if p.completedQueueSize <= 0 {
		p.completedQueueSize = CompletedQueueSize
	}
	return p
}

// Initialize spawns threadCount workers, clamped to [4, 16]; zero requests
// half of runtime.NumCPU (minimum 4). It fails only on double-initialization;
// goroutine creation itself cannot fail, so there is no spawn-failure
// rollback path to trigger.
func (p *Pool) Initialize(threadCount int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.workers) != 0 {
		p.logger.Error("loader: already initialized", nil)
		return false
	}

	if threadCount == 0 {
		threadCount = runtimeHalfNumCPU()
	}
	threadCount = clamp(threadCount, minWorkers, maxWorkers)

	p.logger.WithField("workers", threadCount).Info("loader: initializing")

	p.completed = queue.New[LoadResult](p.completedQueueSize)
	p.shutdown.Store(false)
	p.activeTasks.Store(0)

	workers := make([]*worker, threadCount)
	for i := range workers {
		workers[i] = &worker{requestQueue: queue.New[LoadRequest](p.requestQueueSize)}
	}
	p.workers = workers

	p.wg.Add(threadCount)
	for i := range p.workers {
		go p.runWorker(i)
	}

	return true
}

// SetMetrics attaches a Prometheus registry that Request, Fetch, and
// Report will keep updated. It is optional; a nil or never-called registry
// leaves the pool's behavior unchanged. Not safe to call concurrently with
// Request/Fetch/Report.
func (p *Pool) SetMetrics(m *metrics.Registry) {
	p.metrics = m
}

// Report pushes a snapshot of pending/active/busy/worker-count gauges to
// the attached metrics registry. Intended to be called periodically (e.g.
// from the demo CLI's cron-scheduled stats report) rather than on every
// Request/Fetch, since GetPendingCount and BusyWorkerCount both walk every
// worker.
func (p *Pool) Report() {
	if p.metrics == nil {
		return
	}
	p.metrics.SetLoaderPending(p.GetPendingCount())
	p.metrics.SetLoaderActiveTasks(p.activeTasks.Load())
	p.metrics.SetLoaderBusyWorkers(p.BusyWorkerCount())
	p.metrics.SetLoaderWorkerCount(p.WorkerCount())
}

// Shutdown signals all workers to stop and blocks until they have joined.
// It is idempotent.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if len(p.workers) == 0 {
		p.mu.Unlock()
		return
	}
	p.shutdown.Store(true)
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	p.workers = nil
	p.completed = nil
	p.mu.Unlock()
}

// Request submits filename for loading. decode_image is derived from the
// filename's suffix. The request goes to the least-loaded worker; if that
// worker's queue is full, the remaining workers are scanned round-robin
// starting just after it. Request reports failure, without incrementing
// the active-task count, only if every worker's queue is full.
func (p *Pool) Request(filename string) bool {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	if len(workers) == 0 {
		p.logger.Error("loader: request before initialize", errors.New("not initialized"))
		return false
	}

	req := LoadRequest{
		Filename:    filename,
		RequestID:   p.nextRequest.Add(1) - 1,
		DecodeImage: shouldDecode(filename),
	}

	target := selectLeastBusyWorker(workers)
	if workers[target].requestQueue.Push(req) {
		p.activeTasks.Add(1)
		if p.metrics != nil {
			p.metrics.IncLoaderRequestsAccepted()
		}
		return true
	}

	for i := 1; i < len(workers); i++ {
		idx := (target + i) % len(workers)
		if workers[idx].requestQueue.Push(req) {
			p.activeTasks.Add(1)
			if p.metrics != nil {
				p.metrics.IncLoaderRequestsAccepted()
			}
			return true
		}
	}

	p.logger.WithField("filename", filename).Error("loader: all worker queues full", nil)
	if p.metrics != nil {
		p.metrics.IncLoaderRequestsFailed()
	}
	return false
}

// Fetch pops at most one completed result into out. It never blocks.
func (p *Pool) Fetch(out *LoadResult) bool {
	p.mu.Lock()
	completed := p.completed
	p.mu.Unlock()

	if completed == nil {
		return false
	}

	if completed.Pop(out) {
		p.activeTasks.Add(-1)
		if p.metrics != nil {
			p.metrics.IncLoaderFetches()
		}
		return true
	}
	return false
}

// IsIdle reports whether every dispatched request has been fetched.
func (p *Pool) IsIdle() bool {
	return p.activeTasks.Load() == 0
}

// GetPendingCount sums per-worker request queue depths. It is approximate
// under concurrency and intended for monitoring only.
func (p *Pool) GetPendingCount() int {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	total := 0
	for _, w := range workers {
		total += w.requestQueue.Size()
	}
	return total
}

// BusyWorkerCount reports how many workers are mid-request right now. Each
// worker's busy flag is an instrumentation hook; this is its only reader
// outside the worker itself, and it backs a Prometheus gauge (see
// pkg/metrics).
func (p *Pool) BusyWorkerCount() int {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()

	count := 0
	for _, w := range workers {
		if w.busy.Load() {
			count++
		}
	}
	return count
}

// WorkerCount reports how many workers the pool was initialized with.
func (p *Pool) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

func selectLeastBusyWorker(workers []*worker) int {
	least := 0
	minSize := workers[0].requestQueue.Size()
	for i := 1; i < len(workers); i++ {
		size := workers[i].requestQueue.Size()
		if size < minSize {
			minSize = size
			least = i
		}
	}
	return least
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
