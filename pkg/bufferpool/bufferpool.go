// Package bufferpool recycles raw byte buffers across archive reads so the
// file loader pool's workers don't pay an allocation for every file. The
// recycling policy biases toward retaining the largest resident buffers,
// since those are the expensive ones to reallocate.
package bufferpool

import (
	"sync"

	"texturestream/pkg/metrics"
)

const (
	// MaxPoolSize is the maximum number of buffers the pool will retain.
	MaxPoolSize = 64
	// MaxBufferSize is the largest buffer capacity the pool will accept;
	// anything bigger is allocated fresh and never pooled.
	MaxBufferSize = 64 * 1024 * 1024
)

type pooledBuffer struct {
	buf      []byte
	capacity int
}

// Pool is a thread-safe recycler of byte buffers indexed by capacity. All
// operations are serialized by a single mutex; contention is expected to be
// low relative to the archive read each Acquire/Release straddles.
type Pool struct {
	mu               sync.Mutex
	buffers          []pooledBuffer
	totalAllocations uint64

	metrics                *metrics.Registry
	lastReportedAllocation uint64
}

// New creates an empty buffer pool.
func New() *Pool {
	return &Pool{}
}

// Acquire returns a buffer with capacity at least minSize and length zero.
// It selects the smallest resident buffer that fits (best fit, not first
// fit), exiting early on an exact match. If nothing fits, it allocates a
// fresh buffer with reserved capacity minSize and increments the lifetime
// allocation counter. Buffer contents are unspecified — the caller must not
// assume zero-initialized data beyond what the Go runtime already zeroes on
// fresh allocation.
func (p *Pool) Acquire(minSize int) []byte {
	p.mu.Lock()

	bestIndex := -1
	bestCapacity := -1

	for i, pb := range p.buffers {
		if pb.capacity >= minSize && (bestIndex == -1 || pb.capacity < bestCapacity) {
			bestIndex = i
			bestCapacity = pb.capacity
			if bestCapacity == minSize {
				break
			}
		}
	}

	if bestIndex != -1 {
		buf := p.buffers[bestIndex].buf
		p.buffers = append(p.buffers[:bestIndex], p.buffers[bestIndex+1:]...)
		p.mu.Unlock()
		return buf[:0]
	}

	p.totalAllocations++
	p.mu.Unlock()
	return make([]byte, 0, minSize)
}

// Release returns buf to the pool for future reuse. Buffers with zero or
// oversized capacity are dropped outright. Once the pool is at capacity,
// the incoming buffer replaces the smallest resident only if it is
// strictly larger; otherwise it is dropped. Both drops are
// correctness-preserving: a future Acquire always falls back to a fresh
// allocation.
func (p *Pool) Release(buf []byte) {
	capacity := cap(buf)
	if capacity == 0 || capacity > MaxBufferSize {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buffers) < MaxPoolSize {
		p.buffers = append(p.buffers, pooledBuffer{buf: buf, capacity: capacity})
		return
	}

	smallestIdx := 0
	for i, pb := range p.buffers {
		if pb.capacity < p.buffers[smallestIdx].capacity {
			smallestIdx = i
		}
	}

	if p.buffers[smallestIdx].capacity < capacity {
		p.buffers[smallestIdx] = pooledBuffer{buf: buf, capacity: capacity}
	}
}

// Stats reports a snapshot of pool occupancy.
type Stats struct {
	PoolSize         int
	TotalAllocations uint64
	TotalPooledBytes uint64
}

// Stats returns the current pool population, lifetime allocation count, and
// aggregate pooled bytes.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var pooledBytes uint64
	for _, pb := range p.buffers {
		pooledBytes += uint64(pb.capacity)
	}

	return Stats{
		PoolSize:         len(p.buffers),
		TotalAllocations: p.totalAllocations,
		TotalPooledBytes: pooledBytes,
	}
}

// Clear drops all pooled buffers. The lifetime allocation counter is left
// untouched.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffers = nil
}

// SetMetrics attaches a Prometheus registry that Report will keep updated.
// Optional; nil disables reporting.
func (p *Pool) SetMetrics(m *metrics.Registry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = m
}

// Report pushes a snapshot of population, pooled bytes, and the delta of
// fresh allocations since the last Report call to the attached metrics
// registry. A no-op if no registry is attached.
func (p *Pool) Report() {
	p.mu.Lock()
	if p.metrics == nil {
		p.mu.Unlock()
		return
	}

	var pooledBytes uint64
	for _, pb := range p.buffers {
		pooledBytes += uint64(pb.capacity)
	}
	poolSize := len(p.buffers)
	delta := p.totalAllocations - p.lastReportedAllocation
	p.lastReportedAllocation = p.totalAllocations
	m := p.metrics
	p.mu.Unlock()

	m.SetBufferPoolOccupancy(poolSize, pooledBytes)
	m.AddBufferPoolAllocations(delta)
}
