// Package texcache implements a byte-budgeted LRU cache for decoded
// texture payloads, consulted by the main thread before submitting a load
// and populated after consuming a completion. Capacity is tracked in
// bytes rather than entry count, since a texture atlas and a 4x4 icon
// cost wildly different amounts of GPU memory for the "same" one cache
// slot.
package texcache

import (
	"bytes"
	"sync"
	"sync/atomic"

	"texturestream/pkg/metrics"
)

// CachedTexture is a decoded pixel payload plus the caller-declared memory
// cost used for budgeting. MemorySize may differ from len(Pixels) if
// GPU-side overhead (mip chains, padding) is counted.
type CachedTexture struct {
	Pixels     []byte
	Width      int32
	Height     int32
	MemorySize uint64
	Filename   string
}

type entry struct {
	texture CachedTexture
	prev    *entry
	next    *entry
}

// Cache is a thread-safe, byte-budgeted LRU keyed by filename. A single
// mutex guards the map and the doubly-linked LRU list; hit/miss counters
// are independent atomics outside that mutex.
type Cache struct {
	mu            sync.Mutex
	items         map[string]*entry
	head          *entry // sentinel; head.next is least-recently-used
	tail          *entry // sentinel; tail.prev is most-recently-used
	maxMemory     uint64
	currentMemory uint64

	hits   atomic.Uint64
	misses atomic.Uint64

	metricsMu          sync.Mutex
	metrics            *metrics.Registry
	lastReportedHits   uint64
	lastReportedMisses uint64
}

// New creates a cache budgeted to maxMemoryBytes total pixel payload.
func New(maxMemoryBytes uint64) *Cache {
	c := &Cache{
		items:     make(map[string]*entry),
		maxMemory: maxMemoryBytes,
	}
	c.head = &entry{}
	c.tail = &entry{}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get looks up filename, promoting it to the most-recently-used position on
// a hit. The returned CachedTexture is an owned copy — the cache retains
// its own.
func (c *Cache) Get(filename string) (CachedTexture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[filename]
	if !ok {
		c.misses.Add(1)
		return CachedTexture{}, false
	}

	c.unlink(e)
	c.appendTail(e)

	c.hits.Add(1)
	out := e.texture
	out.Pixels = bytes.Clone(e.texture.Pixels)
	return out, true
}

// Put inserts or replaces filename's cached texture. If adding it would
// exceed MaxMemory, the least-recently-used entries are evicted first. A
// texture larger than MaxMemory/4 is then not inserted; the size check
// runs after that eviction, so entries evicted to make room for it stay
// evicted.
func (c *Cache) Put(filename string, texture CachedTexture) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[filename]; ok {
		c.currentMemory -= existing.texture.MemorySize
		c.unlink(existing)
		delete(c.items, filename)
	}

	for c.currentMemory+texture.MemorySize > c.maxMemory && len(c.items) > 0 {
		c.evictOldest()
	}

	if texture.MemorySize > c.maxMemory/4 {
		return
	}

	e := &entry{texture: texture}
	c.appendTail(e)
	c.items[filename] = e
	c.currentMemory += texture.MemorySize
}

// Clear drops all entries and resets current memory usage. Hit/miss
// counters are left untouched.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.currentMemory = 0
}

// Stats is a snapshot of cache occupancy and hit ratio.
type Stats struct {
	CurrentMemory uint64
	MaxMemory     uint64
	EntryCount    int
	Hits          uint64
	Misses        uint64
	HitRate       float64
}

// Stats returns a snapshot of cache state and counters. The hit/miss
// counters are read after the lock is released, so they may include
// accesses newer than the occupancy figures.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entryCount := len(c.items)
	currentMemory := c.currentMemory
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		CurrentMemory: currentMemory,
		MaxMemory:     c.maxMemory,
		EntryCount:    entryCount,
		Hits:          hits,
		Misses:        misses,
		HitRate:       hitRate,
	}
}

// SetMetrics attaches a Prometheus registry that Report will keep updated.
// Optional; nil disables reporting.
func (c *Cache) SetMetrics(m *metrics.Registry) {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	c.metrics = m
}

// Report pushes a snapshot of memory/entry occupancy and the delta of
// hits/misses since the last Report call to the attached metrics registry.
// A no-op if no registry is attached.
func (c *Cache) Report() {
	c.metricsMu.Lock()
	if c.metrics == nil {
		c.metricsMu.Unlock()
		return
	}
	m := c.metrics

	hits := c.hits.Load()
	misses := c.misses.Load()
	hitDelta := hits - c.lastReportedHits
	missDelta := misses - c.lastReportedMisses
	c.lastReportedHits = hits
	c.lastReportedMisses = misses
	c.metricsMu.Unlock()

	stats := c.Stats()
	m.SetCacheStats(stats.CurrentMemory, stats.MaxMemory, stats.EntryCount)
	m.AddCacheHits(hitDelta)
	m.AddCacheMisses(missDelta)
}

func (c *Cache) evictOldest() {
	oldest := c.head.next
	if oldest == c.tail {
		return
	}

	for filename, e := range c.items {
		if e == oldest {
			delete(c.items, filename)
			break
		}
	}

	c.currentMemory -= oldest.texture.MemorySize
	c.unlink(oldest)
}

func (c *Cache) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *Cache) appendTail(e *entry) {
	e.prev = c.tail.prev
	e.next = c.tail
	c.tail.prev.next = e
	c.tail.prev = e
}
