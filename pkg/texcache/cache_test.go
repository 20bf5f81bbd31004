package texcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tex(name string, size uint64) CachedTexture {
	return CachedTexture{
		Pixels:     make([]byte, size),
		Width:      1,
		Height:     1,
		MemorySize: size,
		Filename:   name,
	}
}

func TestPutThenGetReturnsSameValueAndPromotesToMRU(t *testing.T) {
	c := New(4 * 1024 * 1024)

	v := tex("k1", 1024)
	c.Put("k1", v)
	c.Put("k0", tex("k0", 1024))

	got, ok := c.Get("k1")
	require.True(t, ok)
	require.Equal(t, v, got)
	require.Same(t, c.items["k1"], c.tail.prev, "k1 should be at the MRU end after Get")
}

func TestGetMissIncrementsMisses(t *testing.T) {
	c := New(1024)

	_, ok := c.Get("absent")
	require.False(t, ok)

	stats := c.Stats()
	require.EqualValues(t, 1, stats.Misses)
	require.EqualValues(t, 0, stats.Hits)
}

func TestOversizeEntryIsRejected(t *testing.T) {
	c := New(4 * 1024 * 1024) // max_memory/4 == 1 MiB

	big := tex("atlas", 2*1024*1024)
	c.Put("atlas", big)

	_, ok := c.Get("atlas")
	require.False(t, ok, "an entry larger than max_memory/4 must never be cached")

	stats := c.Stats()
	require.EqualValues(t, 0, stats.CurrentMemory)
	require.EqualValues(t, 0, stats.EntryCount)
}

func TestExactQuarterBudgetIsAccepted(t *testing.T) {
	c := New(4 * 1024 * 1024)

	exact := tex("quarter", 1024*1024) // == max_memory/4, not strictly greater
	c.Put("quarter", exact)

	_, ok := c.Get("quarter")
	require.True(t, ok)
}

func TestPutEvictsLeastRecentlyUsedUnderPressure(t *testing.T) {
	c := New(4 * 1024 * 1024)

	mib := uint64(1024 * 1024)
	c.Put("k1", tex("k1", mib))
	c.Put("k2", tex("k2", mib))
	c.Put("k3", tex("k3", mib))
	c.Put("k4", tex("k4", mib))

	// Touch k1 so it becomes MRU; k2 is now the LRU entry.
	_, ok := c.Get("k1")
	require.True(t, ok)

	c.Put("k5", tex("k5", mib))

	_, ok = c.Get("k2")
	require.False(t, ok, "k2 should have been evicted as the least-recently-used entry")

	_, ok = c.Get("k1")
	require.True(t, ok, "k1 was touched before k5's insertion and must survive")
}

func TestPutReplacingExistingKeyLeavesExactlyOneEntry(t *testing.T) {
	c := New(4 * 1024 * 1024)

	c.Put("k", tex("k", 1024))
	c.Put("k", tex("k", 2048))

	stats := c.Stats()
	require.Equal(t, 1, stats.EntryCount)
	require.EqualValues(t, 2048, stats.CurrentMemory)

	got, ok := c.Get("k")
	require.True(t, ok)
	require.EqualValues(t, 2048, got.MemorySize)
}

func TestCurrentMemoryNeverExceedsMax(t *testing.T) {
	c := New(2 * 1024 * 1024)

	for i := 0; i < 10; i++ {
		c.Put(string(rune('a'+i)), tex(string(rune('a'+i)), 512*1024))
	}

	stats := c.Stats()
	require.LessOrEqual(t, stats.CurrentMemory, stats.MaxMemory)
}

func TestClearResetsMemoryButNotHitMissCounters(t *testing.T) {
	c := New(1024 * 1024)
	c.Put("k", tex("k", 1024))
	c.Get("k")
	c.Get("missing")

	c.Clear()

	stats := c.Stats()
	require.EqualValues(t, 0, stats.CurrentMemory)
	require.Equal(t, 0, stats.EntryCount)
	require.EqualValues(t, 1, stats.Hits)
	require.EqualValues(t, 1, stats.Misses)
}

func TestHitRateIsZeroWhenNoAccessesYet(t *testing.T) {
	c := New(1024)
	require.Zero(t, c.Stats().HitRate)
}

func TestHitRateReflectsHitsOverTotal(t *testing.T) {
	c := New(1024 * 1024)
	c.Put("k", tex("k", 1024))

	c.Get("k")
	c.Get("k")
	c.Get("missing")

	stats := c.Stats()
	require.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}
