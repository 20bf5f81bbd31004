package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireOnEmptyPoolAllocates(t *testing.T) {
	p := New()

	buf := p.Acquire(1000)
	require.Len(t, buf, 0)
	require.GreaterOrEqual(t, cap(buf), 1000)

	stats := p.Stats()
	require.EqualValues(t, 1, stats.TotalAllocations)
	require.Equal(t, 0, stats.PoolSize)
}

func TestAcquireZeroSizeAllocatesAndCounts(t *testing.T) {
	p := New()

	buf := p.Acquire(0)
	require.NotNil(t, buf)
	require.Len(t, buf, 0)
	require.EqualValues(t, 1, p.Stats().TotalAllocations)
}

func TestReleaseThenAcquireReusesBuffer(t *testing.T) {
	p := New()

	buf := p.Acquire(1000)
	p.Release(buf)

	require.Equal(t, 1, p.Stats().PoolSize)

	reused := p.Acquire(500)
	require.GreaterOrEqual(t, cap(reused), 1000)
	require.EqualValues(t, 1, p.Stats().TotalAllocations, "second acquire should not allocate")
	require.Equal(t, 0, p.Stats().PoolSize, "reused buffer leaves the pool")
}

func TestAcquirePrefersBestFit(t *testing.T) {
	p := New()

	small := make([]byte, 0, 100)
	medium := make([]byte, 0, 500)
	large := make([]byte, 0, 2000)

	p.Release(small)
	p.Release(medium)
	p.Release(large)

	got := p.Acquire(400)
	require.Equal(t, 500, cap(got), "best fit should pick the 500-capacity buffer")
}

func TestAcquireExactMatchShortCircuits(t *testing.T) {
	p := New()

	p.Release(make([]byte, 0, 1024))
	p.Release(make([]byte, 0, 2048))

	got := p.Acquire(1024)
	require.Equal(t, 1024, cap(got))
}

func TestReleaseDropsZeroCapacityBuffer(t *testing.T) {
	p := New()

	var nilBuf []byte
	p.Release(nilBuf)

	require.Equal(t, 0, p.Stats().PoolSize)
}

func TestReleaseDropsOversizedBuffer(t *testing.T) {
	p := New()

	oversized := make([]byte, 0, MaxBufferSize+1)
	p.Release(oversized)

	require.Equal(t, 0, p.Stats().PoolSize)
}

func TestReleaseAtCapacityEvictsSmallestWhenIncomingLarger(t *testing.T) {
	p := New()

	for i := 0; i < MaxPoolSize; i++ {
		p.Release(make([]byte, 0, 100+i))
	}
	require.Equal(t, MaxPoolSize, p.Stats().PoolSize)

	// Smallest resident has capacity 100; release something strictly larger.
	p.Release(make([]byte, 0, 100_000))

	require.Equal(t, MaxPoolSize, p.Stats().PoolSize, "pool population stays capped")

	got := p.Acquire(99_999)
	require.Equal(t, 100_000, cap(got), "the newly evicted-in buffer should now be resident")
}

func TestReleaseAtCapacityDropsIncomingWhenNotLarger(t *testing.T) {
	p := New()

	for i := 0; i < MaxPoolSize; i++ {
		p.Release(make([]byte, 0, 1000+i))
	}

	// Smallest resident capacity is 1000; this is smaller than all residents.
	p.Release(make([]byte, 0, 10))

	require.Equal(t, MaxPoolSize, p.Stats().PoolSize)
	got := p.Acquire(5)
	require.NotEqual(t, 10, cap(got), "the too-small incoming buffer must have been dropped")
}

func TestClearDropsBuffersButKeepsAllocationCounter(t *testing.T) {
	p := New()

	p.Acquire(100) // allocates, counter = 1
	p.Release(make([]byte, 0, 200))

	p.Clear()

	stats := p.Stats()
	require.Equal(t, 0, stats.PoolSize)
	require.EqualValues(t, 1, stats.TotalAllocations)
}

func TestPoolPopulationNeverExceedsMax(t *testing.T) {
	p := New()

	for i := 0; i < MaxPoolSize*3; i++ {
		p.Release(make([]byte, 0, 10+i))
	}

	require.LessOrEqual(t, p.Stats().PoolSize, MaxPoolSize)
}
