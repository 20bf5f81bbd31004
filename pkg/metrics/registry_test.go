package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersEveryCollector(t *testing.T) {
	r := NewRegistry()

	metricFamilies, err := r.GetRegistry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metricFamilies)
}

func TestLoaderGaugesReflectLastSetValue(t *testing.T) {
	r := NewRegistry()

	r.SetLoaderPending(42)
	r.SetLoaderActiveTasks(7)
	r.SetLoaderBusyWorkers(3)
	r.SetLoaderWorkerCount(8)

	require.Equal(t, float64(42), testutil.ToFloat64(r.loaderPendingRequests))
	require.Equal(t, float64(7), testutil.ToFloat64(r.loaderActiveTasks))
	require.Equal(t, float64(3), testutil.ToFloat64(r.loaderBusyWorkers))
	require.Equal(t, float64(8), testutil.ToFloat64(r.loaderWorkerCount))
}

func TestLoaderCountersAccumulate(t *testing.T) {
	r := NewRegistry()

	r.IncLoaderRequestsAccepted()
	r.IncLoaderRequestsAccepted()
	r.IncLoaderRequestsFailed()
	r.IncLoaderFetches()

	require.Equal(t, float64(2), testutil.ToFloat64(r.loaderRequestsTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(r.loaderRequestsFailed))
	require.Equal(t, float64(1), testutil.ToFloat64(r.loaderFetchesTotal))
}

func TestCacheHitMissDeltasAccumulate(t *testing.T) {
	r := NewRegistry()

	r.AddCacheHits(5)
	r.AddCacheHits(3)
	r.AddCacheMisses(1)
	r.AddCacheMisses(0) // a zero delta must not register a spurious Add

	require.Equal(t, float64(8), testutil.ToFloat64(r.cacheHitsTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(r.cacheMissesTotal))
}

func TestBufferPoolOccupancyReflectsLastSnapshot(t *testing.T) {
	r := NewRegistry()

	r.SetBufferPoolOccupancy(12, 4096)
	r.AddBufferPoolAllocations(6)

	require.Equal(t, float64(12), testutil.ToFloat64(r.bufferPoolSize))
	require.Equal(t, float64(4096), testutil.ToFloat64(r.bufferPoolBytes))
	require.Equal(t, float64(6), testutil.ToFloat64(r.bufferPoolAllocations))
}
