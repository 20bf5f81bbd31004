package config

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigMatchesCoreDefaults(t *testing.T) {
	c := NewDefaultConfig()

	require.Equal(t, 16384, c.Loader.RequestQueueSize)
	require.Equal(t, 32768, c.Loader.CompletedQueueSize)
	require.EqualValues(t, 256*1024*1024, c.Cache.MaxMemoryBytes)
}

func TestAddFlagsToCommandBindsOverrides(t *testing.T) {
	c := NewDefaultConfig()
	cmd := &cobra.Command{Use: "test"}
	c.AddFlagsToCommand(cmd)

	require.NoError(t, cmd.PersistentFlags().Set("workers", "8"))
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "debug"))

	require.Equal(t, 8, c.Loader.Workers)
	require.Equal(t, "debug", c.LogLevel)
}

func TestResolvedWorkerCountHonorsExplicitValue(t *testing.T) {
	c := NewDefaultConfig()
	c.Loader.Workers = 6
	require.Equal(t, 6, c.ResolvedWorkerCount())
}

func TestResolvedWorkerCountAutoDetectHasFloor(t *testing.T) {
	c := NewDefaultConfig()
	c.Loader.Workers = 0
	require.GreaterOrEqual(t, c.ResolvedWorkerCount(), 4)
}
