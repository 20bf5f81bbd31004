package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"texturestream/pkg/helper/errors"
)

func TestLoadFromFileWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadFromFileMissingFileReturnsNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSaveThenLoadFromFileRoundTrips(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.Loader.Workers = 8
	cfg.Cache.MaxMemoryBytes = 64 * 1024 * 1024
	cfg.ArchiveRoot = "/packs"

	path := filepath.Join(t.TempDir(), "texturestream.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestSaveToFileCreatesParentDirectory(t *testing.T) {
	cfg := NewDefaultConfig()
	path := filepath.Join(t.TempDir(), "nested", "dir", "texturestream.yaml")

	require.NoError(t, cfg.SaveToFile(path))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestLoadFromFileEnvOverridesFile(t *testing.T) {
	cfg := NewDefaultConfig()
	path := filepath.Join(t.TempDir(), "texturestream.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	t.Setenv("TEXTURESTREAM_LOG_LEVEL", "warn")
	t.Setenv("TEXTURESTREAM_WORKERS", "5")

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "warn", loaded.LogLevel)
	require.Equal(t, 5, loaded.Loader.Workers)
}

func TestLoadFromFileEnvInvalidIntegerFails(t *testing.T) {
	t.Setenv("TEXTURESTREAM_WORKERS", "not-a-number")
	_, err := LoadFromFile("")
	require.Error(t, err)
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LogLevel = "verbose"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroCacheBudget(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cache.MaxMemoryBytes = 0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyArchiveRoot(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.ArchiveRoot = ""
	require.Error(t, cfg.Validate())
}

func TestExpandHomeDirHandlesTildeAndEmpty(t *testing.T) {
	require.Equal(t, "", ExpandHomeDir(""))

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, home, ExpandHomeDir("~"))
	require.Equal(t, filepath.Join(home, "configs/texturestream.yaml"), ExpandHomeDir("~/configs/texturestream.yaml"))
}
