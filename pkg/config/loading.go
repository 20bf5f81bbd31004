package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"texturestream/pkg/helper/errors"
)

// LoadFromFile builds a Config starting from NewDefaultConfig, then
// overlaying a YAML file (if configPath is non-empty) and environment
// variables, in that order. The result is validated before being returned.
func LoadFromFile(configPath string) (*Config, error) {
	cfg := NewDefaultConfig()

	if configPath != "" {
		expandedPath := ExpandHomeDir(configPath)

		if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
			return nil, errors.NotFoundf("configuration file not found: %s", expandedPath)
		}

		data, err := os.ReadFile(expandedPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read configuration file")
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse configuration file")
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromEnv overlays TEXTURESTREAM_-prefixed environment variables onto
// cfg, taking precedence over both defaults and any YAML file already
// applied.
func loadFromEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("TEXTURESTREAM_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("TEXTURESTREAM_ARCHIVE_ROOT"); ok && v != "" {
		cfg.ArchiveRoot = v
	}
	if v, ok := os.LookupEnv("TEXTURESTREAM_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.InvalidInputf("TEXTURESTREAM_WORKERS must be an integer: %s", v)
		}
		cfg.Loader.Workers = n
	}
	if v, ok := os.LookupEnv("TEXTURESTREAM_CACHE_MEMORY_BYTES"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.InvalidInputf("TEXTURESTREAM_CACHE_MEMORY_BYTES must be an unsigned integer: %s", v)
		}
		cfg.Cache.MaxMemoryBytes = n
	}
	return nil
}

// SaveToFile writes cfg to filePath as YAML, creating parent directories
// as needed.
func (c *Config) SaveToFile(filePath string) error {
	expandedPath := ExpandHomeDir(filePath)

	if dir := filepath.Dir(expandedPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create directory")
		}
	}

	file, err := os.Create(expandedPath)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	defer encoder.Close()
	if err := encoder.Encode(c); err != nil {
		return errors.Wrap(err, "failed to encode configuration")
	}

	return nil
}

// Validate checks that c's fields are internally consistent.
func (c *Config) Validate() error {
	logLevel := strings.ToLower(c.LogLevel)
	if logLevel != "debug" && logLevel != "info" && logLevel != "warn" && logLevel != "error" {
		return errors.InvalidInputf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.Loader.Workers < 0 {
		return errors.InvalidInputf("loader workers must be non-negative")
	}
	if c.Loader.RequestQueueSize < 0 {
		return errors.InvalidInputf("request queue size must be non-negative")
	}
	if c.Loader.CompletedQueueSize < 0 {
		return errors.InvalidInputf("completed queue size must be non-negative")
	}

	if c.Cache.MaxMemoryBytes == 0 {
		return errors.InvalidInputf("cache memory budget must be greater than zero")
	}

	if c.ArchiveRoot == "" {
		return errors.InvalidInputf("archive root must not be empty")
	}

	return nil
}

// ExpandHomeDir expands a leading ~ or $HOME in path to the current user's
// home directory.
func ExpandHomeDir(path string) string {
	if path == "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	if strings.HasPrefix(path, "$HOME/") {
		return filepath.Join(home, path[len("$HOME/"):])
	}

	return path
}
