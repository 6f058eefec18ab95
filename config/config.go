package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Config holds the settings the command-line drivers run with.
type Config struct {
	DataDir         string
	BufferPoolPages int
	LogLevel        string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:         "data",
		BufferPoolPages: 64,
		LogLevel:        "info",
	}
}

// Load reads an ini file and overlays it on the defaults. A missing file is
// not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := ini.Load(path)
	if err != nil {
		if ini.IsErrDelimiterNotFound(err) {
			return nil, fmt.Errorf("malformed config %s: %w", path, err)
		}
		// Missing config file: run with defaults.
		return cfg, nil
	}

	section := file.Section("indexdb")
	cfg.DataDir = section.Key("data_dir").MustString(cfg.DataDir)
	cfg.BufferPoolPages = section.Key("buffer_pool_pages").MustInt(cfg.BufferPoolPages)
	cfg.LogLevel = section.Key("log_level").MustString(cfg.LogLevel)

	if cfg.BufferPoolPages < 4 {
		return nil, fmt.Errorf("buffer_pool_pages must be at least 4, got %d", cfg.BufferPoolPages)
	}
	return cfg, nil
}
