package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads the project file at path. A missing file is not an error:
// the defaults describe a conventional project layout, so a project with
// that layout needs no file at all.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := NewDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no project file, using defaults", "path", path)
			if err := Validate(cfg); err != nil {
				return nil, fmt.Errorf("config: default configuration invalid: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		logger.Error("failed to unmarshal project file", "path", path, "error", err)
		return nil, fmt.Errorf("config: failed to unmarshal TOML: %w", err)
	}

	if err := Validate(cfg); err != nil {
		logger.Error("configuration validation failed", "path", path, "error", err)
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	logger.Debug("loaded project configuration", "path", path, "entries", len(cfg.Project.Entries))
	return cfg, nil
}
