// Package config loads optional user defaults from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/rasterproj/raster"
)

// FileName is the config file name inside the config directory
const FileName = "config.yaml"

// Config holds defaults that command-line flags override.
type Config struct {
	Resampling string `yaml:"resampling"`
	OutputDir  string `yaml:"output_dir"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	// TUI selects the interactive view when stdout is a terminal.
	TUI bool `yaml:"tui"`
}

// Default returns the built-in defaults
func Default() Config {
	return Config{
		Resampling: raster.Nearest.Token(),
		LogLevel:   zerolog.InfoLevel.String(),
		TUI:        true,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/rasterproj/config.yaml, or the platform
// equivalent reported by os.UserConfigDir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rasterproj", FileName), nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the enumerated fields
func (c Config) Validate() error {
	if _, err := raster.ParseResamplingMethod(c.Resampling); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level %q", c.LogLevel)
		}
	}
	return nil
}

// Method returns the configured resampling method
func (c Config) Method() raster.ResamplingMethod {
	m, err := raster.ParseResamplingMethod(c.Resampling)
	if err != nil {
		return raster.Nearest
	}
	return m
}
