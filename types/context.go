package types

import (
	"github.com/lepinkainen/rasterproj/config"
	"github.com/lepinkainen/rasterproj/logging"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version string
	Config  config.Config
	Logger  *logging.Logger
}

// Log returns the shared logger, or a discarding one when none was set up
func (c *AppContext) Log() *logging.Logger {
	if c == nil || c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}

// VersionString returns the version, falling back to DefaultVersion
func (c *AppContext) VersionString() string {
	if c == nil || c.Version == "" {
		return DefaultVersion
	}
	return c.Version
}
