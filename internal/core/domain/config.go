package domain

import (
	"slices"
	"time"

	"go.trai.ch/zerr"
)

// ConfigFileBaseName is the name, without extension, of the discovered config file.
const ConfigFileBaseName = "cargo-metadata-mcp"

// CachePolicy selects how resolved snapshots are retained.
type CachePolicy string

const (
	// CachePolicySticky keeps the first successfully resolved snapshot for the
	// lifetime of the process and serves it for every manifest path.
	CachePolicySticky CachePolicy = "sticky"
	// CachePolicyKeyed keeps one snapshot per manifest path and re-resolves it
	// when the manifest or its lockfile changes.
	CachePolicyKeyed CachePolicy = "keyed"
)

// Log formats.
const (
	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// ResolveOptions controls how `cargo metadata` is invoked.
type ResolveOptions struct {
	// CargoPath is the cargo executable. Empty means $CARGO, then "cargo".
	CargoPath         string
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
	NoDeps            bool
	FilterPlatform    string
	Offline           bool
	Locked            bool
	Frozen            bool
	// Timeout bounds a single resolution. Zero disables it.
	Timeout time.Duration
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string
	Format string
}

// Config is the complete runtime configuration.
type Config struct {
	CachePolicy CachePolicy
	Cargo       ResolveOptions
	Log         LogConfig
}

// DefaultConfig returns the configuration used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		CachePolicy: CachePolicySticky,
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatPretty,
		},
	}
}

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	switch c.CachePolicy {
	case CachePolicySticky, CachePolicyKeyed:
	default:
		return zerr.With(zerr.Wrap(ErrInvalidCachePolicy, "invalid configuration"), "policy", string(c.CachePolicy))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		return zerr.With(zerr.Wrap(ErrInvalidLogLevel, "invalid configuration"), "level", c.Log.Level)
	}

	if c.Log.Format != LogFormatPretty && c.Log.Format != LogFormatJSON {
		return zerr.With(zerr.Wrap(ErrInvalidLogFormat, "invalid configuration"), "format", c.Log.Format)
	}

	if c.Cargo.Timeout < 0 {
		return zerr.With(zerr.Wrap(ErrInvalidTimeout, "invalid configuration"), "timeout", c.Cargo.Timeout.String())
	}

	if c.Cargo.AllFeatures && len(c.Cargo.Features) > 0 {
		return zerr.Wrap(ErrConflictingFeatureFlags, "invalid configuration")
	}

	return nil
}
