// Package config provides the configuration loader for cargo-metadata-mcp.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileNames lists the discovered config file names in order of preference.
var FileNames = []string{
	domain.ConfigFileBaseName + ".yaml",
	domain.ConfigFileBaseName + ".yml",
	domain.ConfigFileBaseName + ".toml",
}

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for YAML and TOML files.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load reads the configuration. When explicitPath is empty the config file is
// searched for in cwd and its parents, and defaults are returned if none exists.
func (l *Loader) Load(cwd, explicitPath string) (domain.Config, string, error) {
	path, err := l.findConfiguration(cwd, explicitPath)
	if err != nil {
		return domain.Config{}, "", err
	}

	cfg := domain.DefaultConfig()
	if path == "" {
		l.Logger.Debug("no config file found, using defaults", "cwd", cwd)
		if err := cfg.Validate(); err != nil {
			return domain.Config{}, "", err
		}
		return cfg, "", nil
	}

	var file File
	if err := l.readAndUnmarshal(path, &file); err != nil {
		return domain.Config{}, "", err
	}

	if err := apply(&cfg, &file); err != nil {
		return domain.Config{}, "", zerr.With(err, "path", path)
	}
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, "", zerr.With(err, "path", path)
	}

	l.Logger.Debug("loaded config", "path", path)
	return cfg, path, nil
}

func (l *Loader) findConfiguration(cwd, explicitPath string) (string, error) {
	if explicitPath != "" {
		path := explicitPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		if _, err := l.FS.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", zerr.With(fmt.Errorf("%w", domain.ErrConfigNotFound), "path", path)
			}
			return "", zerr.With(fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, err), "path", path)
		}
		return path, nil
	}

	currentDir := cwd
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(currentDir, name)
			if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", nil
		}
		currentDir = parentDir
	}
}

func (l *Loader) readAndUnmarshal(path string, target *File) error {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return zerr.With(fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, err), "path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF and leaves the defaults in place.
		if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
			return zerr.With(fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, err), "path", path)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(target); err != nil {
			return zerr.With(fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, err), "path", path)
		}
	default:
		return zerr.With(fmt.Errorf("%w", domain.ErrUnsupportedConfigFormat), "path", path)
	}

	return nil
}

// apply copies the values present in file onto cfg.
func apply(cfg *domain.Config, file *File) error {
	if file.Cache.Policy != "" {
		cfg.CachePolicy = domain.CachePolicy(file.Cache.Policy)
	}

	cargo := file.Cargo
	cfg.Cargo.CargoPath = cargo.Path
	cfg.Cargo.Features = cargo.Features
	cfg.Cargo.AllFeatures = cargo.AllFeatures
	cfg.Cargo.NoDefaultFeatures = cargo.NoDefaultFeatures
	cfg.Cargo.NoDeps = cargo.NoDeps
	cfg.Cargo.FilterPlatform = cargo.FilterPlatform
	cfg.Cargo.Offline = cargo.Offline
	cfg.Cargo.Locked = cargo.Locked
	cfg.Cargo.Frozen = cargo.Frozen

	if cargo.Timeout != "" {
		timeout, err := time.ParseDuration(cargo.Timeout)
		if err != nil {
			return zerr.With(fmt.Errorf("%w: %w", domain.ErrInvalidTimeout, err), "timeout", cargo.Timeout)
		}
		cfg.Cargo.Timeout = timeout
	}

	if file.Log.Level != "" {
		cfg.Log.Level = file.Log.Level
	}
	if file.Log.Format != "" {
		cfg.Log.Format = file.Log.Format
	}

	return nil
}
