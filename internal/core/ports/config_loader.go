package ports

import "go.trai.ch/cargo-metadata-mcp/internal/core/domain"

// ConfigLoader defines the interface for loading the server configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration. An explicit path must exist; otherwise the
	// config file is discovered in cwd and defaults apply when none is found.
	// It returns the path that was loaded, or "" when defaults were used.
	Load(cwd, explicitPath string) (domain.Config, string, error)
}
