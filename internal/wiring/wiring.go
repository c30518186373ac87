// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/cargo-metadata-mcp/internal/adapters/cargo"
	_ "go.trai.ch/cargo-metadata-mcp/internal/adapters/config"
	_ "go.trai.ch/cargo-metadata-mcp/internal/adapters/fs"
	_ "go.trai.ch/cargo-metadata-mcp/internal/adapters/logger"
	_ "go.trai.ch/cargo-metadata-mcp/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/cargo-metadata-mcp/internal/app"
)
