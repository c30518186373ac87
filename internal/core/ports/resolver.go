// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
)

// MetadataResolver defines the interface for obtaining a metadata snapshot.
//
//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type MetadataResolver interface {
	// Resolve produces the metadata snapshot for the manifest at manifestPath.
	// The error carries the diagnostic of the underlying tool on failure.
	Resolve(ctx context.Context, manifestPath string, opts domain.ResolveOptions) (*domain.Metadata, error)
}
