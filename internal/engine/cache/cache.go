// Package cache holds resolved metadata snapshots behind a single lock.
package cache

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
)

// Cache serves metadata snapshots, resolving them on a miss.
//
// With the sticky policy the first successful snapshot is served for every
// manifest path for the lifetime of the Cache. With the keyed policy there is one
// snapshot per manifest path, re-resolved when the manifest or its lockfile changes.
type Cache struct {
	resolver  ports.MetadataResolver
	hasher    ports.Hasher
	telemetry ports.Telemetry
	logger    ports.Logger
	policy    domain.CachePolicy
	opts      domain.ResolveOptions

	mu       sync.Mutex
	snapshot *domain.Metadata
	entries  map[string]entry
}

type entry struct {
	fingerprint uint64
	metadata    *domain.Metadata
}

// New creates an empty Cache. An empty policy means sticky.
func New(
	resolver ports.MetadataResolver,
	hasher ports.Hasher,
	telemetry ports.Telemetry,
	logger ports.Logger,
	policy domain.CachePolicy,
	opts domain.ResolveOptions,
) *Cache {
	if policy == "" {
		policy = domain.CachePolicySticky
	}
	return &Cache{
		resolver:  resolver,
		hasher:    hasher,
		telemetry: telemetry,
		logger:    logger,
		policy:    policy,
		opts:      opts,
		entries:   make(map[string]entry),
	}
}

// Policy returns the retention policy of the cache.
func (c *Cache) Policy() domain.CachePolicy {
	return c.policy
}

// With obtains the snapshot for manifestPath and calls fn with it. The lock is
// held until fn returns, so at most one resolution or read runs at a time.
//
// A resolution failure is returned as a resolution QueryError and leaves the
// cache unchanged. Errors returned by fn are passed through.
func (c *Cache) With(ctx context.Context, manifestPath string, fn func(*domain.Metadata) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.telemetry.Start(ctx, "cache/resolve")
	defer span.End()
	span.SetAttribute("policy", string(c.policy))
	span.SetAttribute("manifest_path", manifestPath)

	var (
		metadata *domain.Metadata
		err      error
	)
	if c.policy == domain.CachePolicyKeyed {
		metadata, err = c.keyed(ctx, manifestPath)
	} else {
		metadata, err = c.sticky(ctx, manifestPath)
	}
	if err != nil {
		span.RecordError(err)
		return domain.NewResolutionError(err)
	}

	return fn(metadata)
}

func (c *Cache) sticky(ctx context.Context, manifestPath string) (*domain.Metadata, error) {
	if c.snapshot != nil {
		c.hit(ctx, true)
		return c.snapshot, nil
	}
	c.hit(ctx, false)

	metadata, err := c.resolve(ctx, manifestPath)
	if err != nil {
		return nil, err
	}
	c.snapshot = metadata
	return metadata, nil
}

func (c *Cache) keyed(ctx context.Context, manifestPath string) (*domain.Metadata, error) {
	key := cacheKey(manifestPath)

	fingerprint, err := c.hasher.HashManifest(key)
	if err != nil {
		c.hit(ctx, false)
		return nil, err
	}

	if cached, ok := c.entries[key]; ok && cached.fingerprint == fingerprint {
		c.hit(ctx, true)
		return cached.metadata, nil
	} else if ok {
		c.logger.Debug("manifest changed, re-resolving", "manifest_path", key)
	}
	c.hit(ctx, false)

	metadata, err := c.resolve(ctx, manifestPath)
	if err != nil {
		return nil, err
	}
	c.entries[key] = entry{fingerprint: fingerprint, metadata: metadata}
	return metadata, nil
}

func (c *Cache) resolve(ctx context.Context, manifestPath string) (*domain.Metadata, error) {
	c.logger.Debug("resolving metadata", "manifest_path", manifestPath)

	start := time.Now()
	metadata, err := c.resolver.Resolve(ctx, manifestPath, c.opts)
	elapsed := time.Since(start)
	c.telemetry.RecordResolve(ctx, elapsed, err)
	if err != nil {
		return nil, err
	}

	c.logger.Info("resolved metadata",
		"manifest_path", manifestPath,
		"packages", len(metadata.Packages),
		"duration", elapsed.Round(time.Millisecond).String())
	return metadata, nil
}

func (c *Cache) hit(ctx context.Context, hit bool) {
	c.telemetry.RecordCacheLookup(ctx, hit)
}

func cacheKey(manifestPath string) string {
	if abs, err := filepath.Abs(manifestPath); err == nil {
		return abs
	}
	return filepath.Clean(manifestPath)
}
