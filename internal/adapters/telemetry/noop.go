package telemetry

import (
	"context"
	"time"

	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
)

// Noop is a no-op implementation of ports.Telemetry.
type Noop struct{}

// NewNoop creates a new Noop.
func NewNoop() *Noop {
	return &Noop{}
}

// Start returns ctx and a no-op span.
func (Noop) Start(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, NoopSpan{}
}

// RecordToolCall does nothing.
func (Noop) RecordToolCall(context.Context, string, time.Duration, error) {}

// RecordCacheLookup does nothing.
func (Noop) RecordCacheLookup(context.Context, bool) {}

// RecordResolve does nothing.
func (Noop) RecordResolve(context.Context, time.Duration, error) {}

// Shutdown does nothing.
func (Noop) Shutdown(context.Context) error { return nil }

// NoopSpan is a no-op implementation of ports.Span.
type NoopSpan struct{}

// End does nothing.
func (NoopSpan) End() {}

// RecordError does nothing.
func (NoopSpan) RecordError(error) {}

// SetAttribute does nothing.
func (NoopSpan) SetAttribute(string, any) {}
