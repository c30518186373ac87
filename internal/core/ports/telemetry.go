package ports

import (
	"context"
	"time"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a unit of work.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// Metrics records counters and durations of the server.
type Metrics interface {
	// RecordToolCall counts an operation call. A non-nil err is counted as an error.
	RecordToolCall(ctx context.Context, operation string, duration time.Duration, err error)
	// RecordCacheLookup counts a snapshot cache hit or miss.
	RecordCacheLookup(ctx context.Context, hit bool)
	// RecordResolve records the duration of one metadata resolution.
	RecordResolve(ctx context.Context, duration time.Duration, err error)
}

// Telemetry bundles tracing and metrics.
type Telemetry interface {
	Tracer
	Metrics
	// Shutdown flushes pending telemetry.
	Shutdown(ctx context.Context) error
}
