package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/zerr"
)

// Metric names.
const (
	MetricToolCalls       = "cargo_mcp.tool.calls"
	MetricToolErrors      = "cargo_mcp.tool.errors"
	MetricCacheHits       = "cargo_mcp.cache.hits"
	MetricCacheMisses     = "cargo_mcp.cache.misses"
	MetricResolveDuration = "cargo_mcp.resolve.duration"
)

type instruments struct {
	toolCalls   metric.Int64Counter
	toolErrors  metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	resolve     metric.Float64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	var (
		inst instruments
		err  error
	)

	if inst.toolCalls, err = meter.Int64Counter(MetricToolCalls,
		metric.WithDescription("Operations invoked")); err != nil {
		return nil, zerr.Wrap(err, "failed to create tool call counter")
	}
	if inst.toolErrors, err = meter.Int64Counter(MetricToolErrors,
		metric.WithDescription("Operations that returned an error")); err != nil {
		return nil, zerr.Wrap(err, "failed to create tool error counter")
	}
	if inst.cacheHits, err = meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Queries served from a cached snapshot")); err != nil {
		return nil, zerr.Wrap(err, "failed to create cache hit counter")
	}
	if inst.cacheMisses, err = meter.Int64Counter(MetricCacheMisses,
		metric.WithDescription("Queries that required a resolution")); err != nil {
		return nil, zerr.Wrap(err, "failed to create cache miss counter")
	}
	if inst.resolve, err = meter.Float64Histogram(MetricResolveDuration,
		metric.WithDescription("Duration of cargo metadata resolutions"),
		metric.WithUnit("s")); err != nil {
		return nil, zerr.Wrap(err, "failed to create resolve histogram")
	}

	return &inst, nil
}

func (i *instruments) recordToolCall(ctx context.Context, operation string, _ time.Duration, err error) {
	op := attribute.String("operation", operation)
	i.toolCalls.Add(ctx, 1, metric.WithAttributes(op))
	if err == nil {
		return
	}

	kind := "internal"
	if k, ok := domain.KindOf(err); ok {
		kind = string(k)
	}
	i.toolErrors.Add(ctx, 1, metric.WithAttributes(op, attribute.String("kind", kind)))
}

func (i *instruments) recordCacheLookup(ctx context.Context, hit bool) {
	if hit {
		i.cacheHits.Add(ctx, 1)
		return
	}
	i.cacheMisses.Add(ctx, 1)
}

func (i *instruments) recordResolve(ctx context.Context, duration time.Duration, err error) {
	i.resolve.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.Bool("success", err == nil)))
}

// Summary holds metric totals for the process lifetime.
type Summary struct {
	ToolCalls   int64
	ToolErrors  int64
	CacheHits   int64
	CacheMisses int64
	Resolves    uint64
}

// LogArgs renders the summary as logger key-value pairs.
func (s Summary) LogArgs() []any {
	return []any{
		"tool_calls", s.ToolCalls,
		"tool_errors", s.ToolErrors,
		"cache_hits", s.CacheHits,
		"cache_misses", s.CacheMisses,
		"resolves", s.Resolves,
	}
}

func collectSummary(ctx context.Context, reader *sdkmetric.ManualReader) (Summary, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return Summary{}, zerr.Wrap(err, "failed to collect metrics")
	}

	var s Summary
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				total := sumPoints(data.DataPoints)
				switch m.Name {
				case MetricToolCalls:
					s.ToolCalls = total
				case MetricToolErrors:
					s.ToolErrors = total
				case MetricCacheHits:
					s.CacheHits = total
				case MetricCacheMisses:
					s.CacheMisses = total
				}
			case metricdata.Histogram[float64]:
				if m.Name == MetricResolveDuration {
					for _, dp := range data.DataPoints {
						s.Resolves += dp.Count
					}
				}
			}
		}
	}
	return s, nil
}

func sumPoints(points []metricdata.DataPoint[int64]) int64 {
	var total int64
	for _, dp := range points {
		total += dp.Value
	}
	return total
}
