// Package telemetry implements tracing and metrics on top of the OpenTelemetry SDK.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
)

// InstrumentationName is the tracer and meter name used by the server.
const InstrumentationName = "go.trai.ch/cargo-metadata-mcp"

// Provider implements ports.Telemetry with an in-process tracer and meter provider.
type Provider struct {
	logger  ports.Logger
	tp      *sdktrace.TracerProvider
	tracer  trace.Tracer
	mp      *sdkmetric.MeterProvider
	reader  *sdkmetric.ManualReader
	metrics *instruments
}

// New creates a Provider. Finished spans are logged at debug level and handed to
// any additional span processors.
func New(logger ports.Logger, processors ...sdktrace.SpanProcessor) (*Provider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(NewLogBridge(logger)),
	}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	inst, err := newInstruments(mp.Meter(InstrumentationName))
	if err != nil {
		return nil, err
	}

	return &Provider{
		logger:  logger,
		tp:      tp,
		tracer:  tp.Tracer(InstrumentationName),
		mp:      mp,
		reader:  reader,
		metrics: inst,
	}, nil
}

// Start creates a new span.
func (p *Provider) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &OTelSpan{span: span}
}

// RecordToolCall counts an operation call.
func (p *Provider) RecordToolCall(ctx context.Context, operation string, duration time.Duration, err error) {
	p.metrics.recordToolCall(ctx, operation, duration, err)
}

// RecordCacheLookup counts a snapshot cache hit or miss.
func (p *Provider) RecordCacheLookup(ctx context.Context, hit bool) {
	p.metrics.recordCacheLookup(ctx, hit)
}

// RecordResolve records the duration of one metadata resolution.
func (p *Provider) RecordResolve(ctx context.Context, duration time.Duration, err error) {
	p.metrics.recordResolve(ctx, duration, err)
}

// Summary collects the current metric totals.
func (p *Provider) Summary(ctx context.Context) (Summary, error) {
	return collectSummary(ctx, p.reader)
}

// Shutdown logs the metric summary and flushes both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	summary, err := p.Summary(ctx)
	if err == nil {
		p.logger.Info("session summary", summary.LogArgs()...)
	}

	return errors.Join(err, p.tp.Shutdown(ctx), p.mp.Shutdown(ctx))
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span trace.Span
}

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError records err on the span and marks it failed.
func (s *OTelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}
