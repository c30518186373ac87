package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/logger"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/telemetry"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Telemetry = (*telemetry.Provider)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Telemetry = (*telemetry.Noop)(nil)
	var _ ports.Span = telemetry.NoopSpan{}
}

func newLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(&buf)
	lg.SetLevel(slog.LevelDebug)
	return lg, &buf
}

func TestProvider_Start(t *testing.T) {
	lg, buf := newLogger(t)
	rec := tracetest.NewSpanRecorder()

	p, err := telemetry.New(lg, rec)
	require.NoError(t, err)

	ctx, parent := p.Start(t.Context(), "tool/get_dependencies")
	parent.SetAttribute("manifest_path", "/work/demo/Cargo.toml")

	_, child := p.Start(ctx, "cache/resolve")
	child.SetAttribute("packages", 3)
	child.SetAttribute("hit", false)
	child.RecordError(errors.New("cargo exploded"))
	child.End()
	parent.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "cache/resolve", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "cargo exploded", ended[0].Status().Description)
	assert.Contains(t, ended[0].Attributes(), attribute.Int("packages", 3))
	assert.Contains(t, ended[0].Attributes(), attribute.Bool("hit", false))
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())

	assert.Equal(t, "tool/get_dependencies", ended[1].Name())
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
	assert.Contains(t, ended[1].Attributes(), attribute.String("manifest_path", "/work/demo/Cargo.toml"))

	out := buf.String()
	assert.Contains(t, out, "span finished span=cache/resolve")
	assert.Contains(t, out, "error=cargo exploded")
	assert.Contains(t, out, "span finished span=tool/get_dependencies")
}

func TestProvider_SpanRecordErrorNil(t *testing.T) {
	lg, _ := newLogger(t)
	rec := tracetest.NewSpanRecorder()

	p, err := telemetry.New(lg, rec)
	require.NoError(t, err)

	_, span := p.Start(t.Context(), "tool/get_metadata")
	span.RecordError(nil)
	span.SetAttribute("members", []string{"a", "b"})
	span.SetAttribute("duration", time.Second)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.StringSlice("members", []string{"a", "b"}))
	assert.Contains(t, ended[0].Attributes(), attribute.String("duration", "1s"))
}

func TestProvider_Summary(t *testing.T) {
	lg, _ := newLogger(t)
	p, err := telemetry.New(lg)
	require.NoError(t, err)

	ctx := t.Context()
	p.RecordToolCall(ctx, "get_metadata", time.Millisecond, nil)
	p.RecordToolCall(ctx, "get_features", time.Millisecond, domain.NewMissingRootError())
	p.RecordToolCall(ctx, "get_targets", time.Millisecond, errors.New("unexpected"))
	p.RecordCacheLookup(ctx, false)
	p.RecordCacheLookup(ctx, true)
	p.RecordCacheLookup(ctx, true)
	p.RecordResolve(ctx, 250*time.Millisecond, nil)

	summary, err := p.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, telemetry.Summary{
		ToolCalls:   3,
		ToolErrors:  2,
		CacheHits:   2,
		CacheMisses: 1,
		Resolves:    1,
	}, summary)
}

func TestProvider_Shutdown(t *testing.T) {
	lg, buf := newLogger(t)
	p, err := telemetry.New(lg)
	require.NoError(t, err)

	p.RecordToolCall(t.Context(), "get_metadata", time.Millisecond, nil)
	p.RecordCacheLookup(t.Context(), false)

	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(),
		"session summary tool_calls=1 tool_errors=0 cache_hits=0 cache_misses=1 resolves=0")
}

func TestNoop(t *testing.T) {
	n := telemetry.NewNoop()
	ctx := t.Context()

	got, span := n.Start(ctx, "anything")
	assert.Equal(t, ctx, got)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()

	n.RecordToolCall(ctx, "get_metadata", time.Second, nil)
	n.RecordCacheLookup(ctx, true)
	n.RecordResolve(ctx, time.Second, nil)
	require.NoError(t, n.Shutdown(ctx))
}
