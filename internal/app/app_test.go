package app_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/logger"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/telemetry"
	"go.trai.ch/cargo-metadata-mcp/internal/app"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports/mocks"
	"go.trai.ch/cargo-metadata-mcp/internal/testutil/cargofixture"
	"go.uber.org/mock/gomock"
)

const featuresPayload = `{
  "async": [
    "dep:tokio"
  ],
  "default": [
    "std"
  ],
  "std": []
}
`

type fixture struct {
	loader   *mocks.MockConfigLoader
	logger   *mocks.MockLogger
	resolver *mocks.MockMetadataResolver
	hasher   *mocks.MockHasher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		loader:   mocks.NewMockConfigLoader(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		resolver: mocks.NewMockMetadataResolver(ctrl),
		hasher:   mocks.NewMockHasher(ctrl),
	}
	f.logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	f.logger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	f.logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	return f
}

func (f *fixture) app() *app.App {
	return app.New(f.loader, f.logger, f.resolver, f.hasher, telemetry.NewNoop())
}

func TestApp_Query(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(gomock.Any(), "").Return(domain.DefaultConfig(), "", nil)
	f.resolver.EXPECT().
		Resolve(gomock.Any(), "/work/demo/Cargo.toml", domain.ResolveOptions{}).
		Return(cargofixture.Single(t), nil)

	var out bytes.Buffer
	err := f.app().Query(context.Background(), "features", "/work/demo/Cargo.toml", &out, app.Options{})
	require.NoError(t, err)
	assert.Equal(t, featuresPayload, out.String())
}

func TestApp_Query_UnknownOperation(t *testing.T) {
	f := newFixture(t)

	var out bytes.Buffer
	err := f.app().Query(context.Background(), "build", "/work/demo/Cargo.toml", &out, app.Options{})
	require.ErrorIs(t, err, domain.ErrUnknownOperation)
	assert.Empty(t, out.String())
}

func TestApp_Query_ResolutionError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(gomock.Any(), "").Return(domain.DefaultConfig(), "", nil)
	f.resolver.EXPECT().
		Resolve(gomock.Any(), "/nope/Cargo.toml", gomock.Any()).
		Return(nil, errors.New("manifest path `/nope/Cargo.toml` does not exist"))

	var out bytes.Buffer
	err := f.app().Query(context.Background(), "get_targets", "/nope/Cargo.toml", &out, app.Options{})
	require.Error(t, err)

	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrorKindResolution, kind)
	assert.Equal(t, "failed to get cargo metadata: manifest path `/nope/Cargo.toml` does not exist", err.Error())
	assert.Empty(t, out.String())
}

func TestApp_Query_ConfigError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().
		Load(gomock.Any(), "missing.yaml").
		Return(domain.Config{}, "", domain.ErrConfigNotFound)

	err := f.app().Query(context.Background(), "metadata", "Cargo.toml", new(bytes.Buffer), app.Options{
		ConfigPath: "missing.yaml",
	})
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestApp_Query_Overrides(t *testing.T) {
	f := newFixture(t)

	fileCfg := domain.DefaultConfig()
	fileCfg.Cargo.Offline = true
	fileCfg.Cargo.FilterPlatform = "x86_64-unknown-linux-gnu"
	f.loader.EXPECT().Load(gomock.Any(), "").Return(fileCfg, "/work/cargo-metadata-mcp.yaml", nil)

	f.hasher.EXPECT().HashManifest("/work/demo/Cargo.toml").Return(uint64(42), nil)
	f.resolver.EXPECT().
		Resolve(gomock.Any(), "/work/demo/Cargo.toml", domain.ResolveOptions{
			CargoPath:      "/opt/cargo",
			Features:       []string{"serde"},
			NoDeps:         true,
			FilterPlatform: "aarch64-apple-darwin",
			Offline:        true,
			Timeout:        time.Minute,
		}).
		Return(cargofixture.Single(t), nil)

	err := f.app().Query(context.Background(), "package-info", "/work/demo/Cargo.toml", new(bytes.Buffer), app.Options{
		CachePolicy:    "keyed",
		CargoPath:      "/opt/cargo",
		Features:       []string{"serde"},
		NoDeps:         true,
		FilterPlatform: "aarch64-apple-darwin",
		Timeout:        time.Minute,
	})
	require.NoError(t, err)
}

func TestApp_Query_InvalidOverride(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(gomock.Any(), "").Return(domain.DefaultConfig(), "", nil)

	err := f.app().Query(context.Background(), "metadata", "Cargo.toml", new(bytes.Buffer), app.Options{
		LogLevel: "trace",
	})
	require.ErrorIs(t, err, domain.ErrInvalidLogLevel)
}

func TestApp_Query_ConfiguresLogger(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	resolver := mocks.NewMockMetadataResolver(ctrl)

	loader.EXPECT().Load(gomock.Any(), "").Return(domain.DefaultConfig(), "", nil)
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(cargofixture.Single(t), nil)

	var logs bytes.Buffer
	log, ok := logger.New().(*logger.Logger)
	require.True(t, ok)
	log.SetOutput(&logs)

	a := app.New(loader, log, resolver, mocks.NewMockHasher(ctrl), telemetry.NewNoop())
	err := a.Query(context.Background(), "metadata", "/work/demo/Cargo.toml", new(bytes.Buffer), app.Options{
		LogFormat: domain.LogFormatJSON,
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `"msg":"resolved metadata"`)
	assert.Contains(t, logs.String(), `"manifest_path":"/work/demo/Cargo.toml"`)
}

func TestApp_Serve(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(gomock.Any(), "").Return(domain.DefaultConfig(), "", nil)
	f.resolver.EXPECT().
		Resolve(gomock.Any(), "/work/demo/Cargo.toml", gomock.Any()).
		Return(cargofixture.Single(t), nil).
		Times(1)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	a := f.app().WithTransport(serverTransport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- a.Serve(ctx, app.Options{})
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = cs.Close() }()

	for range 2 {
		res, err := cs.CallTool(ctx, &mcp.CallToolParams{
			Name:      string(domain.OpFeatures),
			Arguments: map[string]any{"manifest_path": "/work/demo/Cargo.toml"},
		})
		require.NoError(t, err)
		require.Len(t, res.Content, 1)
		text, ok := res.Content[0].(*mcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, featuresPayload[:len(featuresPayload)-1], text.Text)
	}

	cancel()

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestApp_Serve_ConfigError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(gomock.Any(), "").Return(domain.Config{}, "", domain.ErrConfigParseFailed)

	err := f.app().Serve(context.Background(), app.Options{})
	require.ErrorIs(t, err, domain.ErrConfigParseFailed)
}

func TestApp_Serve_WatcherStopsSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), "").Return(domain.DefaultConfig(), "", nil)

	var logs bytes.Buffer
	log, ok := logger.New().(*logger.Logger)
	require.True(t, ok)
	log.SetOutput(&logs)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	a := app.New(loader, log, mocks.NewMockMetadataResolver(ctrl), mocks.NewMockHasher(ctrl), telemetry.NewNoop()).
		WithTransport(serverTransport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- a.Serve(ctx, app.Options{CachePolicy: "keyed", LogFormat: domain.LogFormatJSON})
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = cs.Close() }()

	cancel()

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	assert.Contains(t, logs.String(), `"msg":"serving cargo metadata"`)
	assert.Contains(t, logs.String(), `"policy":"keyed"`)
	assert.Contains(t, logs.String(), `"msg":"shutting down"`)
	assert.Contains(t, logs.String(), `"cause":"context canceled"`)
}
