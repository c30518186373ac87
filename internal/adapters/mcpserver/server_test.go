package mcpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/mcpserver"
	"go.trai.ch/cargo-metadata-mcp/internal/adapters/telemetry"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type call struct {
	op           domain.Operation
	manifestPath string
}

// stubQuerier returns a canned payload or error and records its calls.
type stubQuerier struct {
	mu      sync.Mutex
	calls   []call
	payload string
	err     error
}

func (q *stubQuerier) Run(_ context.Context, op domain.Operation, manifestPath string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, call{op: op, manifestPath: manifestPath})
	if q.err != nil {
		return "", q.err
	}
	return q.payload, nil
}

func connect(t *testing.T, q mcpserver.Querier) *mcp.ClientSession {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	srv := mcpserver.New(q, log, telemetry.NewNoop(), mcpserver.Options{Version: "v1.2.3"})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()

	ss, err := srv.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs
}

func callTool(cs *mcp.ClientSession, name string, args any) (*mcp.CallToolResult, error) {
	return cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
}

func TestServer_Initialize(t *testing.T) {
	cs := connect(t, &stubQuerier{})

	initRes := cs.InitializeResult()
	require.NotNil(t, initRes)
	assert.Equal(t, mcpserver.ServerName, initRes.ServerInfo.Name)
	assert.Equal(t, "v1.2.3", initRes.ServerInfo.Version)
	assert.Equal(t, mcpserver.Instructions, initRes.Instructions)
}

func TestServer_ListTools(t *testing.T) {
	cs := connect(t, &stubQuerier{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)

		require.NotNil(t, tool.Annotations, tool.Name)
		assert.True(t, tool.Annotations.ReadOnlyHint, tool.Name)
		assert.True(t, tool.Annotations.IdempotentHint, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)

		schema, err := json.Marshal(tool.InputSchema)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type": "object",
			"properties": {
				"manifest_path": {
					"type": "string",
					"description": "Path to the Cargo.toml of the project"
				}
			},
			"required": ["manifest_path"]
		}`, string(schema), tool.Name)
	}

	assert.ElementsMatch(t, []string{
		"get_metadata",
		"get_package_info",
		"get_dependencies",
		"get_targets",
		"get_workspace_info",
		"get_features",
	}, names)
}

func TestServer_Prompt(t *testing.T) {
	cs := connect(t, &stubQuerier{})

	prompts, err := cs.ListPrompts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 1)
	assert.Equal(t, mcpserver.PromptName, prompts.Prompts[0].Name)

	res, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: mcpserver.PromptName})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, mcp.Role("user"), res.Messages[0].Role)

	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, mcpserver.WelcomeText, text.Text)
}

func TestServer_CallTool(t *testing.T) {
	q := &stubQuerier{payload: "{\n  \"name\": \"demo\"\n}"}
	cs := connect(t, q)

	for _, op := range domain.Operations() {
		t.Run(string(op), func(t *testing.T) {
			res, err := callTool(cs, string(op), map[string]any{"manifest_path": "/work/demo/Cargo.toml"})
			require.NoError(t, err)
			assert.False(t, res.IsError)
			require.Len(t, res.Content, 1)

			text, ok := res.Content[0].(*mcp.TextContent)
			require.True(t, ok)
			assert.Equal(t, q.payload, text.Text)
		})
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	require.Len(t, q.calls, len(domain.Operations()))
	for i, op := range domain.Operations() {
		assert.Equal(t, call{op: op, manifestPath: "/work/demo/Cargo.toml"}, q.calls[i])
	}
}

func TestServer_CallTool_QueryErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantKind string
	}{
		{
			name:     "resolution",
			err:      domain.NewResolutionError(errors.New("could not find `Cargo.toml`")),
			wantMsg:  "failed to get cargo metadata: could not find `Cargo.toml`",
			wantKind: "resolution",
		},
		{
			name:     "missing root",
			err:      domain.NewMissingRootError(),
			wantMsg:  "no root package found",
			wantKind: "missing-data",
		},
		{
			name:     "serialization",
			err:      domain.NewSerializationError("features", errors.New("boom")),
			wantMsg:  "failed to serialize features: boom",
			wantKind: "serialization",
		},
		{
			name:     "unexpected",
			err:      errors.New("unexpected"),
			wantMsg:  "unexpected",
			wantKind: "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := connect(t, &stubQuerier{err: tt.err})

			_, err := callTool(cs, "get_features", map[string]any{"manifest_path": "/work/virt/Cargo.toml"})
			require.Error(t, err)

			var wireErr *jsonrpc.Error
			require.ErrorAs(t, err, &wireErr)
			assert.Equal(t, int64(jsonrpc.CodeInternalError), wireErr.Code)
			assert.Equal(t, tt.wantMsg, wireErr.Message)
			assert.JSONEq(t, `{"kind":"`+tt.wantKind+`"}`, string(wireErr.Data))
		})
	}
}

func TestServer_CallTool_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    any
		wantMsg string
	}{
		{name: "missing", args: map[string]any{}, wantMsg: "manifest_path is required"},
		{name: "blank", args: map[string]any{"manifest_path": "  "}, wantMsg: "manifest_path is required"},
		{name: "wrong type", args: map[string]any{"manifest_path": 42}, wantMsg: "invalid arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &stubQuerier{payload: "{}"}
			cs := connect(t, q)

			_, err := callTool(cs, "get_metadata", tt.args)
			require.Error(t, err)

			var wireErr *jsonrpc.Error
			require.ErrorAs(t, err, &wireErr)
			assert.Equal(t, int64(jsonrpc.CodeInvalidParams), wireErr.Code)
			assert.Contains(t, wireErr.Message, tt.wantMsg)
			assert.Empty(t, q.calls)
		})
	}
}

func TestServer_CallTool_UnknownTool(t *testing.T) {
	cs := connect(t, &stubQuerier{})

	_, err := callTool(cs, "get_everything", map[string]any{"manifest_path": "/work/demo/Cargo.toml"})
	require.Error(t, err)

	var wireErr *jsonrpc.Error
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, int64(jsonrpc.CodeInvalidParams), wireErr.Code)
}

func TestServer_RecordsToolCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	provider, err := telemetry.New(log)
	require.NoError(t, err)

	q := &stubQuerier{err: domain.NewMissingRootError()}
	srv := mcpserver.New(q, log, provider, mcpserver.Options{Version: "dev"})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(context.Background(), serverTransport)
	require.NoError(t, err)
	defer ss.Close() //nolint:errcheck // test cleanup

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil).
		Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close() //nolint:errcheck // test cleanup

	_, err = callTool(cs, "get_targets", map[string]any{"manifest_path": "/work/virt/Cargo.toml"})
	require.Error(t, err)
	_, err = callTool(cs, "get_targets", map[string]any{})
	require.Error(t, err)

	summary, err := provider.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.ToolCalls)
	assert.Equal(t, int64(2), summary.ToolErrors)
}
