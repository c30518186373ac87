// Package mcpserver exposes the metadata operations as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
)

const (
	// ServerName is the implementation name announced to clients.
	ServerName = "cargo-metadata-mcp"
	// PromptName is the name of the welcome prompt.
	PromptName = "cargo_metadata_prompt"
	// WelcomeText is the body of the welcome prompt.
	WelcomeText = "Welcome to the Cargo Metadata server! Use it to retrieve metadata about Cargo projects."

	// ManifestPathArg is the single argument every tool takes.
	ManifestPathArg = "manifest_path"
)

// Instructions describes the server to clients during initialization.
const Instructions = "Answers questions about Rust projects by running `cargo metadata`. " +
	"Every tool takes the path of a Cargo.toml as manifest_path and returns pretty-printed JSON. " +
	"The first project that resolves successfully is cached and served for the lifetime of the server."

// Querier runs a metadata operation.
type Querier interface {
	Run(ctx context.Context, op domain.Operation, manifestPath string) (string, error)
}

// Options configures a Server.
type Options struct {
	// Version is announced to clients.
	Version string
	// Logger receives the protocol library's own diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Server adapts a Querier to the Model Context Protocol.
type Server struct {
	server    *mcp.Server
	querier   Querier
	logger    ports.Logger
	telemetry ports.Telemetry
}

// New creates a Server with the welcome prompt and one tool per operation.
func New(querier Querier, logger ports.Logger, telemetry ports.Telemetry, opts Options) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Title:   "Cargo Metadata",
			Version: opts.Version,
		}, &mcp.ServerOptions{
			Instructions: Instructions,
			Logger:       opts.Logger,
		}),
		querier:   querier,
		logger:    logger,
		telemetry: telemetry,
	}

	s.server.AddPrompt(&mcp.Prompt{
		Name:        PromptName,
		Title:       "Cargo metadata welcome",
		Description: "Introduces the Cargo metadata tools.",
	}, s.welcome)

	for _, op := range domain.Operations() {
		s.server.AddTool(tool(op), s.handler(op))
	}

	return s
}

// Run serves a single session over stdin and stdout until ctx is done or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Serve serves a single session over t.
func (s *Server) Serve(ctx context.Context, t mcp.Transport) error {
	s.logger.Debug("serving MCP session")
	err := s.server.Run(ctx, t)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Connect starts a session over t without blocking.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func tool(op domain.Operation) *mcp.Tool {
	return &mcp.Tool{
		Name:        string(op),
		Title:       op.Title(),
		Description: op.Description(),
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				ManifestPathArg: {
					Type:        "string",
					Description: "Path to the Cargo.toml of the project",
				},
			},
			Required: []string{ManifestPathArg},
		},
		Annotations: &mcp.ToolAnnotations{
			Title:          op.Title(),
			ReadOnlyHint:   true,
			IdempotentHint: true,
		},
	}
}

func (s *Server) welcome(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Cargo metadata welcome",
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: WelcomeText}},
		},
	}, nil
}

func (s *Server) handler(op domain.Operation) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		start := time.Now()

		ctx, span := s.telemetry.Start(ctx, "tool/"+string(op))
		defer span.End()
		span.SetAttribute("request_id", requestID)

		manifestPath, err := manifestPath(req)
		if err != nil {
			span.RecordError(err)
			s.telemetry.RecordToolCall(ctx, string(op), time.Since(start), err)
			s.logger.Warn("rejected tool call", "tool", string(op), "request_id", requestID, "error", err.Error())
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
		}
		span.SetAttribute(ManifestPathArg, manifestPath)
		s.logger.Debug("tool call", "tool", string(op), "request_id", requestID, ManifestPathArg, manifestPath)

		payload, err := s.querier.Run(ctx, op, manifestPath)
		s.telemetry.RecordToolCall(ctx, string(op), time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			s.logger.Warn("tool call failed", "tool", string(op), "request_id", requestID, "error", err.Error())
			return nil, wireError(err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: payload}},
		}, nil
	}
}

type toolArgs struct {
	ManifestPath string `json:"manifest_path"`
}

func manifestPath(req *mcp.CallToolRequest) (string, error) {
	var args toolArgs
	if raw := req.Params.Arguments; len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", errors.New("invalid arguments: " + err.Error())
		}
	}
	if strings.TrimSpace(args.ManifestPath) == "" {
		return "", domain.ErrManifestPathRequired
	}
	return args.ManifestPath, nil
}

// wireError maps a query failure to an internal JSON-RPC error whose data names
// the error kind.
func wireError(err error) *jsonrpc.Error {
	kind := "internal"
	if k, ok := domain.KindOf(err); ok {
		kind = string(k)
	}
	data, _ := json.Marshal(map[string]string{"kind": kind}) //nolint:errchkjson // map of strings always encodes
	return &jsonrpc.Error{
		Code:    jsonrpc.CodeInternalError,
		Message: err.Error(),
		Data:    data,
	}
}
