package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hmahadik/traq/internal/transport"
)

// Version is reported to MCP clients during initialize.
const Version = "0.1.0"

// Services contains all domain services needed by MCP.
type Services struct {
	Timeline    TimelineService
	Projects    ProjectService
	Assignments AssignmentService
	Sessions    SessionService
	Activity    ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Verifier      transport.TokenVerifier
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Location      *time.Location
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "traq",
		Version: Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// stdio is a local pipe, so auth only applies over HTTP
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled && cfg.Verifier != nil {
		server.AddReceivingMiddleware(authMiddleware(cfg.Verifier))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware("local"))
	}
	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services, cfg.Location), cfg.Logger)

	return server
}

// NewHTTPHandler serves the MCP server over streamable HTTP.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute})
}

func registerTools(server *sdkmcp.Server, h *Handler, logger *slog.Logger) {
	for _, def := range buildToolCatalog() {
		def := def
		tool := &sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
		if def.ReadOnly {
			tool.Annotations = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
		}
		server.AddTool(tool, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			out, err := h.Handle(ctx, def.Name, args)
			if err != nil {
				logger.Debug("tool call failed", "tool", def.Name,
					"client_id", getClientID(ctx), "session_id", getSessionID(ctx), "error", err)
				return toolError(err), nil
			}
			logger.Debug("tool call", "tool", def.Name, "client_id", getClientID(ctx), "session_id", getSessionID(ctx))
			return toolResult(out)
		})
	}
}

func toolResult(out any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

// toolError reports a failure inside the result so the model can read it.
func toolError(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	data, mErr := json.Marshal(apiErr)
	if mErr != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
