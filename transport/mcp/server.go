package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/gamesession/game/loop"
	"github.com/wricardo/gamesession/game/session"
)

const (
	serverName    = "Game Session"
	serverVersion = "0.1.0"

	// maxRequestSize bounds one JSON-RPC request body
	maxRequestSize = 1 << 20
)

// SessionSource exposes the state of the running session
type SessionSource interface {
	Snapshot() session.Snapshot
}

// StatsSource exposes the command loop counters
type StatsSource interface {
	Stats() loop.Stats
}

// Server answers MCP tool calls about one session
type Server struct {
	session   SessionSource
	stats     StatsSource
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates the MCP server. stats may be nil when no loop is running.
func NewServer(sess SessionSource, stats StatsSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		session: sess,
		stats:   stats,
		logger:  logger,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Game Session - MCP Interface

Read-only view of a game session whose commands arrive on standard input.

AVAILABLE TOOLS:
- get_session: session identifier, phase, test mode and creation time
- loop_stats: command loop counters`),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get the identifier, phase, test mode and creation time of the session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleGetSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "loop_stats",
		Description: "Get how many lines the command loop has read, answered and rejected",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleLoopStats)
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.session.Snapshot())
}

func (s *Server) handleLoopStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.stats == nil {
		return mcp.NewToolResultError("command loop not running"), nil
	}
	return jsonResult(s.stats.Stats())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ServeHTTP handles one JSON-RPC message per POST body
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := s.mcpServer.HandleMessage(r.Context(), body)

	responseData, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal MCP response", zap.Error(err))
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(responseData); err != nil {
		s.logger.Warn("failed to write MCP response", zap.Error(err))
	}
}
