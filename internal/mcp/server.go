package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/payram/webextract-mcp-server/internal/protocol"
	"github.com/payram/webextract-mcp-server/internal/version"
)

const (
	// ServerName is reported in the initialize result.
	ServerName = "webextract-mcp-server"
	// DefaultProtocolVersion is used when the client does not name one.
	DefaultProtocolVersion = "2025-03-26"
)

// Server handles MCP JSON-RPC requests against a toolbox. It holds no
// per-connection state and is shared by every binding and session.
type Server struct {
	toolbox *Toolbox
}

// NewServer wires a toolbox into an MCP server.
func NewServer(tb *Toolbox) *Server {
	return &Server{toolbox: tb}
}

// Handle routes a single request. Notifications yield a zero Response and
// ok=false; the caller must not reply to them.
func (s *Server) Handle(ctx context.Context, req protocol.Request) (protocol.Response, bool) {
	if req.IsNotification() {
		return protocol.Response{}, false
	}
	if err := validateJSONRPC(req); err != nil {
		return protocol.Response{JSONRPC: "2.0", ID: normalizeID(req.ID), Error: err}, true
	}

	id := normalizeID(req.ID)
	switch req.Method {
	case "initialize":
		return protocol.Response{JSONRPC: "2.0", ID: id, Result: initializeResult(req.Params)}, true
	case "ping":
		return protocol.Response{JSONRPC: "2.0", ID: id, Result: map[string]any{}}, true
	case "tools/list":
		return protocol.Response{JSONRPC: "2.0", ID: id, Result: protocol.ListResult{Tools: s.toolbox.Describe()}}, true
	case "tools/call":
		var params protocol.CallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return WriteError(req.ID, protocol.CodeInvalidParams, "invalid params", nil), true
		}
		if params.Name == "" {
			return WriteError(req.ID, protocol.CodeInvalidParams, "tool name required", nil), true
		}
		result, toolErr := s.toolbox.Call(ctx, params.Name, params.Args)
		if toolErr != nil {
			return protocol.Response{JSONRPC: "2.0", ID: id, Error: toolErr}, true
		}
		return protocol.Response{JSONRPC: "2.0", ID: id, Result: result}, true
	default:
		return WriteError(req.ID, protocol.CodeMethodNotFound, "method not found", nil), true
	}
}

// IsInitialize reports whether req opens a session.
func IsInitialize(req protocol.Request) bool {
	return req.Method == "initialize"
}

// WriteError builds a response with an error and wraps encode issues.
func WriteError(id any, code int, message string, err error) protocol.Response {
	detail := message
	if err != nil {
		detail = fmt.Sprintf("%s: %v", message, err)
	}
	return protocol.Response{JSONRPC: "2.0", ID: normalizeID(id), Error: &protocol.ResponseError{Code: code, Message: detail}}
}

func initializeResult(raw json.RawMessage) protocol.InitializeResult {
	var params protocol.InitializeParams
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &params)
	}
	protocolVersion := params.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}
	return protocol.InitializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      protocol.ServerInfo{Name: ServerName, Version: version.Get().Version},
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
	}
}

func validateJSONRPC(req protocol.Request) *protocol.ResponseError {
	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		return &protocol.ResponseError{Code: protocol.CodeInvalidRequest, Message: "invalid jsonrpc version"}
	}
	if req.Method == "" {
		return &protocol.ResponseError{Code: protocol.CodeInvalidRequest, Message: "method required"}
	}
	return nil
}

func normalizeID(id any) any {
	if id == nil {
		return "0"
	}
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return v
	case int, int32, int64, uint32, uint64:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
