package tools

import (
	"encoding/json"
	"strings"

	"github.com/payram/webextract-mcp-server/internal/protocol"
)

func decodeArgs(raw json.RawMessage, v any) *protocol.ResponseError {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &protocol.ResponseError{Code: protocol.CodeInvalidParams, Message: "invalid arguments"}
	}
	return nil
}

func requireField(name, value string) *protocol.ResponseError {
	if strings.TrimSpace(value) == "" {
		return &protocol.ResponseError{Code: protocol.CodeInvalidParams, Message: "missing required argument: " + name}
	}
	return nil
}
