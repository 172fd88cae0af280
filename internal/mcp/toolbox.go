package mcp

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/payram/webextract-mcp-server/internal/protocol"
)

// Tool defines the behavior of a single MCP tool.
type Tool interface {
	Descriptor() protocol.ToolDescriptor
	Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError)
}

// Toolbox stores and dispatches tools by name.
type Toolbox struct {
	tools map[string]Tool
	names []string
}

// NewToolbox constructs a toolbox with the provided tools.
func NewToolbox(tools ...Tool) *Toolbox {
	m := make(map[string]Tool, len(tools))
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		desc := t.Descriptor()
		if _, dup := m[desc.Name]; !dup {
			names = append(names, desc.Name)
		}
		m[desc.Name] = t
	}
	sort.Strings(names)
	return &Toolbox{tools: m, names: names}
}

// Describe returns all tool descriptors ordered by name.
func (tb *Toolbox) Describe() []protocol.ToolDescriptor {
	list := make([]protocol.ToolDescriptor, 0, len(tb.names))
	for _, name := range tb.names {
		list = append(list, tb.tools[name].Descriptor())
	}
	return list
}

// Call validates args against the tool's schema and invokes it.
func (tb *Toolbox) Call(ctx context.Context, name string, args json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	tool, ok := tb.tools[name]
	if !ok {
		return protocol.CallResult{}, &protocol.ResponseError{Code: protocol.CodeMethodNotFound, Message: "tool not found: " + name}
	}
	if err := validateArgs(tool.Descriptor().InputSchema, args); err != nil {
		return protocol.CallResult{}, err
	}
	return tool.Invoke(ctx, args)
}
