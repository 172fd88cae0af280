package tools

import (
	"context"
	"encoding/json"

	"github.com/payram/webextract-mcp-server/internal/classify"
	"github.com/payram/webextract-mcp-server/internal/extractapi"
	"github.com/payram/webextract-mcp-server/internal/protocol"
)

// registerTool creates a free-tier account and returns its API key.
type registerTool struct {
	api *extractapi.Client
}

// Register constructs the register tool.
func Register(api *extractapi.Client) *registerTool {
	return &registerTool{api: api}
}

func (t *registerTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        "register",
		Description: "Register an email for a free-tier API key. Returns the api_key and the number of free extractions.",
		InputSchema: &protocol.JSONSchema{
			Type: "object",
			Properties: map[string]protocol.JSONSchema{
				"email": {Type: "string", Format: "email", Description: "Email address for the account"},
			},
			Required: []string{"email"},
		},
	}
}

type registerArgs struct {
	Email string `json:"email"`
}

func (t *registerTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args registerArgs
	if err := decodeArgs(raw, &args); err != nil {
		return protocol.CallResult{}, err
	}
	if err := requireField("email", args.Email); err != nil {
		return protocol.CallResult{}, err
	}

	resp, err := t.api.Register(ctx, args.Email)
	return classify.Outcome(resp, err, classify.Passthrough(classify.PrefixRegister)), nil
}
