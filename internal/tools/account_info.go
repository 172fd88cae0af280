package tools

import (
	"context"
	"encoding/json"

	"github.com/payram/webextract-mcp-server/internal/classify"
	"github.com/payram/webextract-mcp-server/internal/extractapi"
	"github.com/payram/webextract-mcp-server/internal/protocol"
)

type accountInfoTool struct {
	api *extractapi.Client
}

// AccountInfo constructs the account_info tool.
func AccountInfo(api *extractapi.Client) *accountInfoTool {
	return &accountInfoTool{api: api}
}

func (t *accountInfoTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        "account_info",
		Description: "Show the account for an API key: free extractions left, recharge schedule, USDC balance and linked wallets.",
		InputSchema: &protocol.JSONSchema{
			Type: "object",
			Properties: map[string]protocol.JSONSchema{
				"api_key": {Type: "string", Description: "API key from `register`"},
			},
			Required: []string{"api_key"},
		},
	}
}

type apiKeyArgs struct {
	APIKey string `json:"api_key"`
}

func (t *accountInfoTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args apiKeyArgs
	if err := decodeArgs(raw, &args); err != nil {
		return protocol.CallResult{}, err
	}
	if err := requireField("api_key", args.APIKey); err != nil {
		return protocol.CallResult{}, err
	}

	resp, err := t.api.Account(ctx, args.APIKey)
	return classify.Outcome(resp, err, classify.Passthrough(classify.PrefixAccount)), nil
}
