package tools

import (
	"context"
	"encoding/json"

	"github.com/payram/webextract-mcp-server/internal/classify"
	"github.com/payram/webextract-mcp-server/internal/extractapi"
	"github.com/payram/webextract-mcp-server/internal/protocol"
)

type depositTool struct {
	api *extractapi.Client
}

// Deposit constructs the deposit tool.
func Deposit(api *extractapi.Client) *depositTool {
	return &depositTool{api: api}
}

func (t *depositTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        "deposit",
		Description: "Credit prepaid balance from an on-chain USDC transfer sent from a linked wallet.",
		InputSchema: &protocol.JSONSchema{
			Type: "object",
			Properties: map[string]protocol.JSONSchema{
				"api_key": {Type: "string", Description: "API key from `register`"},
				"tx_hash": {Type: "string", Description: "Hash of the USDC transfer"},
			},
			Required: []string{"api_key", "tx_hash"},
		},
	}
}

type depositArgs struct {
	APIKey string `json:"api_key"`
	TxHash string `json:"tx_hash"`
}

func (t *depositTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args depositArgs
	if err := decodeArgs(raw, &args); err != nil {
		return protocol.CallResult{}, err
	}
	if err := requireField("api_key", args.APIKey); err != nil {
		return protocol.CallResult{}, err
	}
	if err := requireField("tx_hash", args.TxHash); err != nil {
		return protocol.CallResult{}, err
	}

	resp, err := t.api.Deposit(ctx, args.APIKey, args.TxHash)
	return classify.Outcome(resp, err, classify.Passthrough(classify.PrefixDeposit)), nil
}
