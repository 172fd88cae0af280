package tools

import (
	"context"
	"encoding/json"

	"github.com/payram/webextract-mcp-server/internal/classify"
	"github.com/payram/webextract-mcp-server/internal/extractapi"
	"github.com/payram/webextract-mcp-server/internal/protocol"
)

// addWalletTool links a sending wallet so deposits from it can be credited.
type addWalletTool struct {
	api *extractapi.Client
}

// AddWallet constructs the add_wallet tool.
func AddWallet(api *extractapi.Client) *addWalletTool {
	return &addWalletTool{api: api}
}

func (t *addWalletTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        "add_wallet",
		Description: "Link a wallet address to the account. Deposits are only credited when sent from a linked wallet.",
		InputSchema: &protocol.JSONSchema{
			Type: "object",
			Properties: map[string]protocol.JSONSchema{
				"api_key":        {Type: "string", Description: "API key from `register`"},
				"wallet_address": {Type: "string", Description: "EVM wallet address (0x...)"},
			},
			Required: []string{"api_key", "wallet_address"},
		},
	}
}

type addWalletArgs struct {
	APIKey        string `json:"api_key"`
	WalletAddress string `json:"wallet_address"`
}

func (t *addWalletTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args addWalletArgs
	if err := decodeArgs(raw, &args); err != nil {
		return protocol.CallResult{}, err
	}
	if err := requireField("api_key", args.APIKey); err != nil {
		return protocol.CallResult{}, err
	}
	if err := requireField("wallet_address", args.WalletAddress); err != nil {
		return protocol.CallResult{}, err
	}

	resp, err := t.api.AddWallet(ctx, args.APIKey, args.WalletAddress)
	return classify.Outcome(resp, err, classify.WalletAdded(args.WalletAddress)), nil
}
