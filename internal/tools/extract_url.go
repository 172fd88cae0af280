package tools

import (
	"context"
	"encoding/json"

	"github.com/payram/webextract-mcp-server/internal/classify"
	"github.com/payram/webextract-mcp-server/internal/extractapi"
	"github.com/payram/webextract-mcp-server/internal/protocol"
)

// extractURLTool extracts a page through the remote service. Without an
// api_key or tx_hash the service serves cache hits for free and answers 402
// otherwise.
type extractURLTool struct {
	api *extractapi.Client
}

// ExtractURL constructs the extract_url tool.
func ExtractURL(api *extractapi.Client) *extractURLTool {
	return &extractURLTool{api: api}
}

func (t *extractURLTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name: "extract_url",
		Description: "Extract clean content from a web page. Cached pages are free; otherwise pass an api_key " +
			"(free tier via `register`) or a tx_hash proving an x402 payment. With sync=false the call returns a job to poll.",
		InputSchema: &protocol.JSONSchema{
			Type: "object",
			Properties: map[string]protocol.JSONSchema{
				"url":     {Type: "string", Format: "uri", Description: "URL of the page to extract"},
				"api_key": {Type: "string", Description: "API key from `register`"},
				"sync":    {Type: "boolean", Default: true, Description: "Wait for the result (true) or return an async job (false)"},
				"tx_hash": {Type: "string", Description: "Transaction hash proving an x402 payment"},
			},
			Required: []string{"url"},
		},
	}
}

type extractURLArgs struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
	Sync   *bool  `json:"sync"`
	TxHash string `json:"tx_hash"`
}

func (t *extractURLTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args extractURLArgs
	if err := decodeArgs(raw, &args); err != nil {
		return protocol.CallResult{}, err
	}
	if err := requireField("url", args.URL); err != nil {
		return protocol.CallResult{}, err
	}

	sync := true
	if args.Sync != nil {
		sync = *args.Sync
	}

	resp, err := t.api.Extract(ctx, extractapi.ExtractRequest{
		URL:    args.URL,
		Sync:   sync,
		APIKey: args.APIKey,
		TxHash: args.TxHash,
	})
	return classify.Outcome(resp, err, classify.Extract), nil
}
