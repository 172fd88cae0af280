package app

import (
	"context"
	"errors"
	"testing"

	"github.com/payram/webextract-mcp-server/internal/config"
	"github.com/payram/webextract-mcp-server/internal/extractapi"
)

func TestNewToolboxDeclaresEveryTool(t *testing.T) {
	tb := NewToolbox(extractapi.NewClient("http://extract.test", nil, 0, nil))

	want := map[string][]string{
		"account_info": {"api_key"},
		"add_wallet":   {"api_key", "wallet_address"},
		"deposit":      {"api_key", "tx_hash"},
		"extract_url":  {"url"},
		"register":     {"email"},
	}

	descs := tb.Describe()
	if len(descs) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(descs))
	}
	for _, d := range descs {
		required, ok := want[d.Name]
		if !ok {
			t.Fatalf("unexpected tool %s", d.Name)
		}
		if d.InputSchema == nil || len(d.InputSchema.Required) != len(required) {
			t.Fatalf("%s: expected required %v, got %+v", d.Name, required, d.InputSchema)
		}
		for i, name := range required {
			if d.InputSchema.Required[i] != name {
				t.Fatalf("%s: expected required %v, got %v", d.Name, required, d.InputSchema.Required)
			}
		}
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := config.Config{Transport: "carrier-pigeon", Port: 3333, APIURL: config.DefaultAPIURL}
	if err := Run(context.Background(), cfg); !errors.Is(err, config.ErrInvalidTransport) {
		t.Fatalf("expected ErrInvalidTransport, got %v", err)
	}
}
