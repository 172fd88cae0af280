package app

import (
	"context"
	"fmt"
	"os"

	"github.com/payram/webextract-mcp-server/internal/config"
	"github.com/payram/webextract-mcp-server/internal/extractapi"
	"github.com/payram/webextract-mcp-server/internal/logging"
	"github.com/payram/webextract-mcp-server/internal/mcp"
	"github.com/payram/webextract-mcp-server/internal/session"
	"github.com/payram/webextract-mcp-server/internal/tools"
)

// NewToolbox builds the toolbox over one extraction API client.
func NewToolbox(api *extractapi.Client) *mcp.Toolbox {
	return mcp.NewToolbox(
		// Onboarding
		tools.Register(api),

		// Extraction
		tools.ExtractURL(api),

		// Account and prepaid balance
		tools.AccountInfo(api),
		tools.AddWallet(api),
		tools.Deposit(api),
	)
}

// NewMCPServer constructs an MCP server over the given client.
func NewMCPServer(api *extractapi.Client) *mcp.Server {
	return mcp.NewServer(NewToolbox(api))
}

// Run starts the configured transport and blocks until it ends or ctx is
// cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Dir: cfg.LogDir}
	apiLog, closeAPILog, err := logging.New("extractapi", opts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeAPILog()

	api := extractapi.NewClient(cfg.APIURL, nil, cfg.APITimeout, apiLog)
	server := NewMCPServer(api)

	switch cfg.Transport {
	case config.TransportHTTP:
		return runHTTP(ctx, cfg, server, opts)
	default:
		return runStdio(ctx, server, opts)
	}
}

func runHTTP(ctx context.Context, cfg config.Config, server *mcp.Server, opts logging.Options) error {
	httpLog, closeHTTPLog, err := logging.New("mcp-http", opts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeHTTPLog()

	sessionLog, closeSessionLog, err := logging.New("session", opts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeSessionLog()

	handler := mcp.NewHTTPHandler(server, session.NewRegistry(sessionLog), httpLog)
	return mcp.RunHTTP(ctx, handler, cfg.Addr(), mcp.NewGuard(cfg.AuthToken, cfg.Allowlist))
}

func runStdio(ctx context.Context, server *mcp.Server, opts logging.Options) error {
	stdioLog, closeStdioLog, err := logging.New("mcp-stdio", opts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeStdioLog()

	return mcp.ServeStdio(ctx, server, os.Stdin, os.Stdout, stdioLog)
}
