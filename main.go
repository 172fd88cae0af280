package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/payram/webextract-mcp-server/internal/app"
	"github.com/payram/webextract-mcp-server/internal/config"
	"github.com/payram/webextract-mcp-server/internal/version"
	"github.com/spf13/cobra"
)

var (
	transportFlag string
	portFlag      int
	apiURLFlag    string
	logLevelFlag  string
	httpFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "webextract-mcp",
	Short: "MCP server for the web extraction API",
	Long: `webextract-mcp exposes the web extraction API as MCP tools:
register, extract_url, account_info, add_wallet and deposit.

Transports:
  stdio  - one client over stdin/stdout (default)
  http   - multi-client streamable HTTP on /mcp with Mcp-Session-Id sessions`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags win over the environment only when given explicitly.
	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = transportFlag
	}
	if httpFlag {
		cfg.Transport = config.TransportHTTP
	}
	if flags.Changed("port") {
		cfg.Port = portFlag
	}
	if flags.Changed("api-url") {
		cfg.APIURL = apiURLFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, cfg)
}

func init() {
	rootCmd.Flags().StringVarP(&transportFlag, "transport", "t", config.TransportStdio, "Transport to serve (stdio, http); env MCP_TRANSPORT")
	rootCmd.Flags().BoolVar(&httpFlag, "http", false, "Shorthand for --transport http")
	rootCmd.Flags().IntVarP(&portFlag, "port", "p", config.DefaultPort, "HTTP port; env PORT")
	rootCmd.Flags().StringVar(&apiURLFlag, "api-url", config.DefaultAPIURL, "Extraction API base URL; env EXTRACT_API_URL")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "info", "Log level; env LOG_LEVEL")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
