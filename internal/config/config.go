// Package config resolves process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transport names.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Defaults.
const (
	DefaultPort   = 3333
	DefaultAPIURL = "http://localhost:8080"
)

// ErrInvalidTransport is returned for transports other than stdio and http.
var ErrInvalidTransport = errors.New("invalid transport")

// Config holds everything the server needs at startup.
type Config struct {
	Transport  string
	Port       int
	APIURL     string
	APITimeout time.Duration
	AuthToken  string
	Allowlist  string
	LogLevel   string
	LogFormat  string
	LogDir     string
}

// Load reads the environment. MCP_HTTP=true forces the HTTP transport
// regardless of MCP_TRANSPORT.
func Load() (Config, error) {
	cfg := Config{
		Transport: strings.ToLower(envOr("MCP_TRANSPORT", TransportStdio)),
		Port:      DefaultPort,
		APIURL:    envOr("EXTRACT_API_URL", DefaultAPIURL),
		AuthToken: os.Getenv("MCP_AUTH_TOKEN"),
		Allowlist: os.Getenv("MCP_ALLOWLIST"),
		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
		LogDir:    os.Getenv("LOG_DIR"),
	}

	if raw := os.Getenv("MCP_HTTP"); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("parse MCP_HTTP: %w", err)
		}
		if on {
			cfg.Transport = TransportHTTP
		}
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("parse PORT: %w", err)
		}
		cfg.Port = port
	}

	if raw := os.Getenv("EXTRACT_API_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("parse EXTRACT_API_TIMEOUT: %w", err)
		}
		cfg.APITimeout = d
	}

	return cfg, nil
}

// Validate checks values that flags may have overridden.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("%w: %q (want stdio or http)", ErrInvalidTransport, c.Transport)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid extraction API URL: %q", c.APIURL)
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("negative API timeout: %s", c.APITimeout)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
