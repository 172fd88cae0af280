package config

import (
	"errors"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MCP_TRANSPORT", "MCP_HTTP", "PORT", "EXTRACT_API_URL", "EXTRACT_API_TIMEOUT",
		"MCP_AUTH_TOKEN", "MCP_ALLOWLIST", "LOG_LEVEL", "LOG_FORMAT", "LOG_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport != TransportStdio {
		t.Errorf("transport = %q, want %q", cfg.Transport, TransportStdio)
	}
	if cfg.Port != DefaultPort || cfg.Addr() != ":3333" {
		t.Errorf("port = %d addr = %q, want %d", cfg.Port, cfg.Addr(), DefaultPort)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("api url = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.APITimeout != 0 {
		t.Errorf("api timeout = %s, want none", cfg.APITimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCP_TRANSPORT", "HTTP")
	t.Setenv("PORT", "8081")
	t.Setenv("EXTRACT_API_URL", "https://extract.internal")
	t.Setenv("EXTRACT_API_TIMEOUT", "30s")
	t.Setenv("MCP_AUTH_TOKEN", "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport != TransportHTTP || cfg.Port != 8081 || cfg.APIURL != "https://extract.internal" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.APITimeout != 30*time.Second || cfg.AuthToken != "tok" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestHTTPToggle(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "on", value: "true", want: TransportHTTP},
		{name: "numeric on", value: "1", want: TransportHTTP},
		{name: "off", value: "false", want: TransportStdio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("MCP_HTTP", tt.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Transport != tt.want {
				t.Errorf("transport = %q, want %q", cfg.Transport, tt.want)
			}
		})
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port", key: "PORT", val: "eighty"},
		{name: "toggle", key: "MCP_HTTP", val: "maybe"},
		{name: "timeout", key: "EXTRACT_API_TIMEOUT", val: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := Config{Transport: TransportHTTP, Port: 3333, APIURL: DefaultAPIURL}

	bad := base
	bad.Transport = "websocket"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidTransport) {
		t.Errorf("expected ErrInvalidTransport, got %v", err)
	}

	bad = base
	bad.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Errorf("expected port error")
	}

	bad = base
	bad.APIURL = "localhost"
	if err := bad.Validate(); err == nil {
		t.Errorf("expected url error")
	}

	bad = base
	bad.APITimeout = -time.Second
	if err := bad.Validate(); err == nil {
		t.Errorf("expected timeout error")
	}
}
