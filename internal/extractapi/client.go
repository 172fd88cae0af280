// Package extractapi talks to the remote web-extraction service.
package extractapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Header names understood by the remote service.
const (
	HeaderAPIKey       = "X-API-Key"
	HeaderPaymentProof = "X-Payment-Proof"
)

// Remote endpoint paths.
const (
	PathRegister = "/register"
	PathExtract  = "/extract"
	PathAccount  = "/account"
	PathWallets  = "/account/wallets"
	PathDeposit  = "/account/deposit"
)

// Doer performs a single HTTP round trip. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues one request per operation against the extraction API.
// It never retries.
type Client struct {
	baseURL string
	doer    Doer
	logger  *logrus.Entry
}

// NewClient builds a client. A nil doer falls back to an http.Client with
// the given timeout (zero means none). A nil logger discards output.
func NewClient(baseURL string, doer Doer, timeout time.Duration, logger *logrus.Entry) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		logger:  logger,
	}
}

// ExtractRequest carries the extract_url inputs.
type ExtractRequest struct {
	URL    string
	Sync   bool
	APIKey string
	TxHash string
}

// Register creates a free-tier account for email.
func (c *Client) Register(ctx context.Context, email string) (*Response, error) {
	return c.send(ctx, http.MethodPost, PathRegister, nil, map[string]any{"email": email})
}

// Extract asks the service to extract a URL. The API key and payment proof
// headers are attached only when set.
func (c *Client) Extract(ctx context.Context, in ExtractRequest) (*Response, error) {
	headers := map[string]string{}
	if in.APIKey != "" {
		headers[HeaderAPIKey] = in.APIKey
	}
	if in.TxHash != "" {
		headers[HeaderPaymentProof] = in.TxHash
	}
	return c.send(ctx, http.MethodPost, PathExtract, headers, map[string]any{"url": in.URL, "sync": in.Sync})
}

// Account fetches the account bound to apiKey.
func (c *Client) Account(ctx context.Context, apiKey string) (*Response, error) {
	return c.send(ctx, http.MethodGet, PathAccount, map[string]string{HeaderAPIKey: apiKey}, nil)
}

// AddWallet links a wallet address to the account.
func (c *Client) AddWallet(ctx context.Context, apiKey, walletAddress string) (*Response, error) {
	return c.send(ctx, http.MethodPost, PathWallets, map[string]string{HeaderAPIKey: apiKey}, map[string]any{"wallet_address": walletAddress})
}

// Deposit credits the account with an on-chain USDC transfer.
func (c *Client) Deposit(ctx context.Context, apiKey, txHash string) (*Response, error) {
	return c.send(ctx, http.MethodPost, PathDeposit, map[string]string{HeaderAPIKey: apiKey}, map[string]any{"tx_hash": txHash})
}

func (c *Client) send(ctx context.Context, method, path string, headers map[string]string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log := c.logger.WithFields(logrus.Fields{"method": method, "path": path})
	resp, err := c.doer.Do(req)
	if err != nil {
		log.Warnf("request failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warnf("read body failed: %v", err)
		return nil, fmt.Errorf("read response: %w", err)
	}
	log.WithField("status", resp.StatusCode).Debug("remote call completed")

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}
