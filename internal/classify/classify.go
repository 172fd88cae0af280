// Package classify turns remote extraction API outcomes into tool results.
package classify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/payram/webextract-mcp-server/internal/extractapi"
	"github.com/payram/webextract-mcp-server/internal/protocol"
)

// Payment headers returned with a bare 402.
const (
	HeaderPaymentRecipient = "X-Payment-Recipient"
	HeaderPaymentAmount    = "X-Payment-Amount"
	HeaderPaymentCurrency  = "X-Payment-Currency"
	HeaderPaymentNetwork   = "X-Payment-Network"
)

// Defaults substituted for absent payment headers.
const (
	DefaultRecipient = "0x9FBF0f395b0610Bc15B17d84aB1f6CEF325420E9"
	DefaultAmount    = "0.01"
	DefaultCurrency  = "USDC"
	DefaultNetwork   = "base"
)

// Error prefixes for the account-side operations.
const (
	PrefixRegister  = "Registration failed"
	PrefixAccount   = "Failed to fetch account info"
	PrefixAddWallet = "Failed to add wallet"
	PrefixDeposit   = "Deposit failed"
	PrefixExtract   = "Extraction failed"
)

const invalidAPIKeyText = "Invalid API key. Call the `register` tool with your email to get a new key, then retry `extract_url` with it."

// Outcome classifies a finished call. A non-nil err means the call never
// produced a response.
func Outcome(resp *extractapi.Response, err error, classify func(*extractapi.Response) protocol.CallResult) protocol.CallResult {
	if err != nil {
		return TransportFailure(err)
	}
	return classify(resp)
}

// TransportFailure reports a call that could not complete.
func TransportFailure(err error) protocol.CallResult {
	return protocol.ErrorResult(fmt.Sprintf("Failed to connect to extraction API: %v", err))
}

// Passthrough returns a classifier for account-side operations: 200 echoes
// the payload, anything else is an error carrying the prefix.
func Passthrough(prefix string) func(*extractapi.Response) protocol.CallResult {
	return func(resp *extractapi.Response) protocol.CallResult {
		if resp.StatusCode == http.StatusOK {
			return protocol.TextResult(resp.Pretty())
		}
		return statusFailure(prefix, resp)
	}
}

// WalletAdded returns the add_wallet classifier, which confirms the address
// instead of echoing the payload.
func WalletAdded(walletAddress string) func(*extractapi.Response) protocol.CallResult {
	return func(resp *extractapi.Response) protocol.CallResult {
		if resp.StatusCode == http.StatusOK {
			return protocol.TextResult(fmt.Sprintf(
				"Wallet %s linked to your account. USDC sent from this wallet can now be credited with the `deposit` tool.",
				walletAddress))
		}
		return statusFailure(PrefixAddWallet, resp)
	}
}

// Extract classifies an extract response.
func Extract(resp *extractapi.Response) protocol.CallResult {
	switch resp.StatusCode {
	case http.StatusOK:
		return protocol.TextResult(resp.Pretty())
	case http.StatusAccepted:
		return accepted(resp)
	case http.StatusPaymentRequired:
		return paymentRequired(resp)
	case http.StatusUnauthorized:
		return protocol.ErrorResult(invalidAPIKeyText)
	default:
		return statusFailure(PrefixExtract, resp)
	}
}

func statusFailure(prefix string, resp *extractapi.Response) protocol.CallResult {
	return protocol.ErrorResult(fmt.Sprintf("%s (HTTP %d): %s", prefix, resp.StatusCode, resp.Compact()))
}

type asyncJob struct {
	JobID            string  `json:"job_id"`
	PollURL          string  `json:"poll_url"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
}

func accepted(resp *extractapi.Response) protocol.CallResult {
	var job asyncJob
	_ = resp.Decode(&job)

	var b strings.Builder
	b.WriteString("Extraction queued (async mode).\n")
	fmt.Fprintf(&b, "Job ID: %s\n", job.JobID)
	fmt.Fprintf(&b, "Poll: GET %s\n", job.PollURL)
	fmt.Fprintf(&b, "Estimated time: ~%ss\n", strconv.FormatFloat(job.EstimatedSeconds, 'f', -1, 64))
	b.WriteString("The service is processing this URL asynchronously. Poll the path above until the result is ready, or retry with sync=true to wait for it.")
	return protocol.TextResult(b.String())
}

type paymentBody struct {
	Options json.RawMessage `json:"options"`
	Error   any             `json:"error"`
}

// hasOptions reports whether the body carries an options field. Any value
// other than null counts, including false, "" and [].
func (p paymentBody) hasOptions() bool {
	trimmed := strings.TrimSpace(string(p.Options))
	return trimmed != "" && trimmed != "null"
}

func (p paymentBody) exhausted() bool {
	msg, ok := p.Error.(string)
	return ok && strings.Contains(msg, "exhausted")
}

// paymentRequired evaluates the 402 sub-cases in order: options, exhausted,
// then header-driven x402 instructions. None of them is an error result.
func paymentRequired(resp *extractapi.Response) protocol.CallResult {
	var body paymentBody
	_ = resp.Decode(&body)

	switch {
	case body.hasOptions():
		return protocol.TextResult(optionsGuidance(body.Options))
	case body.exhausted():
		return protocol.TextResult(exhaustedGuidance)
	default:
		return protocol.TextResult(x402Guidance(resp.Header))
	}
}

func optionsGuidance(options json.RawMessage) string {
	var b strings.Builder
	b.WriteString("Payment required to extract this URL. Choose one of:\n\n")
	b.WriteString("1. Register for a free-tier API key: call the `register` tool with your email, then retry `extract_url` with api_key set.\n")
	b.WriteString("2. Pay per request with x402: send the on-chain micropayment, then retry `extract_url` with tx_hash set to the transaction hash as proof.\n")
	pretty := (&extractapi.Response{Body: options}).Pretty()
	if pretty != "" {
		b.WriteString("\nOptions returned by the service:\n")
		b.WriteString(pretty)
	}
	return b.String()
}

const exhaustedGuidance = `Free tier exhausted. Your free extractions recharge on a rolling basis.

Options:
1. Wait for the free tier to recharge, then retry.
2. Deposit USDC as prepaid balance: link your sending wallet with ` + "`add_wallet`" + `, transfer USDC on-chain, then call ` + "`deposit`" + ` with your api_key and the tx_hash.
3. Pay per request with x402: retry ` + "`extract_url`" + ` with tx_hash set to the hash of an on-chain payment.`

func x402Guidance(h http.Header) string {
	recipient := headerOr(h, HeaderPaymentRecipient, DefaultRecipient)
	amount := headerOr(h, HeaderPaymentAmount, DefaultAmount)
	currency := headerOr(h, HeaderPaymentCurrency, DefaultCurrency)
	network := headerOr(h, HeaderPaymentNetwork, DefaultNetwork)

	var b strings.Builder
	fmt.Fprintf(&b, "Payment required (x402): %s %s on %s.\n", amount, currency, network)
	fmt.Fprintf(&b, "Send the payment to %s, then retry `extract_url` with the same url and tx_hash set to the transaction hash as proof of payment.", recipient)
	return b.String()
}

// headerOr looks a header up case-insensitively.
func headerOr(h http.Header, key, fallback string) string {
	if v := strings.TrimSpace(h.Get(key)); v != "" {
		return v
	}
	return fallback
}
