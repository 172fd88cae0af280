package mcp

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/payram/webextract-mcp-server/internal/protocol"
)

// Rejection messages written by the guard.
const (
	msgForbiddenIP  = "Forbidden: client address not in allowlist"
	msgUnauthorized = "Unauthorized: missing or invalid bearer token"
)

// NewGuard returns middleware that admits a request only when it carries
// "Authorization: Bearer <token>" and comes from an address in allowlist
// (comma-separated CIDRs; malformed entries are ignored). Loopback always
// passes the address check, as does anything when allowlist is empty.
// An empty token disables the guard and NewGuard returns nil.
func NewGuard(token, allowlist string) func(http.Handler) http.Handler {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	prefixes := parsePrefixes(allowlist)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !addressAllowed(r.RemoteAddr, prefixes) {
				reject(w, http.StatusForbidden, msgForbiddenIP)
				return
			}
			if !bearerMatches(r.Header.Get("Authorization"), token) {
				reject(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// reject answers in the JSON-RPC error shape the endpoint itself uses.
func reject(w http.ResponseWriter, status int, msg string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, protocol.Response{JSONRPC: "2.0", Error: &protocol.ResponseError{Code: protocol.CodeSessionError, Message: msg}}, status)
}

func bearerMatches(header, token string) bool {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(value)), []byte(token)) == 1
}

func addressAllowed(remoteAddr string, prefixes []netip.Prefix) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func parsePrefixes(raw string) []netip.Prefix {
	var out []netip.Prefix
	for _, field := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		if p, err := netip.ParsePrefix(field); err == nil {
			out = append(out, p.Masked())
		}
	}
	return out
}
