package extractapi

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Response is a completed remote call. It is classified once and discarded.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Pretty returns the body indented with two spaces, preserving key order and
// number literals. Non-JSON bodies are returned as-is.
func (r *Response) Pretty() string {
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(r.Body), "", "  "); err != nil {
		return string(r.Body)
	}
	return out.String()
}

// Compact returns the body as single-line JSON, or the raw text when it is
// not JSON.
func (r *Response) Compact() string {
	var out bytes.Buffer
	if err := json.Compact(&out, bytes.TrimSpace(r.Body)); err != nil {
		return string(r.Body)
	}
	return out.String()
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
