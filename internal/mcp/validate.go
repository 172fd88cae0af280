package mcp

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/payram/webextract-mcp-server/internal/protocol"
)

// validateArgs checks required fields, primitive types and string formats.
// Unknown fields are ignored.
func validateArgs(schema *protocol.JSONSchema, raw json.RawMessage) *protocol.ResponseError {
	if schema == nil {
		return nil
	}

	args := map[string]any{}
	if trimmed := strings.TrimSpace(string(raw)); trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return invalidParams("arguments must be a JSON object")
		}
	}

	for _, name := range schema.Required {
		if v, ok := args[name]; !ok || v == nil {
			return invalidParams(fmt.Sprintf("missing required argument: %s", name))
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok || value == nil {
			continue
		}
		if err := checkValue(name, prop, value); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(name string, prop protocol.JSONSchema, value any) *protocol.ResponseError {
	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return invalidParams(fmt.Sprintf("argument %s must be a string", name))
		}
		return checkFormat(name, prop.Format, s)
	case "boolean":
		if _, ok := value.(bool); !ok {
			return invalidParams(fmt.Sprintf("argument %s must be a boolean", name))
		}
	}
	return nil
}

func checkFormat(name, format, value string) *protocol.ResponseError {
	switch format {
	case "email":
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return invalidParams(fmt.Sprintf("argument %s must be a valid email", name))
		}
	case "uri":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalidParams(fmt.Sprintf("argument %s must be a valid URL", name))
		}
	}
	return nil
}

func invalidParams(msg string) *protocol.ResponseError {
	return &protocol.ResponseError{Code: protocol.CodeInvalidParams, Message: msg}
}
