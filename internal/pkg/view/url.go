package view

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// URLParam is the query parameter holding the widget values.
const URLParam = "widgets"

// EncodeURL encodes widget values as an escaped JSON document, suitable as a query parameter value.
func EncodeURL(w Widgets) (string, error) {
	buf, err := json.Marshal(w.Map())
	if err != nil {
		return "", fmt.Errorf("encoding widgets: %w", err)
	}

	return url.QueryEscape(string(buf)), nil
}

// DecodeURL decodes widget values from a JSON document, possibly URL-escaped.
//
// The result is meant to be merged over other layers of widget values with [Merge].
func DecodeURL(param string) (map[string]any, error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return map[string]any{}, nil
	}

	if !strings.HasPrefix(param, "{") {
		unescaped, err := url.QueryUnescape(param)
		if err != nil {
			return nil, fmt.Errorf("unescaping widgets: %w", err)
		}
		param = unescaped
	}

	values := make(map[string]any)
	if err := json.Unmarshal([]byte(param), &values); err != nil {
		return nil, fmt.Errorf("decoding widgets: %w", err)
	}

	return values, nil
}
