package web

import (
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
)

// Hand-off state travels from a list page to the page it links to (edit
// form, delete confirmation) as an opaque query or form value, so the
// target can render without fetching again.

// EncodeState serializes v for a URL or hidden form field.
func EncodeState(v any) (string, error) {
	bs, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bs), nil
}

// DecodeState reverses EncodeState.
func DecodeState(s string, v any) error {
	bs, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if err := json.Unmarshal(bs, v); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return nil
}
