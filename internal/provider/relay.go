package provider

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Relay is a CORS-relay proxy transport. WrapURL rewrites a target URL into
// the relay's request form; Unwrap extracts the upstream body from the
// relay's response envelope (a no-op for pass-through relays).
type Relay interface {
	Name() string
	WrapURL(target string) string
	Unwrap(body []byte) ([]byte, error)
}

const allOriginsBaseURL = "https://api.allorigins.win/get"

// AllOriginsRelay routes requests through the allorigins JSON-envelope relay.
// The upstream body arrives as a string under "contents".
type AllOriginsRelay struct {
	baseURL string
}

func NewAllOriginsRelay() *AllOriginsRelay {
	return &AllOriginsRelay{baseURL: allOriginsBaseURL}
}

func (r *AllOriginsRelay) Name() string { return "allorigins" }

func (r *AllOriginsRelay) WrapURL(target string) string {
	return r.baseURL + "?url=" + url.QueryEscape(target)
}

func (r *AllOriginsRelay) Unwrap(body []byte) ([]byte, error) {
	var envelope struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode allorigins envelope: %w", err)
	}
	if strings.TrimSpace(envelope.Contents) == "" {
		return nil, fmt.Errorf("allorigins envelope has empty contents")
	}
	return []byte(envelope.Contents), nil
}

const corsProxyBaseURL = "https://corsproxy.io/"

// CorsProxyRelay routes requests through a pass-through relay that returns
// the upstream body unchanged.
type CorsProxyRelay struct {
	baseURL string
}

func NewCorsProxyRelay() *CorsProxyRelay {
	return &CorsProxyRelay{baseURL: corsProxyBaseURL}
}

func (r *CorsProxyRelay) Name() string { return "corsproxy" }

func (r *CorsProxyRelay) WrapURL(target string) string {
	return r.baseURL + "?" + url.QueryEscape(target)
}

func (r *CorsProxyRelay) Unwrap(body []byte) ([]byte, error) {
	return body, nil
}
