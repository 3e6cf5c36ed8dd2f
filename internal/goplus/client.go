// Package goplus is a client for the GoPlus token security API,
// the security-scan provider behind the audit page.
package goplus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"token-audit/internal/domain"
	"token-audit/internal/upstream"
)

// DefaultBaseURL is the public GoPlus API.
const DefaultBaseURL = "https://api.gopluslabs.io"

// codeOK is the application-level success code in GoPlus envelopes.
const codeOK = 1

// Client fetches token security scans.
type Client struct {
	http *upstream.Client
}

// NewClient creates a GoPlus client.
func NewClient(baseURL string, opts ...upstream.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: upstream.New("goplus", baseURL, opts...)}
}

// tokenSecurityResponse is the raw envelope for token_security.
type tokenSecurityResponse struct {
	Code    int                        `json:"code"`
	Message string                     `json:"message"`
	Result  map[string]json.RawMessage `json:"result"`
}

// TokenSecurity scans the contract at address on chainID.
// A contract the provider knows nothing about yields an empty ScanResult, not an error.
func (c *Client) TokenSecurity(ctx context.Context, chainID domain.ChainID, address string) (*domain.ScanResult, error) {
	path := "/api/v1/token_security/" + url.PathEscape(chainID.String())
	query := url.Values{"contract_addresses": {address}}

	var resp tokenSecurityResponse
	if err := c.http.GetJSON(ctx, "token_security", path, query, &resp); err != nil {
		return nil, err
	}

	if resp.Code != codeOK {
		return nil, &upstream.HTTPError{
			Provider:    c.http.Provider(),
			StatusCode:  http.StatusOK,
			Description: resp.Message,
		}
	}

	raw, ok := resp.Result[address]
	if !ok {
		raw, ok = resp.Result[strings.ToLower(address)]
	}
	if !ok || len(raw) == 0 {
		return &domain.ScanResult{}, nil
	}

	var scan domain.ScanResult
	if err := json.Unmarshal(raw, &scan); err != nil {
		return nil, fmt.Errorf("decode token security for %s: %w", address, err)
	}
	return &scan, nil
}
