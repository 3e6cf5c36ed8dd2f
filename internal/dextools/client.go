// Package dextools is a client for the DexTools v2 API, the market-data
// provider behind the audit page.
package dextools

import (
	"context"
	"net/url"

	"token-audit/internal/domain"
	"token-audit/internal/upstream"
)

// DefaultBaseURL is the DexTools trial plan endpoint.
const DefaultBaseURL = "https://public-api.dextools.io/trial"

// Client fetches token metadata and market figures.
type Client struct {
	http *upstream.Client
}

// NewClient creates a DexTools client. The API key is sent as X-API-KEY.
func NewClient(baseURL, apiKey string, opts ...upstream.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiKey != "" {
		opts = append([]upstream.Option{upstream.WithHeader("X-API-KEY", apiKey)}, opts...)
	}
	return &Client{http: upstream.New("dextools", baseURL, opts...)}
}

// TokenInfo returns market figures (market cap, circulating supply, transactions)
// for address on the chain identified by its DexTools slug.
func (c *Client) TokenInfo(ctx context.Context, chain, address string) (*domain.TokenInfoResponse, error) {
	var resp domain.TokenInfoResponse
	if err := c.http.GetJSON(ctx, "token_info", tokenPath(chain, address)+"/info", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Token returns token metadata (name, symbol, decimals).
func (c *Client) Token(ctx context.Context, chain, address string) (*domain.TokenResponse, error) {
	var resp domain.TokenResponse
	if err := c.http.GetJSON(ctx, "token", tokenPath(chain, address), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func tokenPath(chain, address string) string {
	return "/v2/token/" + url.PathEscape(chain) + "/" + url.PathEscape(address)
}
