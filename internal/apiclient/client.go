// Package apiclient consumes the service's own proxy endpoints.
package apiclient

import (
	"context"
	"net/url"

	"token-audit/internal/domain"
	"token-audit/internal/upstream"
)

// Client calls /api/scan, /api/token and /api/token/info on a running server.
type Client struct {
	http *upstream.Client
}

// NewClient creates a proxy client rooted at baseURL (e.g. http://localhost:8080).
func NewClient(baseURL string, opts ...upstream.Option) *Client {
	return &Client{http: upstream.New("proxy", baseURL, opts...)}
}

// TokenSecurity fetches the scan result through GET /api/scan.
func (c *Client) TokenSecurity(ctx context.Context, chainID domain.ChainID, address string) (*domain.ScanResult, error) {
	var scan domain.ScanResult
	query := url.Values{"chainId": {chainID.String()}, "contractAddress": {address}}
	if err := c.http.GetJSON(ctx, "scan", "/api/scan", query, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// TokenInfo fetches market figures through GET /api/token/info.
func (c *Client) TokenInfo(ctx context.Context, chain, address string) (*domain.TokenInfoResponse, error) {
	var resp domain.TokenInfoResponse
	if err := c.http.GetJSON(ctx, "token_info", "/api/token/info", marketQuery(chain, address), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Token fetches token metadata through GET /api/token.
func (c *Client) Token(ctx context.Context, chain, address string) (*domain.TokenResponse, error) {
	var resp domain.TokenResponse
	if err := c.http.GetJSON(ctx, "token", "/api/token", marketQuery(chain, address), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func marketQuery(chain, address string) url.Values {
	return url.Values{"chain": {chain}, "contractAddress": {address}}
}
