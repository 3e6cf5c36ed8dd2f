package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-audit/internal/chains"
	"token-audit/internal/domain"
	"token-audit/internal/upstream"
)

const usdtBSC = "0x55d398326f99059fF775485246999027B3197955"

type fakeSources struct {
	scan    *domain.ScanResult
	err     error
	calls   int
	chain   string
	address string
}

func (f *fakeSources) TokenSecurity(ctx context.Context, chainID domain.ChainID, address string) (*domain.ScanResult, error) {
	f.calls++
	f.chain, f.address = string(chainID), address
	return f.scan, f.err
}

func (f *fakeSources) TokenInfo(ctx context.Context, chain, address string) (*domain.TokenInfoResponse, error) {
	f.calls++
	f.chain, f.address = chain, address
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TokenInfoResponse{StatusCode: 200, Data: &domain.TokenInfo{Mcap: 10.5, Holders: 3}}, nil
}

func (f *fakeSources) Token(ctx context.Context, chain, address string) (*domain.TokenResponse, error) {
	f.calls++
	f.chain, f.address = chain, address
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TokenResponse{StatusCode: 200, Data: &domain.Token{Symbol: "USDT", Decimals: 18}}, nil
}

func newTestMux(src *fakeSources) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(Options{
		Registry: chains.MustDefault(),
		Scans:    src,
		Market:   src,
		Logger:   log.New(io.Discard, "", 0),
	}).Register(mux)
	return mux
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeDescription(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Description
}

func TestTokenInfo(t *testing.T) {
	src := &fakeSources{}
	rec := get(t, newTestMux(src), "/api/token/info?chain=bnb&contractAddress="+usdtBSC)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp domain.TokenInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 10.5, resp.Data.Mcap)

	assert.Equal(t, "bnb", src.chain)
	assert.Equal(t, "0x55d398326f99059ff775485246999027b3197955", src.address)
}

func TestToken(t *testing.T) {
	src := &fakeSources{}
	rec := get(t, newTestMux(src), "/api/token?chain=ether&contractAddress=0xdAC17F958D2ee523a2206206994597C13D831ec7")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "USDT", resp.Data.Symbol)
}

func TestScan(t *testing.T) {
	src := &fakeSources{scan: &domain.ScanResult{TokenName: "Tether USD", BuyTax: "0"}}
	rec := get(t, newTestMux(src), "/api/scan?chainId=56&contractAddress="+usdtBSC)

	require.Equal(t, http.StatusOK, rec.Code)
	var scan domain.ScanResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&scan))
	assert.Equal(t, "Tether USD", scan.TokenName)
	assert.Equal(t, "56", src.chain)
}

func TestScan_UnknownContractIsEmptyObject(t *testing.T) {
	src := &fakeSources{}
	rec := get(t, newTestMux(src), "/api/scan?chainId=56&contractAddress="+usdtBSC)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"info missing chain", "/api/token/info?contractAddress=" + usdtBSC},
		{"info missing address", "/api/token/info?chain=bnb"},
		{"info unknown slug", "/api/token/info?chain=solana&contractAddress=" + usdtBSC},
		{"token malformed address", "/api/token?chain=bnb&contractAddress=0x1234"},
		{"scan missing params", "/api/scan"},
		{"scan unknown chain", "/api/scan?chainId=999&contractAddress=" + usdtBSC},
		{"scan tron address on evm chain", "/api/scan?chainId=1&contractAddress=TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSources{}
			rec := get(t, newTestMux(src), tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeDescription(t, rec))
			assert.Zero(t, src.calls, "no upstream call on invalid input")
		})
	}
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"provider status relayed", &upstream.HTTPError{Provider: "dextools", StatusCode: 403, Description: "Forbidden key"}, http.StatusForbidden, "Forbidden key"},
		{"provider error without body", &upstream.HTTPError{Provider: "dextools", StatusCode: 500}, http.StatusInternalServerError, "Internal Server Error"},
		{"in-band provider error", &upstream.HTTPError{Provider: "goplus", StatusCode: 200, Description: "too many requests"}, http.StatusBadGateway, "too many requests"},
		{"transport failure", errors.New("dial tcp: i/o timeout"), http.StatusBadGateway, "dial tcp: i/o timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSources{err: tt.err}
			rec := get(t, newTestMux(src), "/api/token/info?chain=bnb&contractAddress="+usdtBSC)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, decodeDescription(t, rec))
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(&fakeSources{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
