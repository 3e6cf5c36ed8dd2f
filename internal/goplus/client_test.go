package goplus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"token-audit/internal/domain"
	"token-audit/internal/upstream"
)

func TestClient_TokenSecurity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/token_security/56" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("contract_addresses"); got != "0xabc" {
			t.Errorf("expected contract_addresses=0xabc, got %s", got)
		}

		resp := map[string]interface{}{
			"code":    1,
			"message": "OK",
			"result": map[string]interface{}{
				"0xabc": map[string]interface{}{
					"token_name":    "Cake",
					"token_symbol":  "CAKE",
					"total_supply":  "1000000",
					"is_honeypot":   "0",
					"buy_tax":       "0.12",
					"sell_tax":      "0.05",
					"owner_address": "0xowner",
					"dex": []map[string]interface{}{
						{"name": "PancakeV2", "liquidity": "1000.5", "pair": "0xpair"},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	scan, err := client.TokenSecurity(context.Background(), domain.ChainBSC, "0xabc")
	if err != nil {
		t.Fatalf("TokenSecurity: %v", err)
	}

	if scan.IsEmpty() {
		t.Fatal("expected non-empty scan")
	}
	if scan.TokenSymbol != "CAKE" {
		t.Errorf("expected CAKE, got %s", scan.TokenSymbol)
	}
	if scan.BuyTax != "0.12" {
		t.Errorf("expected buy tax 0.12, got %s", scan.BuyTax)
	}
	if len(scan.Dex) != 1 || scan.Dex[0].Pair != "0xpair" {
		t.Errorf("unexpected dex list: %+v", scan.Dex)
	}
}

func TestClient_TokenSecurity_UnknownContractIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":1,"message":"OK","result":{}}`))
	}))
	defer server.Close()

	scan, err := NewClient(server.URL).TokenSecurity(context.Background(), domain.ChainEthereum, "0xabc")
	if err != nil {
		t.Fatalf("TokenSecurity: %v", err)
	}
	if !scan.IsEmpty() {
		t.Errorf("expected empty scan, got %+v", scan)
	}
}

func TestClient_TokenSecurity_MatchesLowerCaseKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":1,"message":"OK","result":{"0xabcdef":{"token_name":"Mixed"}}}`))
	}))
	defer server.Close()

	scan, err := NewClient(server.URL).TokenSecurity(context.Background(), domain.ChainEthereum, "0xAbCdEf")
	if err != nil {
		t.Fatalf("TokenSecurity: %v", err)
	}
	if scan.TokenName != "Mixed" {
		t.Errorf("expected lookup by lower-case key, got %+v", scan)
	}
}

func TestClient_TokenSecurity_ApplicationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":4029,"message":"too many requests","result":null}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).TokenSecurity(context.Background(), domain.ChainEthereum, "0xabc")

	var httpErr *upstream.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *upstream.HTTPError, got %v", err)
	}
	if httpErr.Description != "too many requests" {
		t.Errorf("expected provider message as description, got %q", httpErr.Description)
	}
}
