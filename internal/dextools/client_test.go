package dextools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"token-audit/internal/upstream"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/token/bnb/0xabc/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`{"statusCode":200,"data":{"circulatingSupply":750000.5,"totalSupply":1000000,"mcap":1234567.891,"holders":321,"transactions":4567}}`))
	})
	mux.HandleFunc("/v2/token/bnb/0xabc", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"statusCode":200,"data":{"address":"0xabc","name":"Cake","symbol":"CAKE","decimals":18}}`))
	})
	mux.HandleFunc("/v2/token/bnb/0xmissing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"statusCode":404,"description":"Token not found"}`))
	})
	return httptest.NewServer(mux)
}

func TestClient_TokenInfo(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp, err := NewClient(server.URL, "key").TokenInfo(context.Background(), "bnb", "0xabc")
	if err != nil {
		t.Fatalf("TokenInfo: %v", err)
	}

	if resp.StatusCode != 200 || resp.Data == nil {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if resp.Data.Mcap != 1234567.891 {
		t.Errorf("expected mcap 1234567.891, got %v", resp.Data.Mcap)
	}
	if resp.Data.Transactions != 4567 {
		t.Errorf("expected 4567 transactions, got %d", resp.Data.Transactions)
	}
}

func TestClient_Token(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp, err := NewClient(server.URL, "key").Token(context.Background(), "bnb", "0xabc")
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if resp.Data == nil || resp.Data.Decimals != 18 {
		t.Errorf("expected 18 decimals, got %+v", resp.Data)
	}
}

func TestClient_Token_NotFound(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	_, err := NewClient(server.URL, "key").Token(context.Background(), "bnb", "0xmissing")

	var httpErr *upstream.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *upstream.HTTPError, got %v", err)
	}
	if httpErr.Description != "Token not found" {
		t.Errorf("expected description from body, got %q", httpErr.Description)
	}
}
