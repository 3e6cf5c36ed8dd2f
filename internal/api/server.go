// Package api serves the JSON proxy endpoints in front of the security-scan
// and market-data providers.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"token-audit/internal/chains"
	"token-audit/internal/domain"
	"token-audit/internal/query"
	"token-audit/internal/upstream"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Description string `json:"description"`
}

// Options configures Server.
type Options struct {
	Registry *chains.Registry
	Scans    query.ScanSource
	Market   query.MarketSource
	Logger   *log.Logger
}

// Server handles the proxy endpoints.
type Server struct {
	registry *chains.Registry
	scans    query.ScanSource
	market   query.MarketSource
	logger   *log.Logger
}

// NewServer creates the proxy handlers.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile)
	}
	return &Server{
		registry: opts.Registry,
		scans:    opts.Scans,
		market:   opts.Market,
		logger:   opts.Logger,
	}
}

// Register mounts the endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/token/info", s.handleTokenInfo)
	mux.HandleFunc("GET /api/token", s.handleToken)
	mux.HandleFunc("GET /api/scan", s.handleScan)
}

// handleTokenInfo proxies market info. chain is the market-data provider slug.
func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	slug, address, ok := s.marketParams(w, r)
	if !ok {
		return
	}

	resp, err := s.market.TokenInfo(r.Context(), slug, address)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleToken proxies token metadata. chain is the market-data provider slug.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	slug, address, ok := s.marketParams(w, r)
	if !ok {
		return
	}

	resp, err := s.market.Token(r.Context(), slug, address)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScan proxies the security scan. An unknown contract yields {}.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	chainID := domain.ChainID(r.URL.Query().Get("chainId"))
	address := r.URL.Query().Get("contractAddress")
	if chainID == "" || address == "" {
		writeError(w, http.StatusBadRequest, "chainId and contractAddress query params required")
		return
	}

	info, err := s.registry.Lookup(chainID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	normalized, err := chains.NormalizeAddress(info, address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	scan, err := s.scans.TokenSecurity(r.Context(), chainID, normalized)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if scan == nil {
		scan = &domain.ScanResult{}
	}
	writeJSON(w, http.StatusOK, scan)
}

// marketParams validates chain and contractAddress. Returns false after
// writing a 400 when they are missing or invalid.
func (s *Server) marketParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	slug := r.URL.Query().Get("chain")
	address := r.URL.Query().Get("contractAddress")
	if slug == "" || address == "" {
		writeError(w, http.StatusBadRequest, "chain and contractAddress query params required")
		return "", "", false
	}

	info, err := s.registry.LookupDext(slug)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	normalized, err := chains.NormalizeAddress(info, address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	return slug, normalized, true
}

// writeUpstreamError relays the provider status when it answered with an
// error status, and 502 otherwise.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)

	var httpErr *upstream.HTTPError
	if errors.As(err, &httpErr) {
		status := httpErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		description := httpErr.Description
		if description == "" {
			description = http.StatusText(httpErr.StatusCode)
		}
		writeError(w, status, description)
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, ErrorResponse{Description: description})
}
