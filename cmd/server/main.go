// Package main runs the audit web service:
// - Audit pages: landing form, server-rendered audit, live websocket stream
// - Proxy endpoints: /api/scan, /api/token/info, /api/token
// - Operations: /health, /metrics, /status
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token-audit/internal/api"
	"token-audit/internal/chains"
	"token-audit/internal/config"
	"token-audit/internal/dextools"
	"token-audit/internal/goplus"
	"token-audit/internal/observability"
	"token-audit/internal/query"
	"token-audit/internal/tracing"
	"token-audit/internal/upstream"
	"token-audit/internal/web"
)

const shutdownTimeout = 30 * time.Second

// Server holds all components of the audit service.
type Server struct {
	cfg      *config.Config
	registry *chains.Registry
	scans    *goplus.Client
	market   *dextools.Client
	loader   *query.Loader
	limiter  *api.RateLimiter
	logger   *log.Logger
	started  time.Time
}

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, "token-audit", cfg.OTLPEndpoint, cfg.OTLPInsecure)
	if err != nil {
		logger.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Printf("Tracing shutdown: %v", err)
		}
	}()

	server, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create server: %v", err)
	}
	defer server.limiter.Stop()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Second signal forces exit
		sig = <-sigCh
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	}()

	if err := server.Run(ctx); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// newServer wires the providers, the request cache and the loader.
func newServer(cfg *config.Config, logger *log.Logger) (*Server, error) {
	registry, err := chains.Load(cfg.ChainsFile)
	if err != nil {
		return nil, err
	}
	logger.Printf("Loaded %d chains", len(registry.All()))

	up := cfg.Upstream
	scans := goplus.NewClient(up.GoPlusBaseURL, upstream.WithTimeout(up.Timeout))
	market := dextools.NewClient(up.DexToolsBaseURL, up.DexToolsAPIKey,
		upstream.WithTimeout(up.Timeout),
		upstream.WithRateLimit(up.DexToolsRPS, 1),
	)

	loader := query.NewLoader(query.LoaderOptions{
		Cache:  query.NewCache(up.QueryTTL),
		Scans:  scans,
		Market: market,
		Logger: log.New(os.Stdout, "[query] ", log.LstdFlags|log.Lshortfile),
	})

	return &Server{
		cfg:      cfg,
		registry: registry,
		scans:    scans,
		market:   market,
		loader:   loader,
		limiter: api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log.New(os.Stdout, "[ratelimit] ", log.LstdFlags|log.Lshortfile)).
			TrustProxyHeaders(cfg.TrustProxy),
		logger: logger,
	}, nil
}

// Handler builds the full route table wrapped in the middleware chain.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	api.NewServer(api.Options{
		Registry: s.registry,
		Scans:    s.scans,
		Market:   s.market,
		Logger:   log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile),
	}).Register(mux)

	pages, err := web.NewHandler(web.Options{
		Registry: s.registry,
		Loader:   s.loader,
		Logger:   log.New(os.Stdout, "[web] ", log.LstdFlags|log.Lshortfile),
	})
	if err != nil {
		return nil, err
	}
	pages.Register(mux)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("GET /status", s.handleStatus)

	var h http.Handler = mux
	if s.cfg.RateLimitRPS > 0 {
		h = s.limiter.Wrap(h)
	}
	h = api.AccessLog(log.New(os.Stdout, "[http] ", log.LstdFlags), h)
	return api.WithRequestID(h), nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.started = time.Now()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting HTTP server on %s", s.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Printf("Graceful shutdown timed out after %v: %v", shutdownTimeout, err)
		return srv.Close()
	}
	return nil
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status            string    `json:"status"`
	Uptime            string    `json:"uptime"`
	Started           time.Time `json:"started"`
	Chains            int       `json:"chains"`
	Audits            uint64    `json:"audits"`
	DistinctContracts uint64    `json:"distinct_contracts"`
	TrackedClients    int       `json:"tracked_clients"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:            "running",
		Uptime:            time.Since(s.started).Round(time.Second).String(),
		Started:           s.started,
		Chains:            len(s.registry.All()),
		Audits:            observability.Audits(),
		DistinctContracts: observability.DistinctContracts(),
		TrackedClients:    s.limiter.LimiterCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
