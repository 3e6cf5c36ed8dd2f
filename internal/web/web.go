// Package web serves the server-rendered audit pages and the live audit stream.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/websocket"

	"token-audit/internal/audit"
	"token-audit/internal/chains"
	"token-audit/internal/domain"
	"token-audit/internal/observability"
	"token-audit/internal/query"
)

//go:embed templates/*.html
var templateFS embed.FS

// Meta is the page metadata.
type Meta struct {
	Title       string
	AppName     string
	Description string
	Keywords    string
	ThemeColor  string
}

// DefaultMeta is the metadata every page carries.
var DefaultMeta = Meta{
	Title:       "Ordinals Fi - Audit dApp",
	AppName:     "Ordinals Fi",
	Description: "Audit token contracts across chains: ownership, tax rates, honeypot status, liquidity pairs and market cap.",
	Keywords:    "Blockchain, Token Audit, Honeypot, Smart Contract Security, DEX, Liquidity",
	ThemeColor:  "#0A8FDC",
}

// Options configures Handler.
type Options struct {
	Registry *chains.Registry
	Loader   *query.Loader
	Logger   *log.Logger
	// CheckOrigin validates websocket origins. Nil allows same-origin only.
	CheckOrigin func(r *http.Request) bool
}

// Handler serves the landing form, the audit page and the live stream.
type Handler struct {
	registry *chains.Registry
	loader   *query.Loader
	logger   *log.Logger
	pages    map[string]*template.Template
	upgrader websocket.Upgrader
}

// page is the data every template receives.
type page struct {
	Meta          Meta
	Chains        []domain.ChainInfo
	Chain         domain.ChainID
	Address       string
	Error         string
	Notifications []query.Notification

	View             *audit.View
	EmptyTitle       string
	HighTaxThreshold int
	RefreshURL       string
	LiveURL          string
}

// NewHandler parses the embedded templates.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stdout, "[web] ", log.LstdFlags|log.Lshortfile)
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "audit"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}

	return &Handler{
		registry: opts.Registry,
		loader:   opts.Loader,
		logger:   opts.Logger,
		pages:    pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
	}, nil
}

// Register mounts the pages on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /audit", h.handleAudit)
	mux.HandleFunc("GET /ws/audit", h.handleLive)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index", h.newPage(domain.ChainID(r.URL.Query().Get("chain")), ""))
}

// handleAudit renders the audit of one contract. refresh=1 drops the cached
// results first; live=1 renders immediately and lets the page stream the
// market data over the websocket.
func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chainID := domain.ChainID(q.Get("chain"))
	rawAddress := q.Get("address")

	target, err := h.resolve(chainID, rawAddress)
	if err != nil {
		observability.RecordAudit(string(chainID), "", "invalid")
		p := h.newPage(chainID, rawAddress)
		p.Error = err.Error()
		h.render(w, http.StatusBadRequest, "index", p)
		return
	}

	if q.Get("refresh") == "1" {
		h.loader.Refetch(target.chainID, target.address)
		q.Del("refresh")
		http.Redirect(w, r, "/audit?"+q.Encode(), http.StatusSeeOther)
		return
	}

	ctx := r.Context()
	scan, err := h.loader.Scan(ctx, target.chainID, target.address)
	if err != nil {
		observability.RecordAudit(string(target.chainID), target.address, "scan_error")
		p := h.newPage(target.chainID, rawAddress)
		p.Notifications = []query.Notification{query.NotificationFor(err)}
		h.render(w, http.StatusBadGateway, "index", p)
		return
	}

	req := target.request(scan)
	streamed := q.Get("live") == "1" && req.Enabled()

	var snap query.Snapshot
	if streamed {
		snap = query.Snapshot{
			Info:  query.Result[domain.TokenInfoResponse]{Status: query.StatusLoading},
			Token: query.Result[domain.TokenResponse]{Status: query.StatusLoading},
		}
	} else {
		snap = h.loader.Load(ctx, req)
	}

	view := audit.Build(audit.Input{
		ChainID:  target.chainID,
		Chain:    target.info,
		Address:  target.address,
		Scan:     scan,
		Snapshot: snap,
	})
	if !streamed {
		// Streamed audits are recorded by the live session once the fetches settle.
		observability.RecordAudit(string(target.chainID), target.address, outcome(view))
	}

	p := h.newPage(target.chainID, target.address)
	p.View = view
	p.Notifications = view.Notifications
	p.RefreshURL = auditURL("/audit", target.chainID, target.address, url.Values{"refresh": {"1"}})
	if streamed {
		p.LiveURL = auditURL("/ws/audit", target.chainID, target.address, nil)
	}
	h.render(w, http.StatusOK, "audit", p)
}

func (h *Handler) newPage(chainID domain.ChainID, address string) *page {
	return &page{
		Meta:             DefaultMeta,
		Chains:           h.registry.All(),
		Chain:            chainID,
		Address:          address,
		EmptyTitle:       audit.EmptyTitle,
		HighTaxThreshold: audit.HighTaxThreshold,
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, p *page) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		h.logger.Printf("render %s: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// target is a validated (chain, address) pair.
type target struct {
	chainID domain.ChainID
	info    domain.ChainInfo
	address string
}

var errMissingParams = errors.New("choose a chain and enter a contract address")

func (h *Handler) resolve(chainID domain.ChainID, address string) (target, error) {
	if chainID == "" || address == "" {
		return target{}, errMissingParams
	}
	info, err := h.registry.Lookup(chainID)
	if err != nil {
		return target{}, err
	}
	normalized, err := chains.NormalizeAddress(info, address)
	if err != nil {
		return target{}, err
	}
	return target{chainID: chainID, info: info, address: normalized}, nil
}

func (t target) request(scan *domain.ScanResult) query.Request {
	return query.Request{ChainID: t.chainID, Chain: t.info, Address: t.address, Scan: scan}
}

func outcome(v *audit.View) string {
	switch {
	case v.Empty:
		return "empty"
	case len(v.Notifications) > 0:
		return "partial"
	default:
		return "rendered"
	}
}

func auditURL(path string, chainID domain.ChainID, address string, extra url.Values) string {
	q := url.Values{"chain": {string(chainID)}, "address": {address}}
	for k, v := range extra {
		q[k] = v
	}
	return path + "?" + q.Encode()
}
