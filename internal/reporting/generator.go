package reporting

import (
	"context"
	"fmt"
	"time"

	"token-audit/internal/audit"
	"token-audit/internal/chains"
	"token-audit/internal/domain"
	"token-audit/internal/query"
)

// Generator runs an audit end to end and produces a report.
type Generator struct {
	registry *chains.Registry
	loader   *query.Loader
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(registry *chains.Registry, loader *query.Loader) *Generator {
	return &Generator{
		registry: registry,
		loader:   loader,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate validates the chain and address, fetches the scan and the market
// data, and builds the report. Market fetch failures are reported as
// notifications inside the view; only the scan failing is an error.
func (g *Generator) Generate(ctx context.Context, chainID domain.ChainID, address string) (*Report, error) {
	info, err := g.registry.Lookup(chainID)
	if err != nil {
		return nil, err
	}
	normalized, err := chains.NormalizeAddress(info, address)
	if err != nil {
		return nil, err
	}

	scan, err := g.loader.Scan(ctx, chainID, normalized)
	if err != nil {
		return nil, fmt.Errorf("scan %s on %s: %w", normalized, info.Label, err)
	}

	snap := g.loader.Load(ctx, query.Request{
		ChainID: chainID,
		Chain:   info,
		Address: normalized,
		Scan:    scan,
	})

	return &Report{
		GeneratedAt: g.now(),
		View: audit.Build(audit.Input{
			ChainID:  chainID,
			Chain:    info,
			Address:  normalized,
			Scan:     scan,
			Snapshot: snap,
		}),
	}, nil
}
