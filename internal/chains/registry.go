// Package chains holds the static chain lookup, explorer and DEX link builders,
// and per-chain contract address validation.
package chains

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"token-audit/internal/domain"
)

//go:embed chains.yaml
var defaultChains []byte

// ErrUnknownChain is returned when a chain id is not in the registry.
var ErrUnknownChain = errors.New("unknown chain")

// Registry is an immutable chain lookup keyed by chain id.
type Registry struct {
	order  []domain.ChainID
	byID   map[domain.ChainID]domain.ChainInfo
	byDext map[string]domain.ChainID
}

// Default parses the embedded chain table.
func Default() (*Registry, error) {
	return Parse(defaultChains)
}

// MustDefault is like Default but panics on a malformed embedded table.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads a chain table from path. An empty path returns the embedded table.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain table: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from a YAML list of chains.
func Parse(data []byte) (*Registry, error) {
	var list []domain.ChainInfo
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse chain table: %w", err)
	}

	r := &Registry{
		byID:   make(map[domain.ChainID]domain.ChainInfo, len(list)),
		byDext: make(map[string]domain.ChainID, len(list)),
	}
	for i, info := range list {
		if info.ID == "" {
			return nil, fmt.Errorf("chain #%d: missing id", i)
		}
		if info.Explorer == "" || info.Dext == "" {
			return nil, fmt.Errorf("chain %s: explorer and dext are required", info.ID)
		}
		if !info.Format.IsValid() {
			return nil, fmt.Errorf("chain %s: invalid address format %q", info.ID, info.Format)
		}
		if _, exists := r.byID[info.ID]; exists {
			return nil, fmt.Errorf("chain %s: duplicate id", info.ID)
		}
		if other, exists := r.byDext[info.Dext]; exists {
			return nil, fmt.Errorf("chain %s: dext slug %q already used by chain %s", info.ID, info.Dext, other)
		}
		r.byID[info.ID] = info
		r.byDext[info.Dext] = info.ID
		r.order = append(r.order, info.ID)
	}
	return r, nil
}

// Get returns the ChainInfo for id.
func (r *Registry) Get(id domain.ChainID) (domain.ChainInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// Lookup is like Get but returns ErrUnknownChain for missing ids.
func (r *Registry) Lookup(id domain.ChainID) (domain.ChainInfo, error) {
	info, ok := r.byID[id]
	if !ok {
		return domain.ChainInfo{}, fmt.Errorf("%w: %q", ErrUnknownChain, id)
	}
	return info, nil
}

// LookupDext resolves a market-data provider slug ("bnb", "ether") to its chain.
func (r *Registry) LookupDext(slug string) (domain.ChainInfo, error) {
	id, ok := r.byDext[slug]
	if !ok {
		return domain.ChainInfo{}, fmt.Errorf("%w: %q", ErrUnknownChain, slug)
	}
	return r.byID[id], nil
}

// All returns chains in table order.
func (r *Registry) All() []domain.ChainInfo {
	out := make([]domain.ChainInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
