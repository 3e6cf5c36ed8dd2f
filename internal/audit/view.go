// Package audit merges a security scan with the market fetches into the
// read-only display model of the audit page.
package audit

import (
	"token-audit/internal/format"
	"token-audit/internal/query"
)

// HighTaxThreshold is the tax percentage above which a rate is flagged high.
const HighTaxThreshold = 10

// Link text shown when an address is missing.
const unknownLinkText = "unknown"

// Honeypot verdicts.
const (
	HoneypotPassed = "PASSED"
	HoneypotFailed = "FAILED"
)

// EmptyTitle heads the inline panel shown for an empty scan.
const EmptyTitle = "ERROR!"

// Link is an outbound link.
type Link struct {
	Text string
	URL  string
}

// HolderRow is one row of the holders tables.
type HolderRow struct {
	Address  string
	Link     Link
	Tag      string
	Percent  string
	Contract bool
	Locked   bool
}

// DexRow is one row of the liquidity table.
type DexRow struct {
	Name      string
	Liquidity string
	Pair      Link
}

// Risk classifies a security flag.
type Risk string

const (
	RiskSafe    Risk = "safe"
	RiskRisky   Risk = "risky"
	RiskUnknown Risk = "unknown"
)

// SecurityRow is one security-scan flag.
type SecurityRow struct {
	Label string
	Value string
	Risk  Risk
}

// View is the display model of one audit.
type View struct {
	ChainID    string
	ChainLabel string
	ChainCode  string
	ChainLogo  string

	Address      string
	ShortAddress string

	// Empty is set when the scan returned nothing; only the header and the
	// inline error panel are rendered then.
	Empty        bool
	EmptyMessage string

	Initial  string
	Name     string
	Symbol   string
	Creator  Link
	Owner    Link
	Explorer Link
	Pair     *Link

	Decimals          string
	TotalSupply       string
	CirculatingSupply string

	Honeypot       string
	HoneypotPassed bool
	MarketCap      string
	Transactions   string

	BuyTax  format.Rate
	SellTax format.Rate

	Footer []Link

	HolderCount   string
	Holders       []HolderRow
	LPHolderCount string
	LPHolders     []HolderRow
	Dexes         []DexRow
	Security      []SecurityRow

	InfoStatus    query.Status
	TokenStatus   query.Status
	Notifications []query.Notification
}

// InfoLoading reports whether the market-info fetch is in flight.
func (v *View) InfoLoading() bool {
	return v.InfoStatus == query.StatusLoading
}

// TokenLoading reports whether the token-metadata fetch is in flight.
func (v *View) TokenLoading() bool {
	return v.TokenStatus == query.StatusLoading
}

// Fields returns the rendered values that depend on the given fetch,
// keyed by the element names the page uses.
func (v *View) Fields(kind query.Kind) map[string]string {
	switch kind {
	case query.KindInfo:
		return map[string]string{
			"circulatingSupply": v.CirculatingSupply,
			"marketCap":         v.MarketCap,
			"transactions":      v.Transactions,
		}
	case query.KindToken:
		return map[string]string{
			"decimals": v.Decimals,
		}
	}
	return nil
}
