package audit

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"token-audit/internal/chains"
	"token-audit/internal/domain"
	"token-audit/internal/format"
	"token-audit/internal/query"
)

// Input is everything an audit view is derived from.
type Input struct {
	ChainID  domain.ChainID
	Chain    domain.ChainInfo
	Address  string
	Scan     *domain.ScanResult
	Snapshot query.Snapshot
}

// Build derives the view. Absent fields render format.Placeholder.
func Build(in Input) *View {
	v := &View{
		ChainID:       string(in.ChainID),
		ChainLabel:    in.Chain.Label,
		ChainCode:     in.Chain.Code,
		ChainLogo:     in.Chain.Logo,
		Address:       chains.DisplayAddress(in.Chain, in.Address),
		InfoStatus:    in.Snapshot.Info.Status,
		TokenStatus:   in.Snapshot.Token.Status,
		Notifications: in.Snapshot.Notifications(),
	}
	v.ShortAddress = format.ShortenAddress(v.Address, format.DefaultShortenChars)

	if in.Scan.IsEmpty() {
		v.Empty = true
		v.EmptyMessage = fmt.Sprintf("Did you choose the right chain? You scanned this contract on %s.", in.Chain.Code)
		return v
	}
	scan := in.Scan

	v.Initial = initial(scan.TokenName)
	v.Name = upperOrPlaceholder(scan.TokenName)
	v.Symbol = upperOrPlaceholder(scan.TokenSymbol)

	v.Creator = addressLink(chains.AddressURL(in.Chain, scan.CreatorAddress), scan.CreatorAddress)
	v.Owner = addressLink(chains.AddressURL(in.Chain, scan.OwnerAddress), scan.OwnerAddress)
	v.Explorer = addressLink(chains.TokenURL(in.Chain, in.Address), in.Address)
	if len(scan.Dex) > 0 {
		pair := scan.Dex[0].Pair
		v.Pair = &Link{Text: format.ShortenAddress(pair, 3), URL: chains.PairURL(in.Chain, pair)}
	}

	v.TotalSupply = format.NumberString(scan.TotalSupply)
	v.Decimals = format.Placeholder
	v.CirculatingSupply = format.Placeholder
	v.MarketCap = format.Placeholder
	v.Transactions = format.Placeholder
	if token := tokenData(in.Snapshot); token != nil && token.Decimals != 0 {
		v.Decimals = format.Number(float64(token.Decimals))
	}
	if info := infoData(in.Snapshot); info != nil {
		if info.CirculatingSupply != 0 {
			v.CirculatingSupply = format.Number(info.CirculatingSupply)
		}
		v.MarketCap = format.USD(info.Mcap)
		v.Transactions = format.Integer(info.Transactions)
	}

	v.Honeypot, v.HoneypotPassed = honeypot(scan.IsHoneypot)
	v.BuyTax = format.TaxRate(scan.BuyTax, HighTaxThreshold)
	v.SellTax = format.TaxRate(scan.SellTax, HighTaxThreshold)

	v.Footer = footer(in.Chain, in.Address, scan)

	v.HolderCount = format.NumberString(scan.HolderCount)
	v.Holders = holderRows(in.Chain, scan.Holders)
	v.LPHolderCount = format.NumberString(scan.LPHolderCount)
	v.LPHolders = holderRows(in.Chain, scan.LPHolders)
	v.Dexes = dexRows(in.Chain, scan.Dex)
	v.Security = securityRows(scan)

	return v
}

func tokenData(s query.Snapshot) *domain.Token {
	if s.Token.Data == nil {
		return nil
	}
	return s.Token.Data.Data
}

func infoData(s query.Snapshot) *domain.TokenInfo {
	if s.Info.Data == nil {
		return nil
	}
	return s.Info.Data.Data
}

func initial(name string) string {
	if name == "" {
		return format.Placeholder
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(r)
}

func upperOrPlaceholder(s string) string {
	if s == "" {
		return format.Placeholder
	}
	return strings.ToUpper(s)
}

func addressLink(url, address string) Link {
	if address == "" {
		return Link{Text: unknownLinkText, URL: url}
	}
	return Link{Text: format.ShortenAddress(address, 3), URL: url}
}

// honeypot maps the scan flag: numeric zero passes, anything else fails,
// including an absent flag.
func honeypot(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == 0 {
		return HoneypotPassed, true
	}
	return HoneypotFailed, false
}

func footer(info domain.ChainInfo, address string, scan *domain.ScanResult) []Link {
	var links []Link
	if len(scan.Dex) > 0 {
		links = append(links, Link{Text: "DexTools", URL: chains.DexToolsPairURL(info, scan.Dex[0].Pair)})
	}
	if url := chains.DexScreenerTokenURL(info, address); url != "" {
		links = append(links, Link{Text: "DexScreener", URL: url})
	}
	if url := chains.DexViewTokenURL(info, address); url != "" {
		links = append(links, Link{Text: "DexView", URL: url})
	}
	return links
}

func holderRows(info domain.ChainInfo, holders []domain.Holder) []HolderRow {
	if len(holders) == 0 {
		return nil
	}
	rows := make([]HolderRow, 0, len(holders))
	for _, h := range holders {
		tag := h.Tag
		if tag == "" {
			tag = format.Placeholder
		}
		rows = append(rows, HolderRow{
			Address:  h.Address,
			Link:     addressLink(chains.AddressURL(info, h.Address), h.Address),
			Tag:      tag,
			Percent:  format.Percent(h.Percent),
			Contract: h.IsContract == 1,
			Locked:   h.IsLocked == 1,
		})
	}
	return rows
}

func dexRows(info domain.ChainInfo, dexes []domain.DexPair) []DexRow {
	if len(dexes) == 0 {
		return nil
	}
	rows := make([]DexRow, 0, len(dexes))
	for _, d := range dexes {
		name := d.Name
		if name == "" {
			name = format.Placeholder
		}
		rows = append(rows, DexRow{
			Name:      name,
			Liquidity: format.USDString(d.Liquidity),
			Pair:      addressLink(chains.PairURL(info, d.Pair), d.Pair),
		})
	}
	return rows
}
