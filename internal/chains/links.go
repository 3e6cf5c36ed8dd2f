package chains

import (
	"strings"

	"token-audit/internal/domain"
)

// External analytics sites.
const (
	DexScreenerURL = "https://dexscreener.com"
	DexViewURL     = "https://www.dexview.com"
	DexToolsURL    = "https://www.dextools.io/app/en"
)

// AddressURL links an account (owner, creator) on the chain explorer.
func AddressURL(info domain.ChainInfo, address string) string {
	return explorerURL(info, info.AddressPath, address)
}

// TokenURL links the token contract on the chain explorer.
func TokenURL(info domain.ChainInfo, address string) string {
	return explorerURL(info, info.TokenPath, address)
}

// PairURL links a liquidity pair contract on the chain explorer.
func PairURL(info domain.ChainInfo, pair string) string {
	return explorerURL(info, info.PairPath, pair)
}

func explorerURL(info domain.ChainInfo, path, address string) string {
	if address == "" {
		address = "-"
	}
	return strings.TrimSuffix(info.Explorer, "/") + "/" + strings.Trim(path, "/") + "/" + address
}

// DexToolsPairURL links the DexTools pair explorer for pair.
func DexToolsPairURL(info domain.ChainInfo, pair string) string {
	return DexToolsURL + "/" + info.Dext + "/pair-explorer/" + pair
}

// DexScreenerTokenURL links the token on DexScreener. Empty when the chain has no slug.
func DexScreenerTokenURL(info domain.ChainInfo, address string) string {
	if info.Dexs == "" {
		return ""
	}
	return DexScreenerURL + "/" + info.Dexs + "/" + address
}

// DexViewTokenURL links the token on DexView. Empty when the chain has no slug.
func DexViewTokenURL(info domain.ChainInfo, address string) string {
	if info.Dexv == "" {
		return ""
	}
	return DexViewURL + "/" + info.Dexv + "/" + address
}
