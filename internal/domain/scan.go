package domain

import "reflect"

// ScanResult is the security-scan provider's record for one token contract.
// Scalar values are kept as the strings the provider sends; the record is
// treated as opaque input and never validated or mutated.
type ScanResult struct {
	TokenName      string `json:"token_name,omitempty"`
	TokenSymbol    string `json:"token_symbol,omitempty"`
	TotalSupply    string `json:"total_supply,omitempty"`
	OwnerAddress   string `json:"owner_address,omitempty"`
	CreatorAddress string `json:"creator_address,omitempty"`
	OwnerPercent   string `json:"owner_percent,omitempty"`
	CreatorPercent string `json:"creator_percent,omitempty"`

	IsHoneypot string `json:"is_honeypot,omitempty"`
	BuyTax     string `json:"buy_tax,omitempty"`
	SellTax    string `json:"sell_tax,omitempty"`

	Holders       []Holder  `json:"holders,omitempty"`
	HolderCount   string    `json:"holder_count,omitempty"`
	LPHolders     []Holder  `json:"lp_holders,omitempty"`
	LPHolderCount string    `json:"lp_holder_count,omitempty"`
	Dex           []DexPair `json:"dex,omitempty"`

	// Contract security flags, "0" / "1" when present.
	IsOpenSource               string `json:"is_open_source,omitempty"`
	IsProxy                    string `json:"is_proxy,omitempty"`
	IsMintable                 string `json:"is_mintable,omitempty"`
	CanTakeBackOwnership       string `json:"can_take_back_ownership,omitempty"`
	OwnerChangeBalance         string `json:"owner_change_balance,omitempty"`
	HiddenOwner                string `json:"hidden_owner,omitempty"`
	Selfdestruct               string `json:"selfdestruct,omitempty"`
	ExternalCall               string `json:"external_call,omitempty"`
	CannotBuy                  string `json:"cannot_buy,omitempty"`
	CannotSellAll              string `json:"cannot_sell_all,omitempty"`
	TradingCooldown            string `json:"trading_cooldown,omitempty"`
	IsAntiWhale                string `json:"is_anti_whale,omitempty"`
	IsBlacklisted              string `json:"is_blacklisted,omitempty"`
	IsWhitelisted              string `json:"is_whitelisted,omitempty"`
	TransferPausable           string `json:"transfer_pausable,omitempty"`
	SlippageModifiable         string `json:"slippage_modifiable,omitempty"`
	PersonalSlippageModifiable string `json:"personal_slippage_modifiable,omitempty"`
	IsInDex                    string `json:"is_in_dex,omitempty"`
}

// IsEmpty reports whether the provider returned no fields at all for the contract.
// This happens when the contract was scanned on the wrong chain.
func (s *ScanResult) IsEmpty() bool {
	return s == nil || reflect.ValueOf(*s).IsZero()
}

// Holder is one entry of the token (or LP token) holder list.
type Holder struct {
	Address    string `json:"address"`
	Tag        string `json:"tag,omitempty"`
	IsContract int    `json:"is_contract"`
	Balance    string `json:"balance,omitempty"`
	Percent    string `json:"percent,omitempty"` // fraction of supply, "0.0512" = 5.12%
	IsLocked   int    `json:"is_locked"`
}

// DexPair is a liquidity pool pairing the audited token with a base asset.
type DexPair struct {
	Name          string `json:"name"`
	Liquidity     string `json:"liquidity,omitempty"` // USD
	Pair          string `json:"pair"`
	LiquidityType string `json:"liquidity_type,omitempty"`
}
