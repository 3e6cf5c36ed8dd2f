package domain

// Envelope wraps market-data provider payloads.
type Envelope[T any] struct {
	StatusCode int `json:"statusCode"`
	Data       *T  `json:"data"`
}

// TokenInfo carries market figures for a token.
// Zero values mean the provider did not report the figure.
type TokenInfo struct {
	CirculatingSupply float64 `json:"circulatingSupply,omitempty"`
	TotalSupply       float64 `json:"totalSupply,omitempty"`
	Mcap              float64 `json:"mcap,omitempty"`
	Fdv               float64 `json:"fdv,omitempty"`
	Holders           int64   `json:"holders,omitempty"`
	Transactions      int64   `json:"transactions,omitempty"`
}

// Token carries token metadata as indexed by the market-data provider.
type Token struct {
	Address      string `json:"address,omitempty"`
	Name         string `json:"name,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
	Logo         string `json:"logo,omitempty"`
	Decimals     int    `json:"decimals,omitempty"`
	CreationTime string `json:"creationTime,omitempty"`
}

// TokenInfoResponse is the envelope served by GET /api/token/info.
type TokenInfoResponse = Envelope[TokenInfo]

// TokenResponse is the envelope served by GET /api/token.
type TokenResponse = Envelope[Token]
