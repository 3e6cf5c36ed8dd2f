package domain

// ChainID identifies a chain the way the security-scan provider does
// ("1", "56", "43114", "tron", ...).
type ChainID string

// String returns the string representation of ChainID.
func (c ChainID) String() string {
	return string(c)
}

// Supported chain identifiers.
const (
	ChainEthereum  ChainID = "1"
	ChainBSC       ChainID = "56"
	ChainPolygon   ChainID = "137"
	ChainArbitrum  ChainID = "42161"
	ChainAvalanche ChainID = "43114"
	ChainBase      ChainID = "8453"
	ChainTron      ChainID = "tron"
)

// AddressFormat describes how contract addresses are encoded on a chain.
type AddressFormat string

const (
	AddressFormatEVM  AddressFormat = "evm"
	AddressFormatTron AddressFormat = "tron"
)

// IsValid checks if the format is a known value.
func (f AddressFormat) IsValid() bool {
	return f == AddressFormatEVM || f == AddressFormatTron
}

// ChainInfo is the static per-chain lookup used to build links and upstream requests.
// Loaded once at startup and never mutated.
type ChainInfo struct {
	ID       ChainID       `yaml:"id"`
	Label    string        `yaml:"label"`    // display name
	Code     string        `yaml:"code"`     // short ticker shown in the empty-result panel
	Logo     string        `yaml:"logo"`     // logo image URL
	Explorer string        `yaml:"explorer"` // block explorer base URL
	Format   AddressFormat `yaml:"format"`

	// Explorer path segments inserted between Explorer and the address.
	AddressPath string `yaml:"address_path"`
	TokenPath   string `yaml:"token_path"`
	PairPath    string `yaml:"pair_path"`

	Dext string `yaml:"dext"` // DexTools chain slug
	Dexs string `yaml:"dexs"` // DexScreener chain slug (optional)
	Dexv string `yaml:"dexv"` // DexView chain slug (optional)
}
