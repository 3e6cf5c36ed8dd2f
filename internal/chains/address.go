package chains

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"

	"token-audit/internal/domain"
)

// ErrInvalidAddress is returned when an address does not match the chain's format.
var ErrInvalidAddress = errors.New("invalid contract address")

// Tron base58check layout: 0x41 prefix + 20 byte account + 4 byte checksum.
const (
	tronPrefix      = 0x41
	tronDecodedSize = 25
)

// NormalizeAddress validates address for the chain and returns its canonical form:
// lower-case hex for EVM chains, the unchanged base58 string for Tron.
func NormalizeAddress(info domain.ChainInfo, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	switch info.Format {
	case domain.AddressFormatEVM:
		if !common.IsHexAddress(address) {
			return "", fmt.Errorf("%w: %q is not a hex address", ErrInvalidAddress, address)
		}
		return strings.ToLower(common.HexToAddress(address).Hex()), nil
	case domain.AddressFormatTron:
		if err := validateTron(address); err != nil {
			return "", err
		}
		return address, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidAddress, info.Format)
	}
}

// DisplayAddress returns the address as users expect to read it:
// EIP-55 checksummed for EVM chains, unchanged otherwise.
func DisplayAddress(info domain.ChainInfo, address string) string {
	if info.Format == domain.AddressFormatEVM && common.IsHexAddress(address) {
		return common.HexToAddress(address).Hex()
	}
	return address
}

func validateTron(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %q is not base58: %v", ErrInvalidAddress, address, err)
	}
	if len(raw) != tronDecodedSize || raw[0] != tronPrefix {
		return fmt.Errorf("%w: %q is not a tron address", ErrInvalidAddress, address)
	}

	payload, checksum := raw[:21], raw[21:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:4], checksum) {
		return fmt.Errorf("%w: %q has a bad checksum", ErrInvalidAddress, address)
	}
	return nil
}
