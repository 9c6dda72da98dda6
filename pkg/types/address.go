package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AddressType tags the serialized form of an address.
type AddressType uint8

// Address type tags. The tag is the first byte of the serialized address
// and selects the length and meaning of the payload that follows.
const (
	AddressEd25519 AddressType = 0x00 // BLAKE2b-256 digest of an Ed25519 public key
	AddressAlias   AddressType = 0x08 // alias ID
	AddressNFT     AddressType = 0x10 // NFT ID
)

// Payload sizes per address type.
const (
	Ed25519AddressSize = 32
	AliasAddressSize   = 20
	NFTAddressSize     = 20
)

// Address HRP (human-readable part) used by String() and MarshalJSON().
// Set once at startup via SetAddressHRP(). Default is mainnet.
var activeHRP = "iota"

// SetAddressHRP sets the active address HRP (call once at startup).
func SetAddressHRP(hrp string) {
	activeHRP = hrp
}

// GetAddressHRP returns the currently active address HRP.
func GetAddressHRP() string {
	return activeHRP
}

// Address is a tagged ledger address. Data holds the payload; alias and NFT
// addresses use only the first 20 bytes. Immutable once computed.
type Address struct {
	Type AddressType
	Data [Ed25519AddressSize]byte
}

// NewEd25519Address builds an address from a 32-byte public key digest.
func NewEd25519Address(digest [Ed25519AddressSize]byte) Address {
	return Address{Type: AddressEd25519, Data: digest}
}

// NewAliasAddress builds an address from a 20-byte alias ID.
func NewAliasAddress(id [AliasAddressSize]byte) Address {
	var a Address
	a.Type = AddressAlias
	copy(a.Data[:], id[:])
	return a
}

// NewNFTAddress builds an address from a 20-byte NFT ID.
func NewNFTAddress(id [NFTAddressSize]byte) Address {
	var a Address
	a.Type = AddressNFT
	copy(a.Data[:], id[:])
	return a
}

// PayloadSize returns the payload length for the address type.
func (a Address) PayloadSize() int {
	if a.Type == AddressEd25519 {
		return Ed25519AddressSize
	}
	return AliasAddressSize
}

// Payload returns the significant payload bytes for the address type.
func (a Address) Payload() []byte {
	return a.Data[:a.PayloadSize()]
}

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns the serialized form: type tag followed by the payload.
func (a Address) Bytes() []byte {
	b := make([]byte, 0, 1+a.PayloadSize())
	b = append(b, byte(a.Type))
	b = append(b, a.Payload()...)
	return b
}

// Bech32 encodes the serialized address under the given HRP.
func (a Address) Bech32(hrp string) (string, error) {
	conv, err := bech32.ConvertBits(a.Bytes(), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert bits: %w", err)
	}
	s, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", fmt.Errorf("bech32 encode: %w", err)
	}
	return s, nil
}

// String returns the bech32-encoded address under the active HRP.
func (a Address) String() string {
	s, err := a.Bech32(activeHRP)
	if err != nil {
		// Fallback to hex if encoding fails (should never happen).
		return activeHRP + ":" + hex.EncodeToString(a.Bytes())
	}
	return s
}

// Hex returns the serialized address as a hex string without HRP.
func (a Address) Hex() string {
	return hex.EncodeToString(a.Bytes())
}

// MarshalJSON encodes the address as a bech32 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a bech32 or hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a bech32 address string under any HRP, or the raw
// hex serialized form (for internal use).
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	if raw, err := hex.DecodeString(s); err == nil {
		return addressFromBytes(raw)
	}
	_, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 payload: %w", err)
	}
	return addressFromBytes(raw)
}

// ParseBech32Address parses a bech32 address and verifies its HRP.
func ParseBech32Address(s, wantHRP string) (Address, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	if hrp != wantHRP {
		return Address{}, fmt.Errorf("address HRP %q, want %q", hrp, wantHRP)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 payload: %w", err)
	}
	return addressFromBytes(raw)
}

// addressFromBytes deserializes a type tag plus payload.
func addressFromBytes(raw []byte) (Address, error) {
	if len(raw) == 0 {
		return Address{}, fmt.Errorf("empty address bytes")
	}
	var a Address
	a.Type = AddressType(raw[0])
	payload := raw[1:]
	switch a.Type {
	case AddressEd25519:
		if len(payload) != Ed25519AddressSize {
			return Address{}, fmt.Errorf("ed25519 address payload must be %d bytes, got %d", Ed25519AddressSize, len(payload))
		}
	case AddressAlias, AddressNFT:
		if len(payload) != AliasAddressSize {
			return Address{}, fmt.Errorf("alias/nft address payload must be %d bytes, got %d", AliasAddressSize, len(payload))
		}
	default:
		return Address{}, fmt.Errorf("unknown address type 0x%02x", raw[0])
	}
	copy(a.Data[:], payload)
	return a, nil
}
