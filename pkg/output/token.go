package output

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/anyong/tangleclient/pkg/crypto"
)

// TokenIDSize is the length of a native token id in bytes. A token id is
// the foundry id of the foundry that minted the token.
const TokenIDSize = crypto.Digest160Size

// TokenID identifies a native token class.
type TokenID [TokenIDSize]byte

// String returns the hex-encoded token id.
func (t TokenID) String() string {
	return hex.EncodeToString(t[:])
}

// MarshalJSON encodes the token id as a hex string.
func (t TokenID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a hex string into a token id.
func (t *TokenID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid token id hex: %w", err)
	}
	if len(decoded) != TokenIDSize {
		return fmt.Errorf("token id must be %d bytes, got %d", TokenIDSize, len(decoded))
	}
	copy(t[:], decoded)
	return nil
}

// NativeToken is an amount of one native token class held by an output.
type NativeToken struct {
	ID     TokenID `json:"id"`
	Amount uint64  `json:"amount"`
}

// TokenScheme type tags. Only the simple scheme exists today.
const (
	TokenSchemeSimple uint8 = 0
)

// TokenScheme describes the supply accounting of a foundry.
type TokenScheme struct {
	Type          uint8  `json:"type"`
	Minted        uint64 `json:"minted"`
	Melted        uint64 `json:"melted"`
	MaximumSupply uint64 `json:"maximumSupply"`
}

// Validate checks the token scheme invariants.
func (ts TokenScheme) Validate() error {
	if ts.Type != TokenSchemeSimple {
		return fmt.Errorf("%w: unknown type %d", ErrInvalidTokenScheme, ts.Type)
	}
	if ts.MaximumSupply == 0 {
		return fmt.Errorf("%w: maximum supply must be positive", ErrInvalidTokenScheme)
	}
	if ts.Minted < ts.Melted {
		return fmt.Errorf("%w: melted exceeds minted", ErrInvalidTokenScheme)
	}
	if ts.Minted > ts.MaximumSupply {
		return fmt.Errorf("%w: minted exceeds maximum supply", ErrInvalidTokenScheme)
	}
	return nil
}
