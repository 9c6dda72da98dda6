package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HexBytes is a byte slice that marshals to JSON as a hex string.
// Used for opaque binary fields crossing the binding bridge.
type HexBytes []byte

// String returns the hex encoding.
func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

// MarshalJSON encodes the bytes as a hex string.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// UnmarshalJSON decodes a hex string into bytes.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	*h = decoded
	return nil
}
