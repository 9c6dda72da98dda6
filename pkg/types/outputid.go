package types

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// OutputIDSize is the serialized length of an output ID:
// transaction ID (32) plus big-endian output index (2).
const OutputIDSize = HashSize + 2

// OutputIDHexLength is the length of the hex text form (68 characters).
const OutputIDHexLength = OutputIDSize * 2

// OutputID references a specific output created by a transaction.
type OutputID struct {
	TransactionID TransactionID `json:"transactionId"`
	Index         uint16        `json:"index"`
}

// NewOutputID builds the output ID for the output at the given index of a
// transaction. It is the only way outputs acquire an identity: inclusion in
// the ledger, never mutation.
func NewOutputID(txID TransactionID, index uint16) OutputID {
	return OutputID{TransactionID: txID, Index: index}
}

// IsZero returns true if the output ID has a zero transaction ID and index.
func (o OutputID) IsZero() bool {
	return o.TransactionID.IsZero() && o.Index == 0
}

// Bytes returns the 34-byte serialized form: txid || index (big-endian).
func (o OutputID) Bytes() []byte {
	b := make([]byte, 0, OutputIDSize)
	b = append(b, o.TransactionID[:]...)
	b = binary.BigEndian.AppendUint16(b, o.Index)
	return b
}

// String returns the 68-character hex form.
func (o OutputID) String() string {
	return hex.EncodeToString(o.Bytes())
}

// ParseOutputID decodes a 68-character hex output ID string.
// Round-trips exactly with String().
func ParseOutputID(s string) (OutputID, error) {
	if len(s) != OutputIDHexLength {
		return OutputID{}, fmt.Errorf("output id must be %d hex characters, got %d", OutputIDHexLength, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return OutputID{}, fmt.Errorf("invalid output id hex: %w", err)
	}
	var o OutputID
	copy(o.TransactionID[:], raw[:HashSize])
	o.Index = binary.BigEndian.Uint16(raw[HashSize:])
	return o, nil
}

// MarshalText encodes the output ID as its hex form.
func (o OutputID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes the hex form into an output ID.
func (o *OutputID) UnmarshalText(data []byte) error {
	parsed, err := ParseOutputID(string(data))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// MarshalJSON encodes the output ID as a hex string.
func (o OutputID) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes a hex string into an output ID.
func (o *OutputID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return o.UnmarshalText([]byte(s))
}
