package output

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/anyong/tangleclient/pkg/crypto"
	"github.com/anyong/tangleclient/pkg/types"
)

// AliasID identifies an alias across its whole UTXO chain, independent of
// the currently spendable output id.
type AliasID [crypto.Digest160Size]byte

// NftID identifies an NFT across its whole UTXO chain.
type NftID [crypto.Digest160Size]byte

// FoundryID identifies a foundry. It doubles as the token id of the native
// tokens the foundry mints.
type FoundryID [crypto.Digest160Size]byte

// ComputeOutputID returns the id of the output at the given index of a
// transaction.
func ComputeOutputID(txID types.TransactionID, index uint16) types.OutputID {
	return types.NewOutputID(txID, index)
}

// ComputeAliasID derives the alias id from the output id that created the
// alias: BLAKE2b-160 over the serialized output id.
func ComputeAliasID(id types.OutputID) AliasID {
	return AliasID(crypto.Blake2b160(id.Bytes()))
}

// ComputeNftID derives the NFT id from the output id that minted the NFT:
// BLAKE2b-160 over the serialized output id.
func ComputeNftID(id types.OutputID) NftID {
	return NftID(crypto.Blake2b160(id.Bytes()))
}

// ComputeFoundryID derives the foundry id from the controlling alias
// address, the foundry serial number and the token scheme type:
// BLAKE2b-160 over their concatenated serialized forms.
func ComputeFoundryID(aliasAddr types.Address, serialNumber uint32, tokenSchemeType uint8) FoundryID {
	buf := aliasAddr.Bytes()
	buf = binary.BigEndian.AppendUint32(buf, serialNumber)
	buf = append(buf, tokenSchemeType)
	return FoundryID(crypto.Blake2b160(buf))
}

// IsZero returns true if the alias id is all zeros. A zero id marks an
// alias output that mints a new alias in the current transaction.
func (a AliasID) IsZero() bool { return a == AliasID{} }

// Address returns the alias address form of the id.
func (a AliasID) Address() types.Address { return types.NewAliasAddress(a) }

// String returns the hex-encoded alias id.
func (a AliasID) String() string { return hex.EncodeToString(a[:]) }

// MarshalJSON encodes the alias id as a hex string.
func (a AliasID) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

// UnmarshalJSON decodes a hex string into an alias id.
func (a *AliasID) UnmarshalJSON(data []byte) error { return unmarshalID((*[20]byte)(a), data) }

// IsZero returns true if the NFT id is all zeros (minting output).
func (n NftID) IsZero() bool { return n == NftID{} }

// Address returns the NFT address form of the id.
func (n NftID) Address() types.Address { return types.NewNFTAddress(n) }

// String returns the hex-encoded NFT id.
func (n NftID) String() string { return hex.EncodeToString(n[:]) }

// MarshalJSON encodes the NFT id as a hex string.
func (n NftID) MarshalJSON() ([]byte, error) { return json.Marshal(n.String()) }

// UnmarshalJSON decodes a hex string into an NFT id.
func (n *NftID) UnmarshalJSON(data []byte) error { return unmarshalID((*[20]byte)(n), data) }

// IsZero returns true if the foundry id is all zeros.
func (f FoundryID) IsZero() bool { return f == FoundryID{} }

// TokenID returns the foundry id as a native token id.
func (f FoundryID) TokenID() TokenID { return TokenID(f) }

// String returns the hex-encoded foundry id.
func (f FoundryID) String() string { return hex.EncodeToString(f[:]) }

// MarshalJSON encodes the foundry id as a hex string.
func (f FoundryID) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }

// UnmarshalJSON decodes a hex string into a foundry id.
func (f *FoundryID) UnmarshalJSON(data []byte) error { return unmarshalID((*[20]byte)(f), data) }

func unmarshalID(dst *[crypto.Digest160Size]byte, data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid id hex: %w", err)
	}
	if len(decoded) != crypto.Digest160Size {
		return fmt.Errorf("id must be %d bytes, got %d", crypto.Digest160Size, len(decoded))
	}
	copy(dst[:], decoded)
	return nil
}
