// Package output models the polymorphic output types of the Tangle ledger:
// Basic, Alias, Foundry and NFT outputs, their unlock conditions, native
// token sets and feature blocks, and the derived identifiers computed from
// them. Outputs are immutable once constructed; spending one never mutates
// it, the ledger replaces it with new outputs referencing it as consumed.
package output

import (
	"encoding/binary"
	"errors"

	"github.com/anyong/tangleclient/config"
	"github.com/anyong/tangleclient/pkg/types"
)

// Kind tags the serialized form of an output.
type Kind uint8

// Output kinds.
const (
	KindBasic   Kind = 3
	KindAlias   Kind = 4
	KindFoundry Kind = 5
	KindNFT     Kind = 6
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindAlias:
		return "alias"
	case KindFoundry:
		return "foundry"
	case KindNFT:
		return "nft"
	default:
		return "unknown"
	}
}

// Validation errors.
var (
	ErrInvalidOutput        = errors.New("invalid output")
	ErrZeroAmount           = errors.New("amount must be positive")
	ErrMissingAddressUnlock = errors.New("missing mandatory address unlock condition")
	ErrDuplicateNativeToken = errors.New("duplicate native token id")
	ErrTooManyNativeTokens  = errors.New("too many native tokens")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidTokenScheme   = errors.New("invalid token scheme")
	ErrMetadataTooLarge     = errors.New("state metadata too large")
)

// Output is the common surface of the four ledger output variants.
// All implementations are value-constructed through the New* constructors,
// which validate the ledger's structural rules up front.
type Output interface {
	// Kind returns the output variant tag.
	Kind() Kind
	// Deposit returns the amount of base tokens held by the output.
	Deposit() uint64
	// Tokens returns the native tokens carried by the output.
	Tokens() []NativeToken
	// Conditions returns the ordered unlock condition set.
	Conditions() []UnlockCondition
	// FeatureBlocks returns the mutable feature blocks.
	FeatureBlocks() []Feature
	// Serialize returns the canonical byte form used in essence hashing.
	Serialize() []byte
	// Validate re-checks the structural rules the constructor enforced.
	Validate() error
}

// AddressCondition returns the target address of the first address unlock
// condition, if present. Used for dust protection checks.
func AddressCondition(o Output) (types.Address, bool) {
	for _, uc := range o.Conditions() {
		if uc.Type == UnlockAddress {
			return uc.Address, true
		}
	}
	return types.Address{}, false
}

// IsPlain reports whether the output is a basic output carrying nothing
// beyond a single address unlock condition. Only plain outputs fall under
// the dust protection rule; token- or feature-carrying outputs are priced
// by storage deposit instead.
func IsPlain(o Output) bool {
	if o.Kind() != KindBasic {
		return false
	}
	if len(o.Tokens()) > 0 || len(o.FeatureBlocks()) > 0 {
		return false
	}
	conds := o.Conditions()
	return len(conds) == 1 && conds[0].Type == UnlockAddress
}

// validateNativeTokens checks uniqueness and count limits of a token set.
func validateNativeTokens(tokens []NativeToken) error {
	if len(tokens) > config.MaxNativeTokens {
		return ErrTooManyNativeTokens
	}
	seen := make(map[TokenID]bool, len(tokens))
	for _, nt := range tokens {
		if seen[nt.ID] {
			return ErrDuplicateNativeToken
		}
		seen[nt.ID] = true
	}
	return nil
}

// serializeCommon appends the fields shared by all output kinds:
// kind tag, amount, native tokens.
func serializeCommon(buf []byte, kind Kind, amount uint64, tokens []NativeToken) []byte {
	buf = append(buf, byte(kind))
	buf = binary.LittleEndian.AppendUint64(buf, amount)
	buf = append(buf, byte(len(tokens)))
	for _, nt := range tokens {
		buf = append(buf, nt.ID[:]...)
		buf = binary.LittleEndian.AppendUint64(buf, nt.Amount)
	}
	return buf
}

// serializeConditions appends an unlock condition set.
func serializeConditions(buf []byte, conds []UnlockCondition) []byte {
	buf = append(buf, byte(len(conds)))
	for _, uc := range conds {
		buf = uc.serialize(buf)
	}
	return buf
}

// serializeFeatures appends a feature block set.
func serializeFeatures(buf []byte, feats []Feature) []byte {
	buf = append(buf, byte(len(feats)))
	for _, f := range feats {
		buf = f.serialize(buf)
	}
	return buf
}
