package output

import (
	"encoding/binary"
	"fmt"
)

// FoundryOutput controls the supply of one native token class. It is
// always owned by an alias through the immutable alias unlock condition.
type FoundryOutput struct {
	Amount            uint64            `json:"amount"`
	NativeTokens      []NativeToken     `json:"nativeTokens,omitempty"`
	SerialNumber      uint32            `json:"serialNumber"`
	TokenScheme       TokenScheme       `json:"tokenScheme"`
	UnlockConditions  []UnlockCondition `json:"unlockConditions"`
	Features          []Feature         `json:"features,omitempty"`
	ImmutableFeatures []Feature         `json:"immutableFeatures,omitempty"`
}

// NewFoundryOutput builds a validated foundry output.
func NewFoundryOutput(amount uint64, serialNumber uint32, scheme TokenScheme,
	conds []UnlockCondition, tokens []NativeToken, feats, immutableFeats []Feature) (*FoundryOutput, error) {

	o := &FoundryOutput{
		Amount:            amount,
		NativeTokens:      tokens,
		SerialNumber:      serialNumber,
		TokenScheme:       scheme,
		UnlockConditions:  conds,
		Features:          feats,
		ImmutableFeatures: immutableFeats,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Kind returns KindFoundry.
func (o *FoundryOutput) Kind() Kind { return KindFoundry }

// Deposit returns the base token amount.
func (o *FoundryOutput) Deposit() uint64 { return o.Amount }

// Tokens returns the native tokens.
func (o *FoundryOutput) Tokens() []NativeToken { return o.NativeTokens }

// Conditions returns the unlock condition set.
func (o *FoundryOutput) Conditions() []UnlockCondition { return o.UnlockConditions }

// FeatureBlocks returns the mutable feature blocks.
func (o *FoundryOutput) FeatureBlocks() []Feature { return o.Features }

// ID derives the foundry id from the controlling alias address found in
// the immutable alias unlock condition.
func (o *FoundryOutput) ID() (FoundryID, error) {
	for _, uc := range o.UnlockConditions {
		if uc.Type == UnlockImmutableAlias {
			return ComputeFoundryID(uc.Address, o.SerialNumber, o.TokenScheme.Type), nil
		}
	}
	return FoundryID{}, fmt.Errorf("%w: %w: immutable alias", ErrInvalidOutput, ErrMissingAddressUnlock)
}

// Validate checks the structural rules for foundry outputs.
func (o *FoundryOutput) Validate() error {
	if o.Amount == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, ErrZeroAmount)
	}
	if !hasCondition(o.UnlockConditions, UnlockImmutableAlias) {
		return fmt.Errorf("%w: %w: immutable alias", ErrInvalidOutput, ErrMissingAddressUnlock)
	}
	if err := o.TokenScheme.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	if err := validateNativeTokens(o.NativeTokens); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	return nil
}

// Serialize returns the canonical byte form.
func (o *FoundryOutput) Serialize() []byte {
	buf := serializeCommon(nil, KindFoundry, o.Amount, o.NativeTokens)
	buf = binary.LittleEndian.AppendUint32(buf, o.SerialNumber)
	buf = append(buf, o.TokenScheme.Type)
	buf = binary.LittleEndian.AppendUint64(buf, o.TokenScheme.Minted)
	buf = binary.LittleEndian.AppendUint64(buf, o.TokenScheme.Melted)
	buf = binary.LittleEndian.AppendUint64(buf, o.TokenScheme.MaximumSupply)
	buf = serializeConditions(buf, o.UnlockConditions)
	buf = serializeFeatures(buf, o.Features)
	buf = serializeFeatures(buf, o.ImmutableFeatures)
	return buf
}
