package output

import (
	"encoding/binary"
	"fmt"

	"github.com/anyong/tangleclient/config"
	"github.com/anyong/tangleclient/pkg/types"
)

// AliasOutput tracks smart-contract-like state across a UTXO chain. The
// state controller may advance StateIndex and StateMetadata; the governor
// may change the controllers or destroy the alias.
type AliasOutput struct {
	Amount            uint64            `json:"amount"`
	NativeTokens      []NativeToken     `json:"nativeTokens,omitempty"`
	AliasID           AliasID           `json:"aliasId"`
	StateIndex        uint32            `json:"stateIndex"`
	StateMetadata     types.HexBytes    `json:"stateMetadata,omitempty"`
	FoundryCounter    uint32            `json:"foundryCounter"`
	UnlockConditions  []UnlockCondition `json:"unlockConditions"`
	Features          []Feature         `json:"features,omitempty"`
	ImmutableFeatures []Feature         `json:"immutableFeatures,omitempty"`
}

// NewAliasOutput builds a validated alias output. A zero AliasID mints a
// new alias; its id is assigned from the creating output id on inclusion.
func NewAliasOutput(amount uint64, aliasID AliasID, stateIndex uint32, stateMetadata []byte,
	foundryCounter uint32, conds []UnlockCondition, tokens []NativeToken,
	feats, immutableFeats []Feature) (*AliasOutput, error) {

	o := &AliasOutput{
		Amount:            amount,
		NativeTokens:      tokens,
		AliasID:           aliasID,
		StateIndex:        stateIndex,
		StateMetadata:     types.HexBytes(stateMetadata),
		FoundryCounter:    foundryCounter,
		UnlockConditions:  conds,
		Features:          feats,
		ImmutableFeatures: immutableFeats,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Kind returns KindAlias.
func (o *AliasOutput) Kind() Kind { return KindAlias }

// Deposit returns the base token amount.
func (o *AliasOutput) Deposit() uint64 { return o.Amount }

// Tokens returns the native tokens.
func (o *AliasOutput) Tokens() []NativeToken { return o.NativeTokens }

// Conditions returns the unlock condition set.
func (o *AliasOutput) Conditions() []UnlockCondition { return o.UnlockConditions }

// FeatureBlocks returns the mutable feature blocks.
func (o *AliasOutput) FeatureBlocks() []Feature { return o.Features }

// Validate checks the structural rules for alias outputs.
func (o *AliasOutput) Validate() error {
	if o.Amount == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, ErrZeroAmount)
	}
	// Aliases are unlocked through their controllers, not a plain address
	// condition; both controllers are mandatory.
	if !hasCondition(o.UnlockConditions, UnlockStateController) {
		return fmt.Errorf("%w: %w: state controller", ErrInvalidOutput, ErrMissingAddressUnlock)
	}
	if !hasCondition(o.UnlockConditions, UnlockGovernor) {
		return fmt.Errorf("%w: %w: governor", ErrInvalidOutput, ErrMissingAddressUnlock)
	}
	if len(o.StateMetadata) > config.MaxStateMetadataLength {
		return fmt.Errorf("%w: %w: %d bytes, max %d", ErrInvalidOutput, ErrMetadataTooLarge,
			len(o.StateMetadata), config.MaxStateMetadataLength)
	}
	if err := validateNativeTokens(o.NativeTokens); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	return nil
}

// Serialize returns the canonical byte form.
func (o *AliasOutput) Serialize() []byte {
	buf := serializeCommon(nil, KindAlias, o.Amount, o.NativeTokens)
	buf = append(buf, o.AliasID[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, o.StateIndex)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(o.StateMetadata)))
	buf = append(buf, o.StateMetadata...)
	buf = binary.LittleEndian.AppendUint32(buf, o.FoundryCounter)
	buf = serializeConditions(buf, o.UnlockConditions)
	buf = serializeFeatures(buf, o.Features)
	buf = serializeFeatures(buf, o.ImmutableFeatures)
	return buf
}
