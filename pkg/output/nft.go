package output

import "fmt"

// NftOutput represents a non-fungible asset. Immutable features pin the
// issuer and metadata for the lifetime of the NFT.
type NftOutput struct {
	Amount            uint64            `json:"amount"`
	NativeTokens      []NativeToken     `json:"nativeTokens,omitempty"`
	NftID             NftID             `json:"nftId"`
	UnlockConditions  []UnlockCondition `json:"unlockConditions"`
	Features          []Feature         `json:"features,omitempty"`
	ImmutableFeatures []Feature         `json:"immutableFeatures,omitempty"`
}

// NewNftOutput builds a validated NFT output. A zero NftID mints a new
// NFT; its id is assigned from the creating output id on inclusion.
func NewNftOutput(amount uint64, nftID NftID, conds []UnlockCondition,
	tokens []NativeToken, feats, immutableFeats []Feature) (*NftOutput, error) {

	o := &NftOutput{
		Amount:            amount,
		NativeTokens:      tokens,
		NftID:             nftID,
		UnlockConditions:  conds,
		Features:          feats,
		ImmutableFeatures: immutableFeats,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Kind returns KindNFT.
func (o *NftOutput) Kind() Kind { return KindNFT }

// Deposit returns the base token amount.
func (o *NftOutput) Deposit() uint64 { return o.Amount }

// Tokens returns the native tokens.
func (o *NftOutput) Tokens() []NativeToken { return o.NativeTokens }

// Conditions returns the unlock condition set.
func (o *NftOutput) Conditions() []UnlockCondition { return o.UnlockConditions }

// FeatureBlocks returns the mutable feature blocks.
func (o *NftOutput) FeatureBlocks() []Feature { return o.Features }

// Validate checks the structural rules for NFT outputs.
func (o *NftOutput) Validate() error {
	if o.Amount == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, ErrZeroAmount)
	}
	if !hasCondition(o.UnlockConditions, UnlockAddress) {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, ErrMissingAddressUnlock)
	}
	if err := validateNativeTokens(o.NativeTokens); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	return nil
}

// Serialize returns the canonical byte form.
func (o *NftOutput) Serialize() []byte {
	buf := serializeCommon(nil, KindNFT, o.Amount, o.NativeTokens)
	buf = append(buf, o.NftID[:]...)
	buf = serializeConditions(buf, o.UnlockConditions)
	buf = serializeFeatures(buf, o.Features)
	buf = serializeFeatures(buf, o.ImmutableFeatures)
	return buf
}
