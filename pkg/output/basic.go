package output

import "fmt"

// BasicOutput holds base tokens and optional native tokens, spendable by
// whoever satisfies its unlock conditions.
type BasicOutput struct {
	Amount           uint64            `json:"amount"`
	NativeTokens     []NativeToken     `json:"nativeTokens,omitempty"`
	UnlockConditions []UnlockCondition `json:"unlockConditions"`
	Features         []Feature         `json:"features,omitempty"`
}

// NewBasicOutput builds a validated basic output.
func NewBasicOutput(amount uint64, conds []UnlockCondition, tokens []NativeToken, feats []Feature) (*BasicOutput, error) {
	o := &BasicOutput{
		Amount:           amount,
		NativeTokens:     tokens,
		UnlockConditions: conds,
		Features:         feats,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Kind returns KindBasic.
func (o *BasicOutput) Kind() Kind { return KindBasic }

// Deposit returns the base token amount.
func (o *BasicOutput) Deposit() uint64 { return o.Amount }

// Tokens returns the native tokens.
func (o *BasicOutput) Tokens() []NativeToken { return o.NativeTokens }

// Conditions returns the unlock condition set.
func (o *BasicOutput) Conditions() []UnlockCondition { return o.UnlockConditions }

// FeatureBlocks returns the feature blocks.
func (o *BasicOutput) FeatureBlocks() []Feature { return o.Features }

// Validate checks the structural rules for basic outputs.
func (o *BasicOutput) Validate() error {
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
func (o *BasicOutput) Serialize() []byte {
	buf := serializeCommon(nil, KindBasic, o.Amount, o.NativeTokens)
	buf = serializeConditions(buf, o.UnlockConditions)
	buf = serializeFeatures(buf, o.Features)
	return buf
}
