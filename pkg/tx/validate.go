package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/anyong/tangleclient/config"
	"github.com/anyong/tangleclient/pkg/types"
)

// Validation errors.
var (
	ErrNoInputs       = errors.New("transaction has no inputs")
	ErrNoOutputs      = errors.New("transaction has no outputs")
	ErrDuplicateInput = errors.New("duplicate input")
	ErrTooManyInputs  = errors.New("too many inputs")
	ErrTooManyOutputs = errors.New("too many outputs")
	ErrOutputOverflow = errors.New("output values overflow")
	ErrTagTooLong     = errors.New("tag too long")
	ErrDataTooLong    = errors.New("tagged data too long")
)

// Validate checks essence structure against the ledger's structural rules.
// These ceilings are enforced before signing: node-side rejection would
// waste a signing and PoW cycle.
func (e *Essence) Validate() error {
	if len(e.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(e.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(e.Inputs) > config.MaxTxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(e.Inputs), config.MaxTxInputs)
	}
	if len(e.Outputs) > config.MaxTxOutputs {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(e.Outputs), config.MaxTxOutputs)
	}

	seen := make(map[types.OutputID]bool, len(e.Inputs))
	for i, in := range e.Inputs {
		if seen[in] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in] = true
	}

	var total uint64
	for i, out := range e.Outputs {
		if err := out.Validate(); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if total > math.MaxUint64-out.Deposit() {
			return fmt.Errorf("output %d: %w", i, ErrOutputOverflow)
		}
		total += out.Deposit()
	}

	if e.Payload != nil {
		if len(e.Payload.Tag) > config.MaxTagLength {
			return fmt.Errorf("%w: %d bytes, max %d", ErrTagTooLong, len(e.Payload.Tag), config.MaxTagLength)
		}
		if len(e.Payload.Data) > config.MaxTaggedDataLength {
			return fmt.Errorf("%w: %d bytes, max %d", ErrDataTooLong, len(e.Payload.Data), config.MaxTaggedDataLength)
		}
	}

	return nil
}

// TotalOutputAmount returns the sum of all output amounts.
// Returns an error if the sum overflows uint64.
func (e *Essence) TotalOutputAmount() (uint64, error) {
	var total uint64
	for _, out := range e.Outputs {
		if total > math.MaxUint64-out.Deposit() {
			return 0, ErrOutputOverflow
		}
		total += out.Deposit()
	}
	return total, nil
}
