package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/anyong/tangleclient/config"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/types"
)

// Builder errors.
var (
	ErrNoTargets                  = errors.New("no target outputs")
	ErrNoFunding                  = errors.New("no funding outputs available")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrInsufficientFundsForChange = errors.New("change below dust threshold")
	ErrDustProtection             = errors.New("dust protection violation")
	ErrNoChangeAddress            = errors.New("no change address")
)

// FundingOutput is a spendable output the caller owns, paired with the
// address that controls it.
type FundingOutput struct {
	ID      types.OutputID
	Output  output.Output
	Address types.Address
}

// BalanceFunc reports the balance the caller already knows an address to
// hold on the ledger. Consulted for dust protection only; a nil func means
// no destination is known to be funded.
type BalanceFunc func(types.Address) uint64

// Prepared is the result of building: the essence and the funding outputs
// it consumes, in input order. The caller derives the signing keys for the
// funding addresses and hands both to Sign.
type Prepared struct {
	Essence *Essence
	Inputs  []FundingOutput
}

// Builder assembles a transaction essence from caller-owned funding
// outputs and desired target outputs. Funding outputs are consumed
// greedily in the order the caller supplies them; the same order yields
// the same essence, keeping builds reproducible.
type Builder struct {
	funding       []FundingOutput
	targets       []output.Output
	changeAddress types.Address
	knownBalance  BalanceFunc
	tagged        *TaggedData
}

// NewBuilder creates a builder that sends surplus funds to changeAddress.
func NewBuilder(changeAddress types.Address) *Builder {
	return &Builder{changeAddress: changeAddress}
}

// AddFunding offers a spendable output for input selection.
func (b *Builder) AddFunding(fo FundingOutput) *Builder {
	b.funding = append(b.funding, fo)
	return b
}

// AddTarget adds an output the transaction must create.
func (b *Builder) AddTarget(out output.Output) *Builder {
	b.targets = append(b.targets, out)
	return b
}

// WithKnownBalance supplies the existing-balance check used by the dust
// protection rule.
func (b *Builder) WithKnownBalance(fn BalanceFunc) *Builder {
	b.knownBalance = fn
	return b
}

// WithTaggedData attaches an auxiliary tagged data payload.
func (b *Builder) WithTaggedData(tag, data []byte) *Builder {
	b.tagged = &TaggedData{Tag: types.HexBytes(tag), Data: types.HexBytes(data)}
	return b
}

// Build selects funding outputs, computes change and assembles a validated
// essence. It fails rather than emit anything a node would reject: dust
// violations, sub-dust change, input/output ceilings, insufficient funds.
func (b *Builder) Build() (*Prepared, error) {
	if len(b.targets) == 0 {
		return nil, ErrNoTargets
	}
	if len(b.funding) == 0 {
		return nil, ErrNoFunding
	}
	if b.changeAddress.IsZero() {
		return nil, ErrNoChangeAddress
	}

	var targetSum uint64
	for i, out := range b.targets {
		if err := out.Validate(); err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		if err := b.checkDust(out); err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		if targetSum > math.MaxUint64-out.Deposit() {
			return nil, fmt.Errorf("target %d: %w", i, ErrOutputOverflow)
		}
		targetSum += out.Deposit()
	}

	seen := make(map[types.OutputID]bool, len(b.funding))
	var selected []FundingOutput
	var total uint64
	for _, fo := range b.funding {
		if seen[fo.ID] {
			return nil, fmt.Errorf("funding output %s: %w", fo.ID, ErrDuplicateInput)
		}
		seen[fo.ID] = true
		selected = append(selected, fo)
		if total > math.MaxUint64-fo.Output.Deposit() {
			return nil, fmt.Errorf("funding output %s: %w", fo.ID, ErrOutputOverflow)
		}
		total += fo.Output.Deposit()
		if total >= targetSum {
			break
		}
	}
	if total < targetSum {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, targetSum)
	}
	if len(selected) > config.MaxTxInputs {
		return nil, fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(selected), config.MaxTxInputs)
	}

	outputs := make([]output.Output, len(b.targets))
	copy(outputs, b.targets)

	// Surplus becomes a single change output. A non-zero surplus below the
	// dust threshold would be rejected by the network as an unspendable
	// residue, so the build fails instead.
	if surplus := total - targetSum; surplus > 0 {
		if surplus < config.DustThreshold {
			return nil, fmt.Errorf("%w: change %d below %d", ErrInsufficientFundsForChange, surplus, config.DustThreshold)
		}
		change, err := output.NewBasicOutput(surplus,
			[]output.UnlockCondition{output.NewAddressUnlock(b.changeAddress)}, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("change output: %w", err)
		}
		outputs = append(outputs, change)
	}

	if len(outputs) > config.MaxTxOutputs {
		return nil, fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(outputs), config.MaxTxOutputs)
	}

	essence := &Essence{
		Outputs: outputs,
		Payload: b.tagged,
	}
	for _, fo := range selected {
		essence.Inputs = append(essence.Inputs, fo.ID)
	}
	if err := essence.Validate(); err != nil {
		return nil, err
	}

	return &Prepared{Essence: essence, Inputs: selected}, nil
}

// checkDust enforces the dust protection rule for a constructed output:
// a plain output below the dust threshold may only target an address
// already known to hold at least the threshold.
func (b *Builder) checkDust(out output.Output) error {
	if !output.IsPlain(out) || out.Deposit() >= config.DustThreshold {
		return nil
	}
	addr, ok := output.AddressCondition(out)
	if !ok {
		return fmt.Errorf("%w: output has no destination address", ErrDustProtection)
	}
	var known uint64
	if b.knownBalance != nil {
		known = b.knownBalance(addr)
	}
	if known < config.DustThreshold {
		return fmt.Errorf("%w: %d to %s holding %d, need %d held",
			ErrDustProtection, out.Deposit(), addr, known, config.DustThreshold)
	}
	return nil
}
