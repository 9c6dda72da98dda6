package tx

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/anyong/tangleclient/config"
	"github.com/anyong/tangleclient/pkg/crypto"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/types"
)

func testKey(t *testing.T, b byte) *crypto.KeyPair {
	t.Helper()
	kp, err := crypto.KeyPairFromSeed(bytes.Repeat([]byte{b}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return kp
}

func testAddr(b byte) types.Address {
	var digest [32]byte
	digest[0] = b
	return types.NewEd25519Address(digest)
}

func plainOutput(t *testing.T, amount uint64, addr types.Address) *output.BasicOutput {
	t.Helper()
	o, err := output.NewBasicOutput(amount,
		[]output.UnlockCondition{output.NewAddressUnlock(addr)}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func funding(t *testing.T, idByte byte, amount uint64, addr types.Address) FundingOutput {
	t.Helper()
	return FundingOutput{
		ID:      types.NewOutputID(types.TransactionID{idByte}, 0),
		Output:  plainOutput(t, amount, addr),
		Address: addr,
	}
}

func TestBuild_WithChange(t *testing.T) {
	owner := testAddr(1)
	changeAddr := testAddr(2)
	recipient := testAddr(3)

	prepared, err := NewBuilder(changeAddr).
		AddFunding(funding(t, 0x01, 10_000_000, owner)).
		AddTarget(plainOutput(t, 1_000_000, recipient)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(prepared.Essence.Inputs) != 1 {
		t.Fatalf("inputs = %d, want 1", len(prepared.Essence.Inputs))
	}
	if len(prepared.Essence.Outputs) != 2 {
		t.Fatalf("outputs = %d, want target + change", len(prepared.Essence.Outputs))
	}

	change := prepared.Essence.Outputs[1]
	if change.Deposit() != 9_000_000 {
		t.Errorf("change = %d, want 9000000", change.Deposit())
	}
	addr, ok := output.AddressCondition(change)
	if !ok || addr != changeAddr {
		t.Error("change must target the change address")
	}
}

func TestBuild_ExactAmount_NoChange(t *testing.T) {
	prepared, err := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 1_000_000, testAddr(1))).
		AddTarget(plainOutput(t, 1_000_000, testAddr(3))).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(prepared.Essence.Outputs) != 1 {
		t.Errorf("exact spend should emit no change output, got %d outputs", len(prepared.Essence.Outputs))
	}
}

func TestBuild_GreedySelection_CallerOrder(t *testing.T) {
	owner := testAddr(1)
	prepared, err := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 2_000_000, owner)).
		AddFunding(funding(t, 0x02, 2_000_000, owner)).
		AddFunding(funding(t, 0x03, 2_000_000, owner)).
		AddTarget(plainOutput(t, 3_000_000, testAddr(3))).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// 2M + 2M covers 3M; the third output must stay unspent.
	if len(prepared.Inputs) != 2 {
		t.Fatalf("inputs = %d, want 2", len(prepared.Inputs))
	}
	if prepared.Inputs[0].ID.TransactionID[0] != 0x01 || prepared.Inputs[1].ID.TransactionID[0] != 0x02 {
		t.Error("funding must be consumed in caller order")
	}
}

func TestBuild_InsufficientFunds(t *testing.T) {
	_, err := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 1_000_000, testAddr(1))).
		AddTarget(plainOutput(t, 5_000_000, testAddr(3))).
		Build()
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got: %v", err)
	}
}

func TestBuild_FundingSumOverflow(t *testing.T) {
	// Each funding output is individually valid but the running sum would
	// wrap uint64 before covering the target.
	_, err := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, math.MaxUint64-1, testAddr(1))).
		AddFunding(funding(t, 0x02, 2_000_000, testAddr(1))).
		AddTarget(plainOutput(t, math.MaxUint64, testAddr(3))).
		Build()
	if !errors.Is(err, ErrOutputOverflow) {
		t.Errorf("expected ErrOutputOverflow, got: %v", err)
	}
}

func TestBuild_SubDustChange(t *testing.T) {
	// 2M funding, 1.5M target: 0.5M change is below the threshold.
	_, err := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 2_000_000, testAddr(1))).
		AddTarget(plainOutput(t, 1_500_000, testAddr(3))).
		Build()
	if !errors.Is(err, ErrInsufficientFundsForChange) {
		t.Errorf("expected ErrInsufficientFundsForChange, got: %v", err)
	}
}

func TestBuild_DustProtection(t *testing.T) {
	recipient := testAddr(3)
	b := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 10_000_000, testAddr(1))).
		AddTarget(plainOutput(t, 500_000, recipient))

	_, err := b.Build()
	if !errors.Is(err, ErrDustProtection) {
		t.Errorf("sub-threshold plain output to unfunded address: expected ErrDustProtection, got: %v", err)
	}
}

func TestBuild_DustAllowed_FundedDestination(t *testing.T) {
	recipient := testAddr(3)
	prepared, err := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 10_000_000, testAddr(1))).
		AddTarget(plainOutput(t, 500_000, recipient)).
		WithKnownBalance(func(addr types.Address) uint64 {
			if addr == recipient {
				return config.DustThreshold
			}
			return 0
		}).
		Build()
	if err != nil {
		t.Fatalf("dust to funded destination should build: %v", err)
	}
	if prepared.Essence.Outputs[0].Deposit() != 500_000 {
		t.Error("target output missing")
	}
}

func TestBuild_DustRule_IgnoresNonPlain(t *testing.T) {
	// A token-carrying output below the threshold is not a plain output
	// and falls under storage deposit rules, not dust protection.
	withTokens, err := output.NewBasicOutput(500_000,
		[]output.UnlockCondition{output.NewAddressUnlock(testAddr(3))},
		[]output.NativeToken{{ID: output.TokenID{0x01}, Amount: 7}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 1_500_000, testAddr(1))).
		AddTarget(withTokens).
		Build()
	if err != nil {
		t.Fatalf("non-plain sub-threshold target should build: %v", err)
	}
}

func TestBuild_NoTargets(t *testing.T) {
	_, err := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 1_000_000, testAddr(1))).
		Build()
	if !errors.Is(err, ErrNoTargets) {
		t.Errorf("expected ErrNoTargets, got: %v", err)
	}
}

func TestBuild_NoFunding(t *testing.T) {
	_, err := NewBuilder(testAddr(2)).
		AddTarget(plainOutput(t, 1_000_000, testAddr(3))).
		Build()
	if !errors.Is(err, ErrNoFunding) {
		t.Errorf("expected ErrNoFunding, got: %v", err)
	}
}

func TestBuild_NoChangeAddress(t *testing.T) {
	_, err := NewBuilder(types.Address{}).
		AddFunding(funding(t, 0x01, 2_000_000, testAddr(1))).
		AddTarget(plainOutput(t, 1_000_000, testAddr(3))).
		Build()
	if !errors.Is(err, ErrNoChangeAddress) {
		t.Errorf("expected ErrNoChangeAddress, got: %v", err)
	}
}

func TestBuild_DuplicateFunding(t *testing.T) {
	fo := funding(t, 0x01, 1_000_000, testAddr(1))
	_, err := NewBuilder(testAddr(2)).
		AddFunding(fo).
		AddFunding(fo).
		AddTarget(plainOutput(t, 2_000_000, testAddr(3))).
		Build()
	if !errors.Is(err, ErrDuplicateInput) {
		t.Errorf("expected ErrDuplicateInput, got: %v", err)
	}
}

func TestBuild_TooManyInputs(t *testing.T) {
	owner := testAddr(1)
	b := NewBuilder(testAddr(2))
	for i := 0; i < config.MaxTxInputs+1; i++ {
		id := types.NewOutputID(types.TransactionID{byte(i), byte(i >> 8)}, uint16(i))
		b.AddFunding(FundingOutput{ID: id, Output: plainOutput(t, 1_000_000, owner), Address: owner})
	}
	b.AddTarget(plainOutput(t, uint64(config.MaxTxInputs+1)*1_000_000, testAddr(3)))

	_, err := b.Build()
	if !errors.Is(err, ErrTooManyInputs) {
		t.Errorf("expected ErrTooManyInputs, got: %v", err)
	}
}

func TestBuild_TaggedData(t *testing.T) {
	prepared, err := NewBuilder(testAddr(2)).
		AddFunding(funding(t, 0x01, 1_000_000, testAddr(1))).
		AddTarget(plainOutput(t, 1_000_000, testAddr(3))).
		WithTaggedData([]byte("index"), []byte("payload")).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if prepared.Essence.Payload == nil || string(prepared.Essence.Payload.Tag) != "index" {
		t.Error("tagged data payload missing from essence")
	}
}

func TestBuild_Reproducible(t *testing.T) {
	build := func() *Prepared {
		p, err := NewBuilder(testAddr(2)).
			AddFunding(funding(t, 0x01, 5_000_000, testAddr(1))).
			AddFunding(funding(t, 0x02, 5_000_000, testAddr(1))).
			AddTarget(plainOutput(t, 6_000_000, testAddr(3))).
			Build()
		if err != nil {
			t.Fatal(err)
		}
		return p
	}
	a, b := build(), build()
	if a.Essence.Hash() != b.Essence.Hash() {
		t.Error("identical builder state must produce identical essences")
	}
}

func ExampleBuilder() {
	changeAddr := types.NewEd25519Address([32]byte{0x02})
	recipient := types.NewEd25519Address([32]byte{0x03})
	target, _ := output.NewBasicOutput(1_000_000,
		[]output.UnlockCondition{output.NewAddressUnlock(recipient)}, nil, nil)
	owned, _ := output.NewBasicOutput(10_000_000,
		[]output.UnlockCondition{output.NewAddressUnlock(types.NewEd25519Address([32]byte{0x01}))}, nil, nil)

	prepared, _ := NewBuilder(changeAddr).
		AddFunding(FundingOutput{
			ID:     types.NewOutputID(types.TransactionID{0x01}, 0),
			Output: owned,
		}).
		AddTarget(target).
		Build()

	fmt.Println(len(prepared.Essence.Inputs), len(prepared.Essence.Outputs))
	// Output: 1 2
}
