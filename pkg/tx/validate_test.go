package tx

import (
	"errors"
	"testing"

	"github.com/anyong/tangleclient/config"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/types"
)

// validEssence creates a minimal valid essence for testing.
func validEssence(t *testing.T) *Essence {
	t.Helper()
	return &Essence{
		Inputs:  []types.OutputID{types.NewOutputID(types.TransactionID{0x01}, 0)},
		Outputs: []output.Output{plainOutput(t, 1_000_000, testAddr(1))},
	}
}

func TestEssenceValidate_Valid(t *testing.T) {
	if err := validEssence(t).Validate(); err != nil {
		t.Errorf("valid essence should pass: %v", err)
	}
}

func TestEssenceValidate_NoInputs(t *testing.T) {
	e := validEssence(t)
	e.Inputs = nil
	if err := e.Validate(); !errors.Is(err, ErrNoInputs) {
		t.Errorf("expected ErrNoInputs, got: %v", err)
	}
}

func TestEssenceValidate_NoOutputs(t *testing.T) {
	e := validEssence(t)
	e.Outputs = nil
	if err := e.Validate(); !errors.Is(err, ErrNoOutputs) {
		t.Errorf("expected ErrNoOutputs, got: %v", err)
	}
}

func TestEssenceValidate_DuplicateInput(t *testing.T) {
	e := validEssence(t)
	e.Inputs = append(e.Inputs, e.Inputs[0])
	if err := e.Validate(); !errors.Is(err, ErrDuplicateInput) {
		t.Errorf("expected ErrDuplicateInput, got: %v", err)
	}
}

func TestEssenceValidate_InputCeiling(t *testing.T) {
	e := validEssence(t)
	e.Inputs = nil
	for i := 0; i <= config.MaxTxInputs; i++ {
		e.Inputs = append(e.Inputs, types.NewOutputID(types.TransactionID{byte(i), byte(i >> 8)}, 0))
	}
	if err := e.Validate(); !errors.Is(err, ErrTooManyInputs) {
		t.Errorf("expected ErrTooManyInputs at %d inputs, got: %v", len(e.Inputs), err)
	}

	// Exactly at the ceiling is fine.
	e.Inputs = e.Inputs[:config.MaxTxInputs]
	if err := e.Validate(); err != nil {
		t.Errorf("%d inputs should validate: %v", config.MaxTxInputs, err)
	}
}

func TestEssenceValidate_OutputCeiling(t *testing.T) {
	e := validEssence(t)
	e.Outputs = nil
	for i := 0; i <= config.MaxTxOutputs; i++ {
		e.Outputs = append(e.Outputs, plainOutput(t, 1_000_000, testAddr(byte(i))))
	}
	if err := e.Validate(); !errors.Is(err, ErrTooManyOutputs) {
		t.Errorf("expected ErrTooManyOutputs at %d outputs, got: %v", len(e.Outputs), err)
	}
}

func TestEssenceValidate_InvalidOutput(t *testing.T) {
	e := validEssence(t)
	e.Outputs = append(e.Outputs, &output.BasicOutput{Amount: 0})
	if err := e.Validate(); !errors.Is(err, output.ErrInvalidOutput) {
		t.Errorf("expected output validation error, got: %v", err)
	}
}

func TestEssenceValidate_Overflow(t *testing.T) {
	e := validEssence(t)
	huge := plainOutput(t, ^uint64(0), testAddr(9))
	e.Outputs = append(e.Outputs, huge)
	if err := e.Validate(); !errors.Is(err, ErrOutputOverflow) {
		t.Errorf("expected ErrOutputOverflow, got: %v", err)
	}
}

func TestEssenceValidate_TagTooLong(t *testing.T) {
	e := validEssence(t)
	e.Payload = &TaggedData{Tag: make([]byte, config.MaxTagLength+1)}
	if err := e.Validate(); !errors.Is(err, ErrTagTooLong) {
		t.Errorf("expected ErrTagTooLong, got: %v", err)
	}
}

func TestEssenceValidate_DataTooLong(t *testing.T) {
	e := validEssence(t)
	e.Payload = &TaggedData{Tag: []byte("t"), Data: make([]byte, config.MaxTaggedDataLength+1)}
	if err := e.Validate(); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("expected ErrDataTooLong, got: %v", err)
	}
}

func TestEssence_Hash_CoversFields(t *testing.T) {
	base := validEssence(t)
	h := base.Hash()

	reordered := validEssence(t)
	reordered.Outputs = append(reordered.Outputs, plainOutput(t, 2_000_000, testAddr(2)))
	if h == reordered.Hash() {
		t.Error("adding an output must change the essence hash")
	}

	tagged := validEssence(t)
	tagged.Payload = &TaggedData{Tag: []byte("t")}
	if h == tagged.Hash() {
		t.Error("attaching a payload must change the essence hash")
	}
}

func TestEssence_JSON_Roundtrip(t *testing.T) {
	e := validEssence(t)
	e.Payload = &TaggedData{Tag: []byte("tag"), Data: []byte("data")}

	data, err := e.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Essence
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Hash() != e.Hash() {
		t.Error("essence hash changed across JSON round-trip")
	}
}
