package output

import (
	"strings"
	"testing"

	"github.com/anyong/tangleclient/pkg/types"
)

func TestMarshalOutput_Roundtrip(t *testing.T) {
	outputs := []Output{
		mustBasic(t),
		mustAlias(t),
		mustFoundry(t),
		mustNft(t),
	}

	for _, o := range outputs {
		data, err := MarshalOutput(o)
		if err != nil {
			t.Fatalf("%v: marshal: %v", o.Kind(), err)
		}
		back, err := UnmarshalOutput(data)
		if err != nil {
			t.Fatalf("%v: unmarshal: %v", o.Kind(), err)
		}
		if back.Kind() != o.Kind() {
			t.Errorf("kind mismatch: got %v, want %v", back.Kind(), o.Kind())
		}
		if string(back.Serialize()) != string(o.Serialize()) {
			t.Errorf("%v: serialized form changed across JSON round-trip", o.Kind())
		}
	}
}

func TestUnmarshalOutput_UnknownKind(t *testing.T) {
	_, err := UnmarshalOutput([]byte(`{"kind":99,"amount":1}`))
	if err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestUnmarshalOutput_InvalidOutput(t *testing.T) {
	// Structurally well-formed JSON, but violates the zero-amount rule.
	data := strings.ReplaceAll(`{"kind":3,"amount":0,"unlockConditions":[{"type":0,"address":"ADDR"}]}`,
		"ADDR", testAddr(1).Hex())
	if _, err := UnmarshalOutput([]byte(data)); err == nil {
		t.Error("invalid output should fail validation on unmarshal")
	}
}

func mustBasic(t *testing.T) *BasicOutput {
	t.Helper()
	o, err := NewBasicOutput(2_000_000, addrConds(1),
		[]NativeToken{{ID: TokenID{0x01}, Amount: 42}},
		[]Feature{NewTagFeature([]byte("hi"))})
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func mustAlias(t *testing.T) *AliasOutput {
	t.Helper()
	o, err := NewAliasOutput(3_000_000, AliasID{0x02}, 5, []byte("state"), 1,
		[]UnlockCondition{NewStateControllerUnlock(testAddr(1)), NewGovernorUnlock(testAddr(2))},
		nil, nil, []Feature{NewIssuerFeature(testAddr(3))})
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func mustFoundry(t *testing.T) *FoundryOutput {
	t.Helper()
	aliasAddr := types.NewAliasAddress([20]byte{0x0a})
	o, err := NewFoundryOutput(1_000_000, 9, validScheme(),
		[]UnlockCondition{NewImmutableAliasUnlock(aliasAddr)}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func mustNft(t *testing.T) *NftOutput {
	t.Helper()
	o, err := NewNftOutput(1_500_000, NftID{0x03}, addrConds(4), nil, nil,
		[]Feature{NewMetadataFeature([]byte("immutable"))})
	if err != nil {
		t.Fatal(err)
	}
	return o
}
