package bridge

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/anyong/tangleclient/internal/wallet"
	"github.com/anyong/tangleclient/pkg/tx"
	"github.com/anyong/tangleclient/pkg/types"
)

func offlineBridge() *Bridge {
	return New(nil, 1)
}

// call dispatches a method and decodes a success payload into result.
func call(t *testing.T, b *Bridge, method string, args interface{}, result interface{}) {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatal(err)
	}
	resp := b.Call(context.Background(), method, raw)
	if resp.Type != TypeSuccess {
		t.Fatalf("%s failed: %s", method, resp.Payload)
	}
	if result != nil {
		if err := json.Unmarshal(resp.Payload, result); err != nil {
			t.Fatalf("%s: decode payload: %v", method, err)
		}
	}
}

// callErr dispatches a method and returns the error payload.
func callErr(t *testing.T, b *Bridge, method string, args interface{}) ErrorPayload {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatal(err)
	}
	resp := b.Call(context.Background(), method, raw)
	if resp.Type != TypeError {
		t.Fatalf("%s should fail, got success: %s", method, resp.Payload)
	}
	var ep ErrorPayload
	if err := json.Unmarshal(resp.Payload, &ep); err != nil {
		t.Fatal(err)
	}
	return ep
}

func testSeedHex() string {
	seed := make([]byte, wallet.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return hex.EncodeToString(seed)
}

func TestDispatch_UnknownCommand(t *testing.T) {
	resp := offlineBridge().Dispatch(context.Background(), []byte(`{"method":"noSuchThing"}`))
	if resp.Type != TypeError {
		t.Fatal("unknown method must fail")
	}
	var ep ErrorPayload
	json.Unmarshal(resp.Payload, &ep)
	if ep.Code != CodeUnknownCommand {
		t.Errorf("code = %s, want %s", ep.Code, CodeUnknownCommand)
	}
}

func TestDispatch_InvalidCommandJSON(t *testing.T) {
	resp := offlineBridge().Dispatch(context.Background(), []byte(`{not json`))
	var ep ErrorPayload
	json.Unmarshal(resp.Payload, &ep)
	if ep.Code != CodeInvalidArguments {
		t.Errorf("code = %s, want %s", ep.Code, CodeInvalidArguments)
	}
}

func TestDispatch_InvalidArguments(t *testing.T) {
	b := offlineBridge()
	ep := callErr(t, b, "generateAddresses", map[string]interface{}{
		"seed": "zz", "count": 1,
	})
	if ep.Code != CodeInvalidArguments {
		t.Errorf("code = %s, want %s", ep.Code, CodeInvalidArguments)
	}
}

func TestDispatch_NullArgs(t *testing.T) {
	b := offlineBridge()
	for _, method := range []string{
		"buildBasicOutput", "buildAliasOutput", "buildFoundryOutput", "buildNftOutput",
	} {
		resp := b.Dispatch(context.Background(), []byte(`{"method":"`+method+`","args":null}`))
		if resp.Type != TypeError {
			t.Fatalf("%s with null args must fail, got success: %s", method, resp.Payload)
		}
		var ep ErrorPayload
		json.Unmarshal(resp.Payload, &ep)
		if ep.Code != CodeInvalidArguments {
			t.Errorf("%s: code = %s, want %s", method, ep.Code, CodeInvalidArguments)
		}
	}
}

func TestCall_HandlerPanicBecomesInternalError(t *testing.T) {
	b := offlineBridge()
	b.register("boom", func(context.Context, json.RawMessage) (interface{}, error) {
		panic("boom")
	})
	resp := b.Call(context.Background(), "boom", nil)
	if resp.Type != TypeError {
		t.Fatal("panicking handler must yield an error response")
	}
	var ep ErrorPayload
	json.Unmarshal(resp.Payload, &ep)
	if ep.Code != CodeInternalError {
		t.Errorf("code = %s, want %s", ep.Code, CodeInternalError)
	}
}

func TestGenerateAddresses(t *testing.T) {
	b := offlineBridge()
	var result struct {
		Addresses []struct {
			Index   uint32        `json:"index"`
			Address types.Address `json:"address"`
		} `json:"addresses"`
	}
	call(t, b, "generateAddresses", map[string]interface{}{
		"seed": testSeedHex(), "account": 0, "change": 0, "start": 3, "count": 2,
	}, &result)

	if len(result.Addresses) != 2 {
		t.Fatalf("addresses = %d, want 2", len(result.Addresses))
	}
	if result.Addresses[0].Index != 3 || result.Addresses[1].Index != 4 {
		t.Error("indices must continue from start")
	}

	// Bridge output must agree with direct derivation.
	seed, _ := hex.DecodeString(testSeedHex())
	_, want, err := wallet.Derive(seed, wallet.Path{Account: 0, Change: 0, Index: 3})
	if err != nil {
		t.Fatal(err)
	}
	if result.Addresses[0].Address != want {
		t.Error("bridge and direct derivation disagree")
	}
}

func TestGenerateMnemonic_MnemonicToSeed(t *testing.T) {
	b := offlineBridge()
	var gen struct {
		Mnemonic string `json:"mnemonic"`
	}
	call(t, b, "generateMnemonic", nil, &gen)
	if gen.Mnemonic == "" {
		t.Fatal("empty mnemonic")
	}

	var seed struct {
		Seed string `json:"seed"`
	}
	call(t, b, "mnemonicToSeed", map[string]string{"mnemonic": gen.Mnemonic}, &seed)
	if len(seed.Seed) != wallet.SeedSize*2 {
		t.Errorf("seed hex length = %d, want %d", len(seed.Seed), wallet.SeedSize*2)
	}

	ep := callErr(t, b, "mnemonicToSeed", map[string]string{"mnemonic": "bogus words"})
	if ep.Code != CodeInvalidArguments {
		t.Errorf("code = %s, want %s", ep.Code, CodeInvalidArguments)
	}
}

func TestComputeOutputId_Decode_Roundtrip(t *testing.T) {
	b := offlineBridge()
	txID := types.TransactionID{0x01, 0x02}

	var computed struct {
		OutputID string `json:"outputId"`
	}
	call(t, b, "computeOutputId", map[string]interface{}{
		"transactionId": txID, "index": 7,
	}, &computed)
	if len(computed.OutputID) != 68 {
		t.Fatalf("output id length = %d, want 68", len(computed.OutputID))
	}

	var decoded struct {
		TransactionID types.TransactionID `json:"transactionId"`
		Index         uint16              `json:"index"`
	}
	call(t, b, "decodeOutputId", map[string]string{"outputId": computed.OutputID}, &decoded)
	if decoded.TransactionID != txID || decoded.Index != 7 {
		t.Error("decode must invert compute")
	}
}

func TestComputeIds(t *testing.T) {
	b := offlineBridge()
	outputID := types.NewOutputID(types.TransactionID{0xaa}, 0).String()

	var alias struct {
		AliasID string `json:"aliasId"`
	}
	call(t, b, "computeAliasId", map[string]string{"outputId": outputID}, &alias)
	if len(alias.AliasID) != 40 {
		t.Errorf("alias id hex length = %d, want 40", len(alias.AliasID))
	}

	var nft struct {
		NftID string `json:"nftId"`
	}
	call(t, b, "computeNftId", map[string]string{"outputId": outputID}, &nft)
	if nft.NftID != alias.AliasID {
		t.Error("nft and alias ids share the derivation over the output id")
	}

	aliasAddr := types.NewAliasAddress([20]byte{0x0b})
	var foundry struct {
		FoundryID string `json:"foundryId"`
		TokenID   string `json:"tokenId"`
	}
	call(t, b, "computeFoundryId", map[string]interface{}{
		"aliasAddress": aliasAddr, "serialNumber": 1, "tokenSchemeType": 0,
	}, &foundry)
	if foundry.FoundryID != foundry.TokenID {
		t.Error("token id is the foundry id")
	}

	ep := callErr(t, b, "computeFoundryId", map[string]interface{}{
		"aliasAddress": types.NewEd25519Address([32]byte{0x01}), "serialNumber": 1,
	})
	if ep.Code != CodeInvalidArguments {
		t.Errorf("non-alias controller: code = %s, want %s", ep.Code, CodeInvalidArguments)
	}
}

func TestBech32HexConversion(t *testing.T) {
	b := offlineBridge()
	addr := types.NewEd25519Address([32]byte{0x05})

	var toHex struct {
		Hex string `json:"hex"`
	}
	call(t, b, "bech32ToHex", map[string]string{"bech32": addr.String()}, &toHex)
	if toHex.Hex != addr.Hex() {
		t.Errorf("hex = %s, want %s", toHex.Hex, addr.Hex())
	}

	var toBech struct {
		Bech32 string `json:"bech32"`
	}
	call(t, b, "hexToBech32", map[string]string{"hex": toHex.Hex}, &toBech)
	if toBech.Bech32 != addr.String() {
		t.Errorf("bech32 = %s, want %s", toBech.Bech32, addr.String())
	}
}

func TestBuildOutput(t *testing.T) {
	b := offlineBridge()
	addr := types.NewEd25519Address([32]byte{0x03})

	args := map[string]interface{}{
		"amount": 1_000_000,
		"unlockConditions": []map[string]interface{}{
			{"type": 0, "address": addr},
		},
	}
	var result struct {
		Output json.RawMessage `json:"output"`
	}
	call(t, b, "buildBasicOutput", args, &result)

	var kindProbe struct {
		Kind int `json:"kind"`
	}
	if err := json.Unmarshal(result.Output, &kindProbe); err != nil || kindProbe.Kind != 3 {
		t.Errorf("built output must carry kind 3, got %d (%v)", kindProbe.Kind, err)
	}

	// Validation failures surface as invalidOutput, not internal errors.
	ep := callErr(t, b, "buildBasicOutput", map[string]interface{}{"amount": 0})
	if ep.Code != "invalidOutput" {
		t.Errorf("code = %s, want invalidOutput", ep.Code)
	}
}

func TestBuildSignVerify_Flow(t *testing.T) {
	b := offlineBridge()

	seedHex := testSeedHex()
	seed, _ := hex.DecodeString(seedHex)
	ownerPath := wallet.Path{Account: 0, Change: 0, Index: 0}
	_, owner, err := wallet.Derive(seed, ownerPath)
	if err != nil {
		t.Fatal(err)
	}
	changeAddr := types.NewEd25519Address([32]byte{0x0c})
	recipient := types.NewEd25519Address([32]byte{0x0d})
	inputID := types.NewOutputID(types.TransactionID{0xff}, 1)

	ownedOutput := map[string]interface{}{
		"kind": 3, "amount": 10_000_000,
		"unlockConditions": []map[string]interface{}{{"type": 0, "address": owner}},
	}
	targetOutput := map[string]interface{}{
		"kind": 3, "amount": 1_000_000,
		"unlockConditions": []map[string]interface{}{{"type": 0, "address": recipient}},
	}

	var built struct {
		Essence json.RawMessage `json:"essence"`
		Inputs  []fundingJSON   `json:"inputs"`
	}
	call(t, b, "buildTransaction", map[string]interface{}{
		"changeAddress": changeAddr,
		"funding": []map[string]interface{}{
			{"id": inputID, "output": ownedOutput, "address": owner},
		},
		"targets": []interface{}{targetOutput},
	}, &built)

	if len(built.Inputs) != 1 {
		t.Fatalf("inputs = %d, want 1", len(built.Inputs))
	}
	var essence tx.Essence
	if err := json.Unmarshal(built.Essence, &essence); err != nil {
		t.Fatalf("decode essence: %v", err)
	}
	if len(essence.Outputs) != 2 {
		t.Fatalf("outputs = %d, want target + change", len(essence.Outputs))
	}

	var signed struct {
		TransactionID types.TransactionID `json:"transactionId"`
		Payload       json.RawMessage     `json:"payload"`
	}
	call(t, b, "signTransaction", map[string]interface{}{
		"seed":    seedHex,
		"essence": json.RawMessage(built.Essence),
		"inputs": []map[string]interface{}{
			{"outputId": inputID, "path": ownerPath},
		},
	}, &signed)
	if signed.TransactionID.IsZero() {
		t.Error("transaction id must be set")
	}

	var verified struct {
		Valid bool `json:"valid"`
	}
	call(t, b, "verifyTransaction", map[string]interface{}{
		"payload": json.RawMessage(signed.Payload),
	}, &verified)
	if !verified.Valid {
		t.Error("signed payload must verify")
	}
}

func TestBuildTransaction_DomainErrorCodes(t *testing.T) {
	b := offlineBridge()
	owner := types.NewEd25519Address([32]byte{0x01})
	recipient := types.NewEd25519Address([32]byte{0x0d})
	inputID := types.NewOutputID(types.TransactionID{0x01}, 0)

	mkOutput := func(amount uint64, addr types.Address) map[string]interface{} {
		return map[string]interface{}{
			"kind": 3, "amount": amount,
			"unlockConditions": []map[string]interface{}{{"type": 0, "address": addr}},
		}
	}
	args := func(fundingAmount, targetAmount uint64) map[string]interface{} {
		return map[string]interface{}{
			"changeAddress": types.NewEd25519Address([32]byte{0x0c}),
			"funding": []map[string]interface{}{
				{"id": inputID, "output": mkOutput(fundingAmount, owner), "address": owner},
			},
			"targets": []interface{}{mkOutput(targetAmount, recipient)},
		}
	}

	if ep := callErr(t, b, "buildTransaction", args(1_000_000, 5_000_000)); ep.Code != "insufficientFunds" {
		t.Errorf("code = %s, want insufficientFunds", ep.Code)
	}
	if ep := callErr(t, b, "buildTransaction", args(2_000_000, 1_500_000)); ep.Code != "insufficientFundsForChange" {
		t.Errorf("code = %s, want insufficientFundsForChange", ep.Code)
	}
	if ep := callErr(t, b, "buildTransaction", args(10_000_000, 500_000)); ep.Code != "dustProtectionViolation" {
		t.Errorf("code = %s, want dustProtectionViolation", ep.Code)
	}
}

func TestNodeMethods_RequireClient(t *testing.T) {
	b := offlineBridge()
	for _, method := range []string{"getBalance", "getOutput", "submitPayload", "getMilestone"} {
		resp := b.Call(context.Background(), method, json.RawMessage(`{}`))
		if resp.Type != TypeError {
			t.Errorf("%s without node client should fail", method)
			continue
		}
		var ep ErrorPayload
		json.Unmarshal(resp.Payload, &ep)
		if ep.Code != "noNodeClient" {
			t.Errorf("%s: code = %s, want noNodeClient", method, ep.Code)
		}
	}
}

func TestMethods_Registry(t *testing.T) {
	methods := offlineBridge().Methods()
	want := map[string]bool{
		"generateAddresses": false, "buildTransaction": false,
		"signTransaction": false, "verifyTransaction": false,
		"getBalance": false, "submitPayload": false,
	}
	for _, m := range methods {
		if _, ok := want[m]; ok {
			want[m] = true
		}
	}
	for m, seen := range want {
		if !seen {
			t.Errorf("method %s missing from registry", m)
		}
	}
}

func ExampleBridge_Dispatch() {
	b := New(nil, 1)
	resp := b.Dispatch(context.Background(), []byte(`{"method":"computeOutputId","args":{"transactionId":"0000000000000000000000000000000000000000000000000000000000000000","index":0}}`))
	fmt.Println(resp.Type)
	// Output: success
}
