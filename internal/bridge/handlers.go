package bridge

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/anyong/tangleclient/internal/wallet"
	"github.com/anyong/tangleclient/pkg/crypto"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/tx"
	"github.com/anyong/tangleclient/pkg/types"
)

func (b *Bridge) registerEngineMethods() {
	b.register("generateMnemonic", b.generateMnemonic)
	b.register("mnemonicToSeed", b.mnemonicToSeed)
	b.register("generateAddresses", b.generateAddresses)
	b.register("buildBasicOutput", buildOutputHandler[*output.BasicOutput]())
	b.register("buildAliasOutput", buildOutputHandler[*output.AliasOutput]())
	b.register("buildFoundryOutput", buildOutputHandler[*output.FoundryOutput]())
	b.register("buildNftOutput", buildOutputHandler[*output.NftOutput]())
	b.register("computeOutputId", b.computeOutputID)
	b.register("decodeOutputId", b.decodeOutputID)
	b.register("computeAliasId", b.computeAliasID)
	b.register("computeNftId", b.computeNftID)
	b.register("computeFoundryId", b.computeFoundryID)
	b.register("bech32ToHex", b.bech32ToHex)
	b.register("hexToBech32", b.hexToBech32)
	b.register("buildTransaction", b.buildTransaction)
	b.register("signTransaction", b.signTransaction)
	b.register("verifyTransaction", b.verifyTransaction)
}

// decodeArgs unmarshals the argument object, tagging failures so they map
// to the invalidArguments code instead of an internal error.
func decodeArgs(args json.RawMessage, into interface{}) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, into); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

// seedBytes decodes and validates a hex seed argument.
func seedBytes(s string) ([]byte, error) {
	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: seed is not hex: %v", ErrInvalidArguments, err)
	}
	if len(seed) != wallet.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidArguments, wallet.SeedSize, len(seed))
	}
	return seed, nil
}

func (b *Bridge) generateMnemonic(_ context.Context, _ json.RawMessage) (interface{}, error) {
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		return nil, err
	}
	return map[string]string{"mnemonic": mnemonic}, nil
}

func (b *Bridge) mnemonicToSeed(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Mnemonic   string `json:"mnemonic"`
		Passphrase string `json:"passphrase"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	seed, err := wallet.SeedFromMnemonic(params.Mnemonic, params.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return map[string]string{"seed": hex.EncodeToString(seed)}, nil
}

type generatedAddress struct {
	Index   uint32        `json:"index"`
	Address types.Address `json:"address"`
}

func (b *Bridge) generateAddresses(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Seed    string `json:"seed"`
		Account uint32 `json:"account"`
		Change  uint32 `json:"change"`
		Start   uint32 `json:"start"`
		Count   uint32 `json:"count"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	seed, err := seedBytes(params.Seed)
	if err != nil {
		return nil, err
	}
	defer wallet.Zero(seed)
	if params.Count == 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidArguments)
	}
	addrs, err := wallet.DeriveAddresses(seed, params.Account, params.Change, params.Start, params.Count)
	if err != nil {
		return nil, err
	}
	result := make([]generatedAddress, len(addrs))
	for i, addr := range addrs {
		result[i] = generatedAddress{Index: params.Start + uint32(i), Address: addr}
	}
	return map[string]interface{}{"addresses": result}, nil
}

// isNullArgs reports whether the raw arguments are absent or the JSON
// null literal. Unmarshaling null into a pointer target is a no-op, so
// handlers decoding into pointers must reject it up front.
func isNullArgs(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// buildOutputHandler decodes the argument object as one concrete output
// variant, validates it and echoes back the canonical kind-tagged JSON.
func buildOutputHandler[T output.Output]() Handler {
	return func(_ context.Context, args json.RawMessage) (interface{}, error) {
		if isNullArgs(args) {
			return nil, fmt.Errorf("%w: missing output fields", ErrInvalidArguments)
		}
		var out T
		if err := decodeArgs(args, &out); err != nil {
			return nil, err
		}
		if err := out.Validate(); err != nil {
			return nil, err
		}
		encoded, err := output.MarshalOutput(out)
		if err != nil {
			return nil, err
		}
		return map[string]json.RawMessage{"output": encoded}, nil
	}
}

func (b *Bridge) computeOutputID(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		TransactionID types.TransactionID `json:"transactionId"`
		Index         uint16              `json:"index"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	id := output.ComputeOutputID(params.TransactionID, params.Index)
	return map[string]string{"outputId": id.String()}, nil
}

func (b *Bridge) decodeOutputID(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		OutputID types.OutputID `json:"outputId"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"transactionId": params.OutputID.TransactionID,
		"index":         params.OutputID.Index,
	}, nil
}

func (b *Bridge) computeAliasID(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		OutputID types.OutputID `json:"outputId"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	id := output.ComputeAliasID(params.OutputID)
	return map[string]interface{}{"aliasId": id, "address": id.Address()}, nil
}

func (b *Bridge) computeNftID(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		OutputID types.OutputID `json:"outputId"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	id := output.ComputeNftID(params.OutputID)
	return map[string]interface{}{"nftId": id, "address": id.Address()}, nil
}

func (b *Bridge) computeFoundryID(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		AliasAddress    types.Address `json:"aliasAddress"`
		SerialNumber    uint32        `json:"serialNumber"`
		TokenSchemeType uint8         `json:"tokenSchemeType"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	if params.AliasAddress.Type != types.AddressAlias {
		return nil, fmt.Errorf("%w: foundry controller must be an alias address", ErrInvalidArguments)
	}
	id := output.ComputeFoundryID(params.AliasAddress, params.SerialNumber, params.TokenSchemeType)
	return map[string]interface{}{"foundryId": id, "tokenId": id.TokenID()}, nil
}

func (b *Bridge) bech32ToHex(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Bech32 string `json:"bech32"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	addr, err := types.ParseBech32Address(params.Bech32, types.GetAddressHRP())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return map[string]string{"hex": addr.Hex()}, nil
}

func (b *Bridge) hexToBech32(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Hex string `json:"hex"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	addr, err := types.ParseAddress(params.Hex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	bech, err := addr.Bech32(types.GetAddressHRP())
	if err != nil {
		return nil, err
	}
	return map[string]string{"bech32": bech}, nil
}

// fundingJSON is the wire form of a spendable input: the output itself is
// kind-tagged JSON so all four variants travel through the same field.
type fundingJSON struct {
	ID      types.OutputID  `json:"id"`
	Output  json.RawMessage `json:"output"`
	Address types.Address   `json:"address"`
}

func (b *Bridge) buildTransaction(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		ChangeAddress types.Address     `json:"changeAddress"`
		Funding       []fundingJSON     `json:"funding"`
		Targets       []json.RawMessage `json:"targets"`
		KnownBalances map[string]uint64 `json:"knownBalances"`
		Tag           types.HexBytes    `json:"tag"`
		Data          types.HexBytes    `json:"data"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}

	builder := tx.NewBuilder(params.ChangeAddress)
	for i, f := range params.Funding {
		out, err := output.UnmarshalOutput(f.Output)
		if err != nil {
			return nil, fmt.Errorf("%w: funding output %d: %v", ErrInvalidArguments, i, err)
		}
		builder.AddFunding(tx.FundingOutput{ID: f.ID, Output: out, Address: f.Address})
	}
	for i, raw := range params.Targets {
		out, err := output.UnmarshalOutput(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: target output %d: %v", ErrInvalidArguments, i, err)
		}
		builder.AddTarget(out)
	}
	if len(params.KnownBalances) > 0 {
		balances := make(map[types.Address]uint64, len(params.KnownBalances))
		for s, amount := range params.KnownBalances {
			addr, err := types.ParseAddress(s)
			if err != nil {
				return nil, fmt.Errorf("%w: known balance address %q: %v", ErrInvalidArguments, s, err)
			}
			balances[addr] = amount
		}
		builder.WithKnownBalance(func(addr types.Address) uint64 { return balances[addr] })
	}
	if len(params.Tag) > 0 || len(params.Data) > 0 {
		builder.WithTaggedData(params.Tag, params.Data)
	}

	prepared, err := builder.Build()
	if err != nil {
		return nil, err
	}

	inputs := make([]fundingJSON, len(prepared.Inputs))
	for i, in := range prepared.Inputs {
		encoded, err := output.MarshalOutput(in.Output)
		if err != nil {
			return nil, err
		}
		inputs[i] = fundingJSON{ID: in.ID, Output: encoded, Address: in.Address}
	}
	return map[string]interface{}{
		"essence": prepared.Essence,
		"inputs":  inputs,
	}, nil
}

func (b *Bridge) signTransaction(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Seed    string       `json:"seed"`
		Essence *tx.Essence  `json:"essence"`
		Inputs  []inputOwner `json:"inputs"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	if params.Essence == nil {
		return nil, fmt.Errorf("%w: missing essence", ErrInvalidArguments)
	}
	seed, err := seedBytes(params.Seed)
	if err != nil {
		return nil, err
	}
	defer wallet.Zero(seed)

	ownership := make(map[types.OutputID]*crypto.KeyPair, len(params.Inputs))
	defer func() {
		for _, kp := range ownership {
			kp.Zero()
		}
	}()
	for _, in := range params.Inputs {
		kp, _, derr := wallet.Derive(seed, in.Path)
		if derr != nil {
			return nil, derr
		}
		ownership[in.OutputID] = kp
	}

	payload, err := tx.SignPayload(params.Essence, ownership)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"transactionId": payload.ID(),
		"payload":       payload,
	}, nil
}

// inputOwner names the derivation path that controls one consumed output.
type inputOwner struct {
	OutputID types.OutputID `json:"outputId"`
	Path     wallet.Path    `json:"path"`
}

func (b *Bridge) verifyTransaction(_ context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Payload *tx.Payload `json:"payload"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	if params.Payload == nil {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidArguments)
	}
	if err := params.Payload.Verify(); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"valid":         true,
		"transactionId": params.Payload.ID(),
	}, nil
}
