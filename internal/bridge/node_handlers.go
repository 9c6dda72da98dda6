package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anyong/tangleclient/internal/wallet"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/tx"
	"github.com/anyong/tangleclient/pkg/types"
)

func (b *Bridge) registerNodeMethods() {
	b.register("getBalance", b.requireNode(b.getBalance))
	b.register("getAddressBalance", b.requireNode(b.getAddressBalance))
	b.register("getOutput", b.requireNode(b.getOutput))
	b.register("getOutputsForAddress", b.requireNode(b.getOutputsForAddress))
	b.register("submitPayload", b.requireNode(b.submitPayload))
	b.register("getMilestone", b.requireNode(b.getMilestone))
	b.register("getUtxoChanges", b.requireNode(b.getUtxoChanges))
}

// requireNode guards methods that need network access so an offline
// bridge fails them with a distinct code instead of a nil dereference.
func (b *Bridge) requireNode(h Handler) Handler {
	return func(ctx context.Context, args json.RawMessage) (interface{}, error) {
		if b.node == nil {
			return nil, ErrNoNodeClient
		}
		return h(ctx, args)
	}
}

type scannedBalance struct {
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

func (b *Bridge) getBalance(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Seed       string `json:"seed"`
		Account    uint32 `json:"account"`
		StartIndex uint32 `json:"startIndex"`
		GapLimit   uint32 `json:"gapLimit"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	seed, err := seedBytes(params.Seed)
	if err != nil {
		return nil, err
	}
	defer wallet.Zero(seed)

	scanner := wallet.NewScanner(b.node, b.scanConc)
	result, err := scanner.Scan(ctx, seed, params.Account, params.StartIndex, params.GapLimit)
	if err != nil {
		return nil, err
	}
	balances := make([]scannedBalance, 0, len(result.Balances))
	for addr, amount := range result.Balances {
		balances = append(balances, scannedBalance{Address: addr, Balance: amount})
	}
	return map[string]interface{}{
		"total":        result.Total,
		"balances":     balances,
		"lastExternal": result.LastExternal,
		"lastInternal": result.LastInternal,
	}, nil
}

func (b *Bridge) getAddressBalance(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Address types.Address `json:"address"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	balance, err := b.node.Balance(ctx, params.Address)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"address": params.Address, "balance": balance}, nil
}

func (b *Bridge) getOutput(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		OutputID types.OutputID `json:"outputId"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	out, err := b.node.Output(ctx, params.OutputID)
	if err != nil {
		return nil, err
	}
	encoded, err := output.MarshalOutput(out)
	if err != nil {
		return nil, err
	}
	return map[string]json.RawMessage{"output": encoded}, nil
}

func (b *Bridge) getOutputsForAddress(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Address types.Address `json:"address"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	ids, err := b.node.OutputsForAddress(ctx, params.Address)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"outputIds": ids}, nil
}

func (b *Bridge) submitPayload(ctx context.Context, args json.RawMessage) (interface{}, error) {
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
	messageID, err := b.node.SubmitPayload(ctx, params.Payload)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"messageId":     messageID,
		"transactionId": params.Payload.ID(),
	}, nil
}

func (b *Bridge) getMilestone(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Index *uint32     `json:"index"`
		ID    *types.Hash `json:"id"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	switch {
	case params.Index != nil:
		return b.node.MilestoneByIndex(ctx, *params.Index)
	case params.ID != nil:
		return b.node.MilestoneByID(ctx, *params.ID)
	default:
		return nil, fmt.Errorf("%w: either index or id is required", ErrInvalidArguments)
	}
}

func (b *Bridge) getUtxoChanges(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var params struct {
		Index *uint32     `json:"index"`
		ID    *types.Hash `json:"id"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	switch {
	case params.Index != nil:
		return b.node.UtxoChangesByIndex(ctx, *params.Index)
	case params.ID != nil:
		return b.node.UtxoChangesByID(ctx, *params.ID)
	default:
		return nil, fmt.Errorf("%w: either index or id is required", ErrInvalidArguments)
	}
}
