package tx

import (
	"errors"
	"fmt"

	"github.com/anyong/tangleclient/pkg/crypto"
	"github.com/anyong/tangleclient/pkg/types"
)

// Signer errors.
var (
	ErrMissingKey       = errors.New("no key for input")
	ErrUnlockCount      = errors.New("unlock block count does not match input count")
	ErrInvalidReference = errors.New("invalid reference unlock block")
	ErrInvalidSig       = errors.New("invalid signature")
)

// Sign produces the unlock blocks for an essence, one per input in input
// order. The signature covers the essence hash once per distinct
// controlling address; later inputs controlled by the same address emit a
// Reference block pointing at the first Signature index. This collapsing
// is a protocol rule: a payload that re-signs duplicate addresses is
// rejected by the network.
func Sign(essence *Essence, ownership map[types.OutputID]*crypto.KeyPair) ([]UnlockBlock, error) {
	hash := essence.Hash()

	blocks := make([]UnlockBlock, 0, len(essence.Inputs))
	sigIndex := make(map[types.Address]uint16, len(essence.Inputs))
	for i, in := range essence.Inputs {
		kp, ok := ownership[in]
		if !ok || kp == nil {
			return nil, fmt.Errorf("input %d (%s): %w", i, in, ErrMissingKey)
		}
		addr := kp.Address()
		if ref, signed := sigIndex[addr]; signed {
			blocks = append(blocks, UnlockBlock{Type: UnlockReference, Reference: ref})
			continue
		}
		blocks = append(blocks, UnlockBlock{
			Type:      UnlockSignature,
			PublicKey: kp.PublicKey(),
			Signature: kp.Sign(hash[:]),
		})
		sigIndex[addr] = uint16(i)
	}
	return blocks, nil
}

// SignPayload signs an essence and wraps it into a submittable payload.
func SignPayload(essence *Essence, ownership map[types.OutputID]*crypto.KeyPair) (*Payload, error) {
	blocks, err := Sign(essence, ownership)
	if err != nil {
		return nil, err
	}
	return &Payload{Essence: essence, UnlockBlocks: blocks}, nil
}

// Verify re-checks a signed payload locally before submission: one unlock
// block per input, references forward-only to Signature blocks, and every
// signature valid over the essence hash.
func (p *Payload) Verify() error {
	if len(p.UnlockBlocks) != len(p.Essence.Inputs) {
		return fmt.Errorf("%w: %d blocks, %d inputs", ErrUnlockCount, len(p.UnlockBlocks), len(p.Essence.Inputs))
	}
	hash := p.Essence.Hash()
	for i, u := range p.UnlockBlocks {
		switch u.Type {
		case UnlockSignature:
			if !crypto.VerifySignature(u.PublicKey, hash[:], u.Signature) {
				return fmt.Errorf("unlock block %d: %w", i, ErrInvalidSig)
			}
		case UnlockReference:
			if int(u.Reference) >= i {
				return fmt.Errorf("unlock block %d: %w: reference %d not earlier", i, ErrInvalidReference, u.Reference)
			}
			if p.UnlockBlocks[u.Reference].Type != UnlockSignature {
				return fmt.Errorf("unlock block %d: %w: target %d is not a signature", i, ErrInvalidReference, u.Reference)
			}
		default:
			return fmt.Errorf("unlock block %d: %w: unknown type %d", i, ErrInvalidReference, u.Type)
		}
	}
	return nil
}
