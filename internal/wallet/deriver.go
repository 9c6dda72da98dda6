package wallet

import (
	"errors"
	"fmt"

	"github.com/anyong/tangleclient/config"
	"github.com/anyong/tangleclient/pkg/crypto"
	"github.com/anyong/tangleclient/pkg/types"
)

// BIP-44 derivation path constants.
// Full path: m/44'/4218'/account'/change'/index'
const (
	// PurposeBIP44 is the BIP-44 purpose field.
	PurposeBIP44 = 44

	// ChangeExternal is for receiving addresses.
	ChangeExternal = 0

	// ChangeInternal is for change addresses.
	ChangeInternal = 1
)

// ErrInvalidPath marks a derivation path component outside the range the
// curve derivation accepts.
var ErrInvalidPath = errors.New("invalid derivation path")

// Path is a BIP-44 derivation path below the fixed purpose and coin type.
type Path struct {
	Account uint32 `json:"account"`
	Change  uint32 `json:"change"`
	Index   uint32 `json:"index"`
}

// String returns the full path in BIP-44 notation.
func (p Path) String() string {
	return fmt.Sprintf("m/44'/%d'/%d'/%d'/%d'", config.CoinType, p.Account, p.Change, p.Index)
}

// Validate checks each component fits hardened Ed25519 derivation.
func (p Path) Validate() error {
	if p.Change != ChangeExternal && p.Change != ChangeInternal {
		return fmt.Errorf("%w: change must be 0 or 1, got %d", ErrInvalidPath, p.Change)
	}
	for _, c := range []uint32{p.Account, p.Index} {
		if c >= hardenedOffset {
			return fmt.Errorf("%w: component %d out of range", ErrInvalidPath, c)
		}
	}
	return nil
}

// Derive computes the key pair and address at the given path. Pure
// function of its inputs: identical seed and path always yield identical
// output. No I/O.
func Derive(seed []byte, path Path) (*crypto.KeyPair, types.Address, error) {
	if len(seed) != SeedSize {
		return nil, types.Address{}, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	if err := path.Validate(); err != nil {
		return nil, types.Address{}, err
	}

	node, err := deriveNode(seed,
		hardenedOffset|PurposeBIP44,
		hardenedOffset|config.CoinType,
		hardenedOffset|path.Account,
		hardenedOffset|path.Change,
		hardenedOffset|path.Index,
	)
	if err != nil {
		return nil, types.Address{}, fmt.Errorf("derive %s: %w", path, err)
	}

	kp, err := crypto.KeyPairFromSeed(node.key[:])
	if err != nil {
		return nil, types.Address{}, fmt.Errorf("derive %s: %w", path, err)
	}
	return kp, kp.Address(), nil
}

// DeriveAddresses derives count consecutive addresses on one branch
// starting at startIndex.
func DeriveAddresses(seed []byte, account, change, startIndex, count uint32) ([]types.Address, error) {
	addrs := make([]types.Address, 0, count)
	for i := uint32(0); i < count; i++ {
		_, addr, err := Derive(seed, Path{Account: account, Change: change, Index: startIndex + i})
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
