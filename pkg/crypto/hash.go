// Package crypto provides the hash and signature primitives of the Tangle.
package crypto

import (
	"github.com/anyong/tangleclient/pkg/types"
	"golang.org/x/crypto/blake2b"
)

// Digest160Size is the length of a truncated BLAKE2b-160 digest.
const Digest160Size = 20

// Blake2b256 computes a BLAKE2b-256 hash of the input data.
func Blake2b256(data []byte) types.Hash {
	return blake2b.Sum256(data)
}

// Blake2b160 computes a BLAKE2b-160 hash of the input data.
// This is the fixed rule for deriving alias, foundry and NFT identifiers;
// it must stay bit-exact for interoperability with existing ledger state.
func Blake2b160(data []byte) [Digest160Size]byte {
	h, err := blake2b.New(Digest160Size, nil)
	if err != nil {
		// Only fails for invalid digest sizes; 20 is valid.
		panic(err)
	}
	h.Write(data)
	var out [Digest160Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// AddressFromPubKey derives an Ed25519 ledger address from a public key.
// Address payload = BLAKE2b-256(pubkey).
func AddressFromPubKey(pubKey []byte) types.Address {
	return types.NewEd25519Address(blake2b.Sum256(pubKey))
}
