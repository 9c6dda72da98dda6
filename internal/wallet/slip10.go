package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

// SLIP-10 key derivation for the Ed25519 curve. Hand-rolled over
// HMAC-SHA512: the curve supports hardened derivation only, so every path
// component is hardened and there is no public parent derivation.

// hardenedOffset marks a derivation index as hardened.
const hardenedOffset uint32 = 1 << 31

// ed25519SeedKey is the HMAC key used to derive the master node.
var ed25519SeedKey = []byte("ed25519 seed")

// slip10Node is an extended private key: the scalar seed and chain code.
type slip10Node struct {
	key       [32]byte
	chainCode [32]byte
}

// masterNode derives the SLIP-10 master node from a seed.
func masterNode(seed []byte) slip10Node {
	mac := hmac.New(sha512.New, ed25519SeedKey)
	mac.Write(seed)
	sum := mac.Sum(nil)

	var n slip10Node
	copy(n.key[:], sum[:32])
	copy(n.chainCode[:], sum[32:])
	return n
}

// child derives the hardened child node at the given raw index.
// The index must already carry the hardened offset.
func (n slip10Node) child(index uint32) (slip10Node, error) {
	if index < hardenedOffset {
		return slip10Node{}, fmt.Errorf("ed25519 derivation requires hardened index, got %d", index)
	}

	// data = 0x00 || parent key || ser32(index)
	var data [1 + 32 + 4]byte
	copy(data[1:33], n.key[:])
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, n.chainCode[:])
	mac.Write(data[:])
	sum := mac.Sum(nil)

	var c slip10Node
	copy(c.key[:], sum[:32])
	copy(c.chainCode[:], sum[32:])
	return c, nil
}

// deriveNode walks a sequence of hardened indices from the master node.
func deriveNode(seed []byte, indices ...uint32) (slip10Node, error) {
	node := masterNode(seed)
	for _, idx := range indices {
		child, err := node.child(idx)
		if err != nil {
			return slip10Node{}, err
		}
		node = child
	}
	return node, nil
}
