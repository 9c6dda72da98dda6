package crypto

import (
	"crypto/ed25519"
	"fmt"

	"github.com/anyong/tangleclient/pkg/types"
)

// Ed25519 key and signature sizes in bytes.
const (
	PrivateKeySeedSize = ed25519.SeedSize
	PublicKeySize      = ed25519.PublicKeySize
	SignatureSize      = ed25519.SignatureSize
)

// KeyPair wraps an Ed25519 private key for signing.
type KeyPair struct {
	priv ed25519.PrivateKey
}

// KeyPairFromSeed creates a key pair from a 32-byte private key seed.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != PrivateKeySeedSize {
		return nil, fmt.Errorf("private key seed must be %d bytes, got %d", PrivateKeySeedSize, len(seed))
	}
	return &KeyPair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// Sign produces an Ed25519 signature over the message.
func (kp *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(kp.priv, msg)
}

// PublicKey returns the 32-byte public key.
func (kp *KeyPair) PublicKey() []byte {
	return []byte(kp.priv.Public().(ed25519.PublicKey))
}

// Address derives the ledger address controlled by this key pair.
func (kp *KeyPair) Address() types.Address {
	return AddressFromPubKey(kp.PublicKey())
}

// Zero overwrites the private key material.
func (kp *KeyPair) Zero() {
	for i := range kp.priv {
		kp.priv[i] = 0
	}
}

// VerifySignature checks an Ed25519 signature against a message and
// public key. Returns false on any error.
func VerifySignature(pubKey, msg, sig []byte) bool {
	if len(pubKey) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), msg, sig)
}
