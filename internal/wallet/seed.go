// Package wallet implements seed handling, address derivation and
// funded-address discovery for the Tangle client engine.
package wallet

import (
	"crypto/rand"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of an engine seed in bytes (256 bits).
//
// The seed is the root of all derivation. The engine never stores it; the
// caller owns it for its whole lifetime and passes it into each operation
// that needs it.
const SeedSize = 32

// mnemonicEntropyBits yields 24-word mnemonics.
const mnemonicEntropyBits = 256

// NewSeed generates a random 32-byte seed.
func NewSeed() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate seed: %w", err)
	}
	return seed, nil
}

// GenerateMnemonic creates a fresh 24-word BIP-39 mnemonic from which an
// engine seed can be derived with SeedFromMnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic reports whether the mnemonic passes BIP-39 word list
// and checksum validation.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// SeedFromMnemonic derives the 32-byte engine seed from a mnemonic and
// optional passphrase: the first 32 bytes of the 64-byte PBKDF2-SHA512
// output specified by BIP-39.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	full, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return full[:SeedSize], nil
}

// Zero overwrites seed material.
func Zero(seed []byte) {
	for i := range seed {
		seed[i] = 0
	}
}
