package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// vaultFile is the on-disk JSON format for an encrypted seed.
type vaultFile struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	EncryptedSeed []byte    `json:"encrypted_seed"`
}

// Vault stores password-encrypted seeds on disk. The engine itself never
// persists a seed; the vault is an optional convenience for CLI callers
// that do not want to retype a mnemonic.
type Vault struct {
	path string
}

// NewVault creates a vault that reads/writes to the given directory.
// The directory is created if it doesn't exist.
func NewVault(path string) (*Vault, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	return &Vault{path: path}, nil
}

func (v *Vault) seedPath(name string) string {
	return filepath.Join(v.path, name+".vault")
}

// Create encrypts and stores a seed under a name.
func (v *Vault) Create(name string, seed, password []byte, params EncryptionParams) error {
	path := v.seedPath(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("vault entry %q already exists", name)
	}

	encrypted, err := EncryptSeed(seed, password, params)
	if err != nil {
		return fmt.Errorf("encrypt seed: %w", err)
	}

	vf := vaultFile{
		Version:       1,
		CreatedAt:     time.Now().UTC(),
		EncryptedSeed: encrypted,
	}
	data, err := json.MarshalIndent(&vf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vault entry: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write vault entry: %w", err)
	}
	return nil
}

// Load decrypts a stored seed.
func (v *Vault) Load(name string, password []byte) ([]byte, error) {
	data, err := os.ReadFile(v.seedPath(name))
	if err != nil {
		return nil, fmt.Errorf("read vault entry: %w", err)
	}
	var vf vaultFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse vault entry: %w", err)
	}
	if vf.Version != 1 {
		return nil, fmt.Errorf("unsupported vault version: %d", vf.Version)
	}

	seed, err := DecryptSeed(vf.EncryptedSeed, password)
	if err != nil {
		return nil, err
	}
	if len(seed) != SeedSize {
		Zero(seed)
		return nil, fmt.Errorf("vault entry holds %d bytes, want %d", len(seed), SeedSize)
	}
	return seed, nil
}

// List returns the names of all stored seeds.
func (v *Vault) List() ([]string, error) {
	entries, err := os.ReadDir(v.path)
	if err != nil {
		return nil, fmt.Errorf("read vault dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".vault" {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	return names, nil
}

// Delete removes a stored seed.
func (v *Vault) Delete(name string) error {
	path := v.seedPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("vault entry %q not found", name)
	}
	return os.Remove(path)
}
