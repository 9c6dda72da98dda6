package wallet

import (
	"bytes"
	"errors"
	"testing"
)

func testSeed(b byte) []byte {
	return bytes.Repeat([]byte{b}, SeedSize)
}

func TestDerive_Deterministic(t *testing.T) {
	seed := testSeed(0x01)
	path := Path{Account: 0, Change: ChangeExternal, Index: 0}

	kp1, addr1, err := Derive(seed, path)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	kp2, addr2, err := Derive(seed, path)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	if addr1 != addr2 {
		t.Error("same seed and path must derive the same address")
	}
	if !bytes.Equal(kp1.PublicKey(), kp2.PublicKey()) {
		t.Error("same seed and path must derive the same key")
	}
}

func TestDerive_DistinctPaths(t *testing.T) {
	seed := testSeed(0x01)
	paths := []Path{
		{Account: 0, Change: ChangeExternal, Index: 0},
		{Account: 0, Change: ChangeExternal, Index: 1},
		{Account: 0, Change: ChangeInternal, Index: 0},
		{Account: 1, Change: ChangeExternal, Index: 0},
	}

	seen := make(map[string]Path, len(paths))
	for _, p := range paths {
		_, addr, err := Derive(seed, p)
		if err != nil {
			t.Fatalf("Derive(%s): %v", p, err)
		}
		key := addr.Hex()
		if prev, dup := seen[key]; dup {
			t.Errorf("paths %s and %s derive the same address", prev, p)
		}
		seen[key] = p
	}
}

func TestDerive_DistinctSeeds(t *testing.T) {
	path := Path{Account: 0, Change: ChangeExternal, Index: 0}
	_, a, err := Derive(testSeed(0x01), path)
	if err != nil {
		t.Fatal(err)
	}
	_, b, err := Derive(testSeed(0x02), path)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different seeds must derive different addresses")
	}
}

func TestDerive_BadSeedLength(t *testing.T) {
	_, _, err := Derive(make([]byte, 16), Path{})
	if err == nil {
		t.Error("short seed should be rejected")
	}
}

func TestPath_Validate(t *testing.T) {
	if err := (Path{Account: 0, Change: 1, Index: 5}).Validate(); err != nil {
		t.Errorf("valid path rejected: %v", err)
	}

	cases := []Path{
		{Change: 2},                    // change out of range
		{Account: hardenedOffset},      // account already hardened
		{Change: 0, Index: 1 << 31},    // index already hardened
	}
	for _, p := range cases {
		if err := p.Validate(); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Validate(%+v): expected ErrInvalidPath, got %v", p, err)
		}
	}
}

func TestPath_String(t *testing.T) {
	p := Path{Account: 2, Change: 1, Index: 7}
	want := "m/44'/4218'/2'/1'/7'"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDeriveAddresses(t *testing.T) {
	seed := testSeed(0x03)
	addrs, err := DeriveAddresses(seed, 0, ChangeExternal, 5, 4)
	if err != nil {
		t.Fatalf("DeriveAddresses: %v", err)
	}
	if len(addrs) != 4 {
		t.Fatalf("addresses = %d, want 4", len(addrs))
	}

	// Each entry must match a direct single derivation at its index.
	for i, addr := range addrs {
		_, want, err := Derive(seed, Path{Account: 0, Change: ChangeExternal, Index: 5 + uint32(i)})
		if err != nil {
			t.Fatal(err)
		}
		if addr != want {
			t.Errorf("index %d: batch and single derivation disagree", 5+i)
		}
	}
}

func TestSeedFromMnemonic_Deterministic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}

	a, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	b, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("same mnemonic must give same seed")
	}
	if len(a) != SeedSize {
		t.Errorf("seed length = %d, want %d", len(a), SeedSize)
	}

	withPass, err := SeedFromMnemonic(mnemonic, "trezor")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, withPass) {
		t.Error("passphrase must change the derived seed")
	}
}

func TestSeedFromMnemonic_Invalid(t *testing.T) {
	if _, err := SeedFromMnemonic("not a valid mnemonic", ""); err == nil {
		t.Error("invalid mnemonic should be rejected")
	}
}

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if !ValidateMnemonic(mnemonic) {
		t.Error("generated mnemonic must validate")
	}

	other, _ := GenerateMnemonic()
	if mnemonic == other {
		t.Error("mnemonics must not repeat")
	}
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if len(a) != SeedSize {
		t.Errorf("seed length = %d, want %d", len(a), SeedSize)
	}
	b, _ := NewSeed()
	if bytes.Equal(a, b) {
		t.Error("seeds must not repeat")
	}
}

func TestZero(t *testing.T) {
	seed := testSeed(0xff)
	Zero(seed)
	for _, b := range seed {
		if b != 0 {
			t.Fatal("Zero must clear every byte")
		}
	}
}
