// Package config holds client configuration and Tangle protocol parameters.
//
// Configuration is split into two categories:
//   - Protocol rules: fixed by the network, must match the ledger exactly
//   - Client settings: runtime configuration, can vary per caller
package config

import "time"

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Address HRP (human-readable part) constants for bech32 encoding.
const (
	MainnetHRP = "iota"
	TestnetHRP = "atoi"
)

// HRP returns the bech32 human-readable part for the network.
func (n NetworkType) HRP() string {
	if n == Testnet {
		return TestnetHRP
	}
	return MainnetHRP
}

// Config holds client runtime configuration.
type Config struct {
	Network NetworkType

	// Node API endpoint, e.g. "https://node.example.org".
	NodeURL string

	// HTTP timeout for node requests.
	NodeTimeout time.Duration

	// Parallel balance queries issued by the scanner.
	ScanConcurrency int

	Log LogConfig
}

// LogConfig controls log output.
type LogConfig struct {
	Level string
	JSON  bool
}
