package config

import "time"

// DefaultMainnet returns the default client configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network:         Mainnet,
		NodeURL:         "http://127.0.0.1:14265",
		NodeTimeout:     30 * time.Second,
		ScanConcurrency: 10,
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default client configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	return cfg
}

// Default returns the default client configuration for the given network.
func Default(network NetworkType) *Config {
	if network == Testnet {
		return DefaultTestnet()
	}
	return DefaultMainnet()
}
