package config

// Protocol-level constants. These are rules of the ledger itself: a
// transaction violating any of them is rejected by every node, so the
// engine enforces them before signing.
const (
	// CoinType is the registered SLIP-44 coin type used in derivation paths.
	CoinType = 4218

	// DustThreshold is the minimum amount, in base units, an output may
	// carry unless its destination already holds at least this much.
	DustThreshold = 1_000_000

	// MaxTxInputs is the maximum number of inputs per transaction.
	MaxTxInputs = 127

	// MaxTxOutputs is the maximum number of outputs per transaction.
	MaxTxOutputs = 127

	// MaxNativeTokens is the maximum number of distinct native tokens
	// across one output.
	MaxNativeTokens = 64

	// MaxTagLength is the maximum tag size of a tagged data payload.
	MaxTagLength = 64

	// MaxTaggedDataLength is the maximum data size of a tagged data payload.
	MaxTaggedDataLength = 8192

	// MaxStateMetadataLength is the maximum state metadata size of an
	// alias output.
	MaxStateMetadataLength = 8192
)
