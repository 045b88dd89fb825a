package usecases

import "time"

// Quote and approval lifetimes.
const (
	DefaultQuoteTTL    = 300 * time.Second
	DefaultApprovalTTL = 900 * time.Second
)

// Confirmation polling phases: a short, frequent-check phase followed by an
// extended, slower-check phase. Exceeding the extended phase yields a
// non-terminal Timeout, never a Failed transition.
const (
	DefaultConfirmationTimeoutShort = 60 * time.Second
	DefaultConfirmationTimeoutLong  = 5 * time.Minute
)

// RiskController defaults.
const (
	DefaultHourlyOutflowThreshold = 0.2
	DefaultPriceTolerance         = 0.05
)

// EVM word-size constants, reused by the EVM executor's calldata encoding.
const (
	EVMWordSize    = 32
	EVMWordSizeHex = 64
)
