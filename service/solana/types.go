package solana

import (
	"errors"
	"time"
)

// ErrRPCUnavailable indicates that the signature listing call exhausted all
// retries. This is fatal to the current tracking run; per-transaction fetch
// failures are not.
var ErrRPCUnavailable = errors.New("solana rpc unavailable")

// SignatureInfo represents one entry from the signature listing call.
// This is our domain model, independent of the RPC response format.
type SignatureInfo struct {
	Signature string
	Slot      uint64
	BlockTime time.Time // zero if the node did not report a block time
	Err       *string   // nil if the transaction succeeded on chain
}

// BurnDetails describes a positive burn classification for one transaction.
type BurnDetails struct {
	Amount   uint64 // burned amount in base units
	Mint     string
	Decimals uint8
	Owner    string // owner of the token account that was emptied
}
