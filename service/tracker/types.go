package tracker

import (
	"time"
)

// BurnEvent is the canonical output record of the pipeline, created when a
// transaction is classified as a burn. Immutable once created; persisted by
// the reconciler keyed uniquely by Signature.
type BurnEvent struct {
	Signature   string    `json:"signature"`
	Timestamp   time.Time `json:"timestamp"` // block time of the transaction
	Action      string    `json:"action"`    // always "Burn"
	FromAddress *string   `json:"from_address,omitempty"`
	ToAddress   *string   `json:"to_address"` // always nil, burns have no recipient
	Amount      string    `json:"amount"`     // base units as a decimal string
	Token       string    `json:"token"`
	ScrapeTime  time.Time `json:"scrape_time"` // when detection happened
}

// TrackResult summarizes the fetch-and-classify phase of a run.
type TrackResult struct {
	TotalChecked int          `json:"total_checked"`
	Events       []*BurnEvent `json:"events"`
}

// ReconcileResult reports how candidate events reconciled against storage.
type ReconcileResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// RunSummary is the audit summary of one full pipeline invocation.
type RunSummary struct {
	TotalChecked    int    `json:"total_checked"`
	NewBurns        int    `json:"new_burns"`
	Inserted        int    `json:"inserted"`
	Skipped         int    `json:"skipped"`
	Success         bool   `json:"success"`
	ErrorText       string `json:"error_text,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}
