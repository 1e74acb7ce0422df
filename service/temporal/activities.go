package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xnetlabs/burnwatch/service/db"
	"github.com/xnetlabs/burnwatch/service/metrics"
	"github.com/xnetlabs/burnwatch/service/tracker"
)

// TrackBurnsInput contains the input parameters for one scheduled tracking run.
type TrackBurnsInput struct {
	Wallet string `json:"wallet"` // target wallet, for logging and schedule identity
	Token  string `json:"token"`  // token symbol label (e.g. "XNET")
}

// TrackBurnsResult contains the outcome of one tracking run.
type TrackBurnsResult struct {
	Token           string    `json:"token"`
	TotalChecked    int       `json:"total_checked"`
	NewBurns        int       `json:"new_burns"`
	Inserted        int       `json:"inserted"`
	Skipped         int       `json:"skipped"`
	RunTime         time.Time `json:"run_time"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	Error           *string   `json:"error,omitempty"`
}

// FetchBurnsResult is the output of the FetchBurns activity.
type FetchBurnsResult struct {
	TotalChecked int                  `json:"total_checked"`
	Events       []*tracker.BurnEvent `json:"events"`
}

// ReconcileBurnsInput contains parameters for the ReconcileBurns activity.
type ReconcileBurnsInput struct {
	Events []*tracker.BurnEvent `json:"events"`
}

// ReconcileBurnsResult contains the result of reconciling candidates.
type ReconcileBurnsResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// RecordRunLogInput contains parameters for the RecordRunLog activity.
type RecordRunLogInput struct {
	TotalChecked    int     `json:"total_checked"`
	NewBurns        int     `json:"new_burns"`
	Success         bool    `json:"success"`
	ErrorText       *string `json:"error_text,omitempty"`
	ExecutionTimeMs int64   `json:"execution_time_ms"`
}

// TrackerInterface defines the fetch-classify operations needed by activities.
// This allows for easy mocking in tests.
type TrackerInterface interface {
	TrackBurns(ctx context.Context) (*tracker.TrackResult, error)
}

// ReconcilerInterface defines the reconcile operations needed by activities.
// This allows for easy mocking in tests.
type ReconcilerInterface interface {
	Reconcile(ctx context.Context, events []*tracker.BurnEvent) tracker.ReconcileResult
}

// StoreInterface defines the database operations needed by activities.
type StoreInterface interface {
	InsertRunLog(ctx context.Context, params db.InsertRunLogParams) (*db.RunLog, error)
}

// Activities holds the dependencies needed by Temporal activities.
// All dependencies are explicit.
type Activities struct {
	tracker    TrackerInterface
	reconciler ReconcilerInterface
	store      StoreInterface
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewActivities creates a new Activities instance with explicit dependencies.
// If m is nil, no metrics will be recorded.
func NewActivities(
	trk TrackerInterface,
	reconciler ReconcilerInterface,
	store StoreInterface,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		tracker:    trk,
		reconciler: reconciler,
		store:      store,
		metrics:    m,
		logger:     logger,
	}
}

// FetchBurns lists recent signatures for the target wallet and classifies
// them into candidate burn events. A listing failure after retries fails the
// activity.
func (a *Activities) FetchBurns(ctx context.Context, input TrackBurnsInput) (*FetchBurnsResult, error) {
	a.logger.DebugContext(ctx, "fetching burns",
		"wallet", input.Wallet,
		"token", input.Token,
	)

	result, err := a.tracker.TrackBurns(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to fetch burns",
			"wallet", input.Wallet,
			"error", err,
		)
		return nil, fmt.Errorf("failed to fetch burns: %w", err)
	}

	a.logger.InfoContext(ctx, "fetched burns",
		"wallet", input.Wallet,
		"total_checked", result.TotalChecked,
		"burns_found", len(result.Events),
	)

	return &FetchBurnsResult{
		TotalChecked: result.TotalChecked,
		Events:       result.Events,
	}, nil
}

// ReconcileBurns deduplicates candidates against storage, inserts the new
// ones and fans them out. Per-item storage errors are contained inside the
// reconciler, so this activity only fails on panics.
func (a *Activities) ReconcileBurns(ctx context.Context, input ReconcileBurnsInput) (*ReconcileBurnsResult, error) {
	result := a.reconciler.Reconcile(ctx, input.Events)

	return &ReconcileBurnsResult{
		Inserted: result.Inserted,
		Skipped:  result.Skipped,
	}, nil
}

// RecordRunLog appends the audit row for a run. The caller invokes this once
// per run whether the run succeeded or not.
func (a *Activities) RecordRunLog(ctx context.Context, input RecordRunLogInput) error {
	_, err := a.store.InsertRunLog(ctx, db.InsertRunLogParams{
		TotalChecked:    input.TotalChecked,
		NewBurns:        input.NewBurns,
		Success:         input.Success,
		ErrorText:       input.ErrorText,
		ExecutionTimeMs: input.ExecutionTimeMs,
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to record run log", "error", err)
		return fmt.Errorf("failed to record run log: %w", err)
	}
	return nil
}
