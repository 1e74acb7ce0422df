package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/xnetlabs/burnwatch/service/db"
	"github.com/xnetlabs/burnwatch/service/metrics"
)

// Runner executes a full tracking run: list and classify recent transactions,
// reconcile the results against storage, and record a run log row describing
// what happened. Every invocation produces exactly one run log attempt,
// success or failure.
type Runner struct {
	tracker    *Tracker
	reconciler *Reconciler
	store      Store
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewRunner creates a Runner; if m is nil, no metrics will be recorded.
func NewRunner(tracker *Tracker, reconciler *Reconciler, store Store, m *metrics.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		tracker:    tracker,
		reconciler: reconciler,
		store:      store,
		metrics:    m,
		logger:     logger,
	}
}

// Run performs one end-to-end tracking run. On a fatal tracking error the
// run is recorded as failed with zeroed counts and the error is returned;
// otherwise the run is recorded as successful with the observed counts.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()

	r.logger.InfoContext(ctx, "starting tracking run")

	trackResult, err := r.tracker.TrackBurns(ctx)
	if err != nil {
		summary := &RunSummary{
			Success:         false,
			ErrorText:       err.Error(),
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
		r.recordRun(ctx, summary)
		if r.metrics != nil {
			r.metrics.RecordTrackRun("failure", time.Since(start).Seconds())
		}
		return summary, err
	}

	reconcileResult := r.reconciler.Reconcile(ctx, trackResult.Events)

	summary := &RunSummary{
		TotalChecked:    trackResult.TotalChecked,
		NewBurns:        len(trackResult.Events),
		Inserted:        reconcileResult.Inserted,
		Skipped:         reconcileResult.Skipped,
		Success:         true,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
	r.recordRun(ctx, summary)
	if r.metrics != nil {
		r.metrics.RecordTrackRun("success", time.Since(start).Seconds())
	}

	r.logger.InfoContext(ctx, "tracking run complete",
		"total_checked", summary.TotalChecked,
		"new_burns", summary.NewBurns,
		"inserted", summary.Inserted,
		"skipped", summary.Skipped,
		"execution_time_ms", summary.ExecutionTimeMs,
	)

	return summary, nil
}

// recordRun writes the audit row for a run. A failed write is logged but
// never escalated: the audit trail must not take down the pipeline.
func (r *Runner) recordRun(ctx context.Context, summary *RunSummary) {
	var errorText *string
	if summary.ErrorText != "" {
		errorText = &summary.ErrorText
	}

	_, err := r.store.InsertRunLog(ctx, db.InsertRunLogParams{
		TotalChecked:    summary.TotalChecked,
		NewBurns:        summary.NewBurns,
		Success:         summary.Success,
		ErrorText:       errorText,
		ExecutionTimeMs: summary.ExecutionTimeMs,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to record run log", "error", err)
	}
}
