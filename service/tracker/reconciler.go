package tracker

import (
	"context"
	"log/slog"

	"github.com/xnetlabs/burnwatch/service/db"
	"github.com/xnetlabs/burnwatch/service/metrics"
	natspkg "github.com/xnetlabs/burnwatch/service/nats"
)

// Store defines the database operations the reconciler and run logger need.
// This allows for easy mocking in tests.
type Store interface {
	BurnEventExists(ctx context.Context, signature string) (bool, error)
	InsertBurnEvent(ctx context.Context, params db.InsertBurnEventParams) (*db.BurnEvent, error)
	InsertRunLog(ctx context.Context, params db.InsertRunLogParams) (*db.RunLog, error)
}

// Reconciler deduplicates candidate burn events against persisted state and
// inserts only new ones. Detection is idempotent: an existing row is
// authoritative and is never modified.
type Reconciler struct {
	store     Store
	publisher natspkg.Publisher // optional, nil disables publishing
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewReconciler creates a Reconciler. publisher may be nil to disable NATS
// fan-out of newly inserted events; if m is nil, no metrics will be recorded.
func NewReconciler(store Store, publisher natspkg.Publisher, m *metrics.Metrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Reconcile checks each candidate independently against storage and inserts
// the ones not seen before. A per-item storage error is logged and the item
// skipped; one bad row never blocks the rest of the batch.
//
// The check-then-insert sequence is deliberately not wrapped in a single
// transaction: runs are serialized by the scheduler, and the primary key on
// signature is the backstop if that assumption is ever violated.
func (r *Reconciler) Reconcile(ctx context.Context, events []*BurnEvent) ReconcileResult {
	var result ReconcileResult

	if len(events) == 0 {
		return result
	}

	r.logger.InfoContext(ctx, "reconciling burn events", "candidates", len(events))

	for _, event := range events {
		exists, err := r.store.BurnEventExists(ctx, event.Signature)
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to check burn event existence, skipping",
				"signature", event.Signature,
				"error", err,
			)
			if r.metrics != nil {
				r.metrics.RecordEventsSkipped(event.Token, "storage_error", 1)
			}
			continue
		}

		if exists {
			result.Skipped++
			r.logger.DebugContext(ctx, "burn event already recorded",
				"signature", event.Signature,
			)
			if r.metrics != nil {
				r.metrics.RecordEventsSkipped(event.Token, "duplicate", 1)
			}
			continue
		}

		inserted, err := r.store.InsertBurnEvent(ctx, db.InsertBurnEventParams{
			Signature:   event.Signature,
			Timestamp:   event.Timestamp,
			Action:      event.Action,
			FromAddress: event.FromAddress,
			ToAddress:   event.ToAddress,
			Amount:      event.Amount,
			Token:       event.Token,
			ScrapeTime:  event.ScrapeTime,
		})
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to insert burn event, skipping",
				"signature", event.Signature,
				"error", err,
			)
			if r.metrics != nil {
				r.metrics.RecordEventsSkipped(event.Token, "storage_error", 1)
			}
			continue
		}

		result.Inserted++
		r.logger.InfoContext(ctx, "burn event recorded",
			"signature", event.Signature,
			"amount", event.Amount,
			"token", event.Token,
		)
		if r.metrics != nil {
			r.metrics.RecordEventsInserted(event.Token, 1)
		}

		// Fan out newly discovered events. Publishing is best-effort and
		// never affects the reconcile outcome.
		if r.publisher != nil {
			if err := r.publisher.PublishBurnEvent(ctx, natspkg.FromDBBurnEvent(inserted)); err != nil {
				r.logger.WarnContext(ctx, "failed to publish burn event",
					"signature", event.Signature,
					"error", err,
				)
			}
		}
	}

	r.logger.InfoContext(ctx, "reconcile complete",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
	)

	return result
}
