package temporal

import (
	"fmt"
	"time"

	temporalsdk "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

var a *Activities // for type-safe activity invocation

// TrackBurnsWorkflow is the Temporal workflow that runs one full burn
// tracking pass. It is triggered by a Temporal schedule at a configured
// interval; the schedule's overlap policy keeps runs serialized, so at most
// one pass is in flight at a time.
//
// The workflow performs these steps:
// 1. Fetch and classify recent transactions (FetchBurns activity)
// 2. Reconcile candidates against storage and publish new ones (ReconcileBurns activity)
// 3. Append the run audit row (RecordRunLog activity, executed on both paths)
func TrackBurnsWorkflow(ctx workflow.Context, input TrackBurnsInput) (*TrackBurnsResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("TrackBurnsWorkflow started", "wallet", input.Wallet, "token", input.Token)

	start := workflow.Now(ctx)
	result := &TrackBurnsResult{
		Token:   input.Token,
		RunTime: start,
	}

	// The Solana client retries internally, so activity-level retries are
	// kept short. Reconciliation contains per-item failures itself.
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 300 * time.Second,
		RetryPolicy: &temporalsdk.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	// Step 1: fetch and classify.
	var fetchResult *FetchBurnsResult
	err := workflow.ExecuteActivity(ctx, a.FetchBurns, input).Get(ctx, &fetchResult)
	if err != nil {
		logger.Error("failed to fetch burns", "wallet", input.Wallet, "error", err)
		errMsg := fmt.Sprintf("failed to fetch burns: %v", err)
		result.Error = &errMsg
		result.ExecutionTimeMs = workflow.Now(ctx).Sub(start).Milliseconds()
		recordRunLog(ctx, RecordRunLogInput{
			Success:         false,
			ErrorText:       &errMsg,
			ExecutionTimeMs: result.ExecutionTimeMs,
		})
		return result, fmt.Errorf("failed to fetch burns: %w", err)
	}

	result.TotalChecked = fetchResult.TotalChecked
	result.NewBurns = len(fetchResult.Events)

	logger.Info("fetched burns",
		"wallet", input.Wallet,
		"total_checked", fetchResult.TotalChecked,
		"burns_found", len(fetchResult.Events),
	)

	// Step 2: reconcile against storage.
	var reconcileResult *ReconcileBurnsResult
	err = workflow.ExecuteActivity(ctx, a.ReconcileBurns, ReconcileBurnsInput{
		Events: fetchResult.Events,
	}).Get(ctx, &reconcileResult)
	if err != nil {
		logger.Error("failed to reconcile burns", "wallet", input.Wallet, "error", err)
		errMsg := fmt.Sprintf("failed to reconcile burns: %v", err)
		result.Error = &errMsg
		result.ExecutionTimeMs = workflow.Now(ctx).Sub(start).Milliseconds()
		recordRunLog(ctx, RecordRunLogInput{
			TotalChecked:    result.TotalChecked,
			NewBurns:        result.NewBurns,
			Success:         false,
			ErrorText:       &errMsg,
			ExecutionTimeMs: result.ExecutionTimeMs,
		})
		return result, fmt.Errorf("failed to reconcile burns: %w", err)
	}

	result.Inserted = reconcileResult.Inserted
	result.Skipped = reconcileResult.Skipped
	result.ExecutionTimeMs = workflow.Now(ctx).Sub(start).Milliseconds()

	// Step 3: append the audit row.
	recordRunLog(ctx, RecordRunLogInput{
		TotalChecked:    result.TotalChecked,
		NewBurns:        result.NewBurns,
		Success:         true,
		ExecutionTimeMs: result.ExecutionTimeMs,
	})

	logger.Info("TrackBurnsWorkflow completed successfully",
		"wallet", input.Wallet,
		"total_checked", result.TotalChecked,
		"new_burns", result.NewBurns,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
	)

	return result, nil
}

// recordRunLog executes the RecordRunLog activity and swallows its error:
// the audit trail is best-effort and must never change a run's outcome.
func recordRunLog(ctx workflow.Context, input RecordRunLogInput) {
	logger := workflow.GetLogger(ctx)
	if err := workflow.ExecuteActivity(ctx, a.RecordRunLog, input).Get(ctx, nil); err != nil {
		logger.Error("failed to record run log", "error", err)
	}
}
