package tracker

import (
	"context"
	"fmt"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnetlabs/burnwatch/service/solana"
)

func TestRunSuccess(t *testing.T) {
	client := &mockSolanaClient{
		listFn: func(ctx context.Context, address solanago.PublicKey, limit int) ([]solana.SignatureInfo, error) {
			return signatures(3), nil
		},
		fetchFn: func(ctx context.Context, signature string) (*rpc.GetTransactionResult, error) {
			if signature == "sig-0" {
				return burnResult(5000), nil
			}
			return &rpc.GetTransactionResult{Meta: &rpc.TransactionMeta{}}, nil
		},
	}
	store := newMockStore()
	logger := testLogger()

	tracker := NewTracker(client, Options{TargetWallet: testWallet}, nil, logger)
	runner := NewRunner(tracker, NewReconciler(store, nil, nil, logger), store, nil, logger)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalChecked)
	assert.Equal(t, 1, summary.NewBurns)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 0, summary.Skipped)
	assert.True(t, summary.Success)
	assert.Empty(t, summary.ErrorText)

	// Exactly one audit row per run.
	require.Len(t, store.runLogs, 1)
	logged := store.runLogs[0]
	assert.Equal(t, 3, logged.TotalChecked)
	assert.Equal(t, 1, logged.NewBurns)
	assert.True(t, logged.Success)
	assert.Nil(t, logged.ErrorText)
}

func TestRunTrackingFailure(t *testing.T) {
	client := &mockSolanaClient{
		listFn: func(ctx context.Context, address solanago.PublicKey, limit int) ([]solana.SignatureInfo, error) {
			return nil, fmt.Errorf("%w: listing failed", solana.ErrRPCUnavailable)
		},
	}
	store := newMockStore()
	logger := testLogger()

	tracker := NewTracker(client, Options{TargetWallet: testWallet}, nil, logger)
	runner := NewRunner(tracker, NewReconciler(store, nil, nil, logger), store, nil, logger)

	summary, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, solana.ErrRPCUnavailable)

	assert.False(t, summary.Success)
	assert.Equal(t, 0, summary.TotalChecked)
	assert.Equal(t, 0, summary.NewBurns)
	assert.NotEmpty(t, summary.ErrorText)

	// Failed runs still leave an audit row with zeroed counts.
	require.Len(t, store.runLogs, 1)
	logged := store.runLogs[0]
	assert.Equal(t, 0, logged.TotalChecked)
	assert.Equal(t, 0, logged.NewBurns)
	assert.False(t, logged.Success)
	require.NotNil(t, logged.ErrorText)
	assert.Contains(t, *logged.ErrorText, "listing failed")
}

func TestRunIdempotentAcrossRuns(t *testing.T) {
	client := &mockSolanaClient{
		listFn: func(ctx context.Context, address solanago.PublicKey, limit int) ([]solana.SignatureInfo, error) {
			return signatures(2), nil
		},
		fetchFn: func(ctx context.Context, signature string) (*rpc.GetTransactionResult, error) {
			return burnResult(1000), nil
		},
	}
	store := newMockStore()
	logger := testLogger()

	tracker := NewTracker(client, Options{TargetWallet: testWallet}, nil, logger)
	runner := NewRunner(tracker, NewReconciler(store, nil, nil, logger), store, nil, logger)

	first, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, first.Skipped)

	second, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Skipped)
	assert.True(t, second.Success)

	assert.Len(t, store.events, 2)
	assert.Len(t, store.runLogs, 2)
}

func TestRunLogWriteFailureNotEscalated(t *testing.T) {
	client := &mockSolanaClient{
		listFn: func(ctx context.Context, address solanago.PublicKey, limit int) ([]solana.SignatureInfo, error) {
			return signatures(1), nil
		},
		fetchFn: func(ctx context.Context, signature string) (*rpc.GetTransactionResult, error) {
			return &rpc.GetTransactionResult{Meta: &rpc.TransactionMeta{}}, nil
		},
	}
	store := newMockStore()
	store.runLogErr = fmt.Errorf("disk full")
	logger := testLogger()

	tracker := NewTracker(client, Options{TargetWallet: testWallet}, nil, logger)
	runner := NewRunner(tracker, NewReconciler(store, nil, nil, logger), store, nil, logger)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.TotalChecked)
}
