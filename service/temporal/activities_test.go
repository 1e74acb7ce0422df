package temporal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xnetlabs/burnwatch/service/db"
	"github.com/xnetlabs/burnwatch/service/tracker"
)

type mockTracker struct {
	result *tracker.TrackResult
	err    error
	calls  int
}

func (m *mockTracker) TrackBurns(ctx context.Context) (*tracker.TrackResult, error) {
	m.calls++
	return m.result, m.err
}

type mockReconciler struct {
	result tracker.ReconcileResult
	seen   []*tracker.BurnEvent
}

func (m *mockReconciler) Reconcile(ctx context.Context, events []*tracker.BurnEvent) tracker.ReconcileResult {
	m.seen = events
	return m.result
}

type mockRunLogStore struct {
	inserted []db.InsertRunLogParams
	err      error
}

func (m *mockRunLogStore) InsertRunLog(ctx context.Context, params db.InsertRunLogParams) (*db.RunLog, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inserted = append(m.inserted, params)
	return &db.RunLog{ID: int64(len(m.inserted))}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchBurnsActivity(t *testing.T) {
	trk := &mockTracker{
		result: &tracker.TrackResult{
			TotalChecked: 42,
			Events:       []*tracker.BurnEvent{sampleEvent("sig1")},
		},
	}
	activities := NewActivities(trk, &mockReconciler{}, &mockRunLogStore{}, nil, discardLogger())

	result, err := activities.FetchBurns(context.Background(), TrackBurnsInput{Token: "XNET"})
	require.NoError(t, err)
	assert.Equal(t, 42, result.TotalChecked)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "sig1", result.Events[0].Signature)
	assert.Equal(t, 1, trk.calls)
}

func TestFetchBurnsActivityError(t *testing.T) {
	trk := &mockTracker{err: errors.New("rpc unavailable")}
	activities := NewActivities(trk, &mockReconciler{}, &mockRunLogStore{}, nil, discardLogger())

	result, err := activities.FetchBurns(context.Background(), TrackBurnsInput{Token: "XNET"})
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestReconcileBurnsActivity(t *testing.T) {
	rec := &mockReconciler{result: tracker.ReconcileResult{Inserted: 2, Skipped: 3}}
	activities := NewActivities(&mockTracker{}, rec, &mockRunLogStore{}, nil, discardLogger())

	events := []*tracker.BurnEvent{sampleEvent("sig1"), sampleEvent("sig2")}
	result, err := activities.ReconcileBurns(context.Background(), ReconcileBurnsInput{Events: events})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, events, rec.seen)
}

func TestRecordRunLogActivity(t *testing.T) {
	store := &mockRunLogStore{}
	activities := NewActivities(&mockTracker{}, &mockReconciler{}, store, nil, discardLogger())

	errText := "listing failed"
	err := activities.RecordRunLog(context.Background(), RecordRunLogInput{
		TotalChecked:    7,
		NewBurns:        1,
		Success:         false,
		ErrorText:       &errText,
		ExecutionTimeMs: 1234,
	})
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	logged := store.inserted[0]
	assert.Equal(t, 7, logged.TotalChecked)
	assert.Equal(t, 1, logged.NewBurns)
	assert.False(t, logged.Success)
	require.NotNil(t, logged.ErrorText)
	assert.Equal(t, "listing failed", *logged.ErrorText)
	assert.Equal(t, int64(1234), logged.ExecutionTimeMs)
}

func TestRecordRunLogActivityError(t *testing.T) {
	store := &mockRunLogStore{err: errors.New("disk full")}
	activities := NewActivities(&mockTracker{}, &mockReconciler{}, store, nil, discardLogger())

	err := activities.RecordRunLog(context.Background(), RecordRunLogInput{Success: true})
	require.Error(t, err)
}
