package temporal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockScheduler is a mock implementation of Scheduler for testing.
type MockScheduler struct {
	mu        sync.Mutex
	schedules map[string]time.Duration // map[scheduleID]interval
	paused    map[string]bool
	triggers  map[string]int
	createErr error
	deleteErr error
}

// NewMockScheduler creates a new MockScheduler.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{
		schedules: make(map[string]time.Duration),
		paused:    make(map[string]bool),
		triggers:  make(map[string]int),
	}
}

// CreateTrackSchedule records that a schedule was created.
func (m *MockScheduler) CreateTrackSchedule(ctx context.Context, wallet, token string, interval time.Duration) error {
	if m.createErr != nil {
		return m.createErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.schedules[scheduleID(token)] = interval
	return nil
}

// UpsertTrackSchedule creates or updates a schedule.
func (m *MockScheduler) UpsertTrackSchedule(ctx context.Context, wallet, token string, interval time.Duration) error {
	if m.createErr != nil {
		return m.createErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.schedules[scheduleID(token)] = interval
	return nil
}

// PauseTrackSchedule marks a schedule as paused.
func (m *MockScheduler) PauseTrackSchedule(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := scheduleID(token)
	if _, exists := m.schedules[id]; !exists {
		return fmt.Errorf("schedule %q not found", id)
	}
	m.paused[id] = true
	return nil
}

// ResumeTrackSchedule unmarks a paused schedule.
func (m *MockScheduler) ResumeTrackSchedule(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := scheduleID(token)
	if _, exists := m.schedules[id]; !exists {
		return fmt.Errorf("schedule %q not found", id)
	}
	m.paused[id] = false
	return nil
}

// DeleteTrackSchedule records that a schedule was deleted.
func (m *MockScheduler) DeleteTrackSchedule(ctx context.Context, token string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := scheduleID(token)
	if _, exists := m.schedules[id]; !exists {
		return fmt.Errorf("schedule %q not found", id)
	}

	delete(m.schedules, id)
	delete(m.paused, id)
	return nil
}

// TriggerTrackRun counts an immediate run request.
func (m *MockScheduler) TriggerTrackRun(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := scheduleID(token)
	if _, exists := m.schedules[id]; !exists {
		return fmt.Errorf("schedule %q not found", id)
	}
	m.triggers[id]++
	return nil
}

// SetCreateError makes create and upsert calls return an error.
func (m *MockScheduler) SetCreateError(err error) {
	m.createErr = err
}

// SetDeleteError makes DeleteTrackSchedule return an error.
func (m *MockScheduler) SetDeleteError(err error) {
	m.deleteErr = err
}

// ScheduleExists checks if a schedule exists for a token.
func (m *MockScheduler) ScheduleExists(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.schedules[scheduleID(token)]
	return exists
}

// SchedulePaused reports whether a token's schedule is paused.
func (m *MockScheduler) SchedulePaused(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused[scheduleID(token)]
}

// ScheduleInterval returns the interval for a token's schedule.
func (m *MockScheduler) ScheduleInterval(token string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	interval, exists := m.schedules[scheduleID(token)]
	return interval, exists
}

// TriggerCount returns how many immediate runs were requested for a token.
func (m *MockScheduler) TriggerCount(token string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.triggers[scheduleID(token)]
}

// Reset clears all schedules and errors.
func (m *MockScheduler) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = make(map[string]time.Duration)
	m.paused = make(map[string]bool)
	m.triggers = make(map[string]int)
	m.createErr = nil
	m.deleteErr = nil
}
