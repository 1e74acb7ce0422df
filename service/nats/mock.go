package nats

import (
	"context"
	"sync"
)

// MockPublisher is a mock implementation of Publisher for testing.
type MockPublisher struct {
	mu                sync.RWMutex
	publishedEvents   []*BurnEventMsg
	publishError      error
	publishBatchError error
	closed            bool
}

// NewMockPublisher creates a new mock publisher for testing.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		publishedEvents: make([]*BurnEventMsg, 0),
	}
}

// PublishBurnEvent records the event and returns any configured error.
func (m *MockPublisher) PublishBurnEvent(ctx context.Context, event *BurnEventMsg) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishError != nil {
		return m.publishError
	}

	m.publishedEvents = append(m.publishedEvents, event)
	return nil
}

// PublishBurnEventBatch records the events and returns any configured error.
func (m *MockPublisher) PublishBurnEventBatch(ctx context.Context, events []*BurnEventMsg) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishBatchError != nil {
		return m.publishBatchError
	}

	m.publishedEvents = append(m.publishedEvents, events...)
	return nil
}

// Close marks the publisher as closed.
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// PublishedEvents returns a copy of all published events.
func (m *MockPublisher) PublishedEvents() []*BurnEventMsg {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*BurnEventMsg, len(m.publishedEvents))
	copy(events, m.publishedEvents)
	return events
}

// SetPublishError configures an error to return from publish calls.
func (m *MockPublisher) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishError = err
}

// Closed reports whether Close has been called.
func (m *MockPublisher) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
