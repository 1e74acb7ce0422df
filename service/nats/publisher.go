package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/xnetlabs/burnwatch/service/metrics"
)

// Publisher defines the interface for publishing burn events to NATS.
type Publisher interface {
	// PublishBurnEvent publishes a single burn event to JetStream.
	// The event is published to the subject "burns.{token}".
	PublishBurnEvent(ctx context.Context, event *BurnEventMsg) error

	// PublishBurnEventBatch publishes multiple burn events.
	PublishBurnEventBatch(ctx context.Context, events []*BurnEventMsg) error

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamPublisher publishes burn events to NATS JetStream.
type JetStreamPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	metrics *metrics.Metrics
	logger  *slog.Logger
}

const (
	// StreamName is the name of the JetStream stream for burn events.
	StreamName = "BURNS"

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = "burns.*"

	// StreamRetention is how long messages are retained (30 days by default).
	StreamRetention = 30 * 24 * time.Hour
)

// NewPublisher creates a new JetStream publisher.
// It connects to NATS and ensures the stream exists. If m is nil, no metrics
// will be recorded.
func NewPublisher(natsURL string, m *metrics.Metrics, logger *slog.Logger) (*JetStreamPublisher, error) {
	// Connect to NATS
	nc, err := nats.Connect(natsURL,
		nats.Name("burnwatch-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1), // Unlimited reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Create JetStream context
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:      nc,
		js:      js,
		metrics: m,
		logger:  logger,
	}

	// Ensure stream exists
	if err := publisher.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return publisher, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Try to get existing stream
	stream, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		info, err := stream.Info(ctx)
		if err == nil {
			p.logger.Debug("JetStream stream already exists",
				"stream", StreamName,
				"messages", info.State.Msgs,
			)
		}
		return nil
	}

	// Stream doesn't exist, create it
	p.logger.Info("creating JetStream stream", "stream", StreamName)

	streamConfig := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Token burn events discovered by burnwatch",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}

	_, err = p.js.CreateStream(ctx, streamConfig)
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	p.logger.Info("JetStream stream created successfully", "stream", StreamName)
	return nil
}

// PublishBurnEvent publishes a single burn event.
func (p *JetStreamPublisher) PublishBurnEvent(ctx context.Context, event *BurnEventMsg) error {
	subject := fmt.Sprintf("burns.%s", event.Token)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal burn event: %w", err)
	}

	start := time.Now()
	_, err = p.js.Publish(ctx, subject, data)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if p.metrics != nil {
		p.metrics.RecordNATSPublish(subject, status, duration)
	}

	if err != nil {
		return fmt.Errorf("failed to publish burn event: %w", err)
	}

	p.logger.Debug("published burn event",
		"subject", subject,
		"signature", event.Signature,
		"amount", event.Amount,
	)

	return nil
}

// PublishBurnEventBatch publishes multiple burn events.
func (p *JetStreamPublisher) PublishBurnEventBatch(ctx context.Context, events []*BurnEventMsg) error {
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if err := p.PublishBurnEvent(ctx, event); err != nil {
			// Log error but continue with other events
			p.logger.Error("failed to publish burn event in batch",
				"signature", event.Signature,
				"token", event.Token,
				"error", err,
			)
			continue
		}
	}

	p.logger.Debug("published burn event batch",
		"count", len(events),
	)

	return nil
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
