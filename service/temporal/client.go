package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
)

// Client is a production implementation of Scheduler that talks to Temporal.
type Client struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
}

// NewClient creates a new Temporal client.
func NewClient(host, namespace, taskQueue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to temporal",
		"host", host,
		"namespace", namespace,
		"task_queue", taskQueue,
	)

	c, err := client.Dial(client.Options{
		HostPort:  host,
		Namespace: namespace,
		Logger:    newTemporalLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
	}

	logger.Info("connected to temporal successfully")

	return &Client{
		client:    c,
		taskQueue: taskQueue,
		logger:    logger,
	}, nil
}

// CreateTrackSchedule creates the Temporal schedule that drives burn tracking
// for a token. ScheduleOverlapPolicySkip keeps runs serialized: a tick that
// fires while the previous run is still executing is dropped.
func (c *Client) CreateTrackSchedule(ctx context.Context, wallet, token string, interval time.Duration) error {
	id := scheduleID(token)

	c.logger.Debug("creating track schedule",
		"wallet", wallet,
		"token", token,
		"schedule_id", id,
		"interval", interval,
	)

	scheduleSpec := client.ScheduleSpec{
		Intervals: []client.ScheduleIntervalSpec{
			{Every: interval},
		},
	}

	workflowAction := client.ScheduleWorkflowAction{
		ID:        fmt.Sprintf("track-burns-%s-%s", token, wallet),
		Workflow:  "TrackBurnsWorkflow",
		TaskQueue: c.taskQueue,
		Args: []interface{}{TrackBurnsInput{
			Wallet: wallet,
			Token:  token,
		}},
	}

	_, err := c.client.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID:      id,
		Spec:    scheduleSpec,
		Action:  &workflowAction,
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
		Memo: map[string]interface{}{
			"wallet":     wallet,
			"token":      token,
			"created_by": "burnwatch",
		},
	})
	if err != nil {
		c.logger.Error("failed to create schedule",
			"token", token,
			"schedule_id", id,
			"error", err,
		)
		return fmt.Errorf("failed to create schedule %q: %w", id, err)
	}

	c.logger.Info("track schedule created",
		"wallet", wallet,
		"token", token,
		"schedule_id", id,
		"interval", interval,
	)

	return nil
}

// UpsertTrackSchedule creates the schedule or, if it already exists, updates
// its interval in place.
func (c *Client) UpsertTrackSchedule(ctx context.Context, wallet, token string, interval time.Duration) error {
	id := scheduleID(token)

	handle := c.client.ScheduleClient().GetHandle(ctx, id)
	desc, err := handle.Describe(ctx)
	if err != nil {
		c.logger.Debug("schedule not found, creating new one",
			"schedule_id", id,
			"error", err,
		)
		return c.CreateTrackSchedule(ctx, wallet, token, interval)
	}

	c.logger.Debug("schedule exists, updating interval",
		"schedule_id", id,
		"old_interval", desc.Schedule.Spec.Intervals[0].Every,
		"new_interval", interval,
	)

	err = handle.Update(ctx, client.ScheduleUpdateOptions{
		DoUpdate: func(input client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
			input.Description.Schedule.Spec.Intervals = []client.ScheduleIntervalSpec{
				{Every: interval},
			}
			return &client.ScheduleUpdate{
				Schedule: &input.Description.Schedule,
			}, nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update schedule %q: %w", id, err)
	}

	c.logger.Info("track schedule updated",
		"token", token,
		"schedule_id", id,
		"interval", interval,
	)

	return nil
}

// PauseTrackSchedule pauses the schedule without deleting it.
func (c *Client) PauseTrackSchedule(ctx context.Context, token string) error {
	id := scheduleID(token)

	handle := c.client.ScheduleClient().GetHandle(ctx, id)
	if err := handle.Pause(ctx, client.SchedulePauseOptions{
		Note: "paused by burnwatch",
	}); err != nil {
		return fmt.Errorf("failed to pause schedule %q: %w", id, err)
	}

	c.logger.Info("track schedule paused", "token", token, "schedule_id", id)
	return nil
}

// ResumeTrackSchedule resumes a paused schedule.
func (c *Client) ResumeTrackSchedule(ctx context.Context, token string) error {
	id := scheduleID(token)

	handle := c.client.ScheduleClient().GetHandle(ctx, id)
	if err := handle.Unpause(ctx, client.ScheduleUnpauseOptions{
		Note: "resumed by burnwatch",
	}); err != nil {
		return fmt.Errorf("failed to resume schedule %q: %w", id, err)
	}

	c.logger.Info("track schedule resumed", "token", token, "schedule_id", id)
	return nil
}

// DeleteTrackSchedule deletes the schedule, stopping all tracking runs.
func (c *Client) DeleteTrackSchedule(ctx context.Context, token string) error {
	id := scheduleID(token)

	handle := c.client.ScheduleClient().GetHandle(ctx, id)
	if err := handle.Delete(ctx); err != nil {
		c.logger.Error("failed to delete schedule",
			"token", token,
			"schedule_id", id,
			"error", err,
		)
		return fmt.Errorf("failed to delete schedule %q: %w", id, err)
	}

	c.logger.Info("track schedule deleted", "token", token, "schedule_id", id)
	return nil
}

// TriggerTrackRun requests an immediate run outside the regular interval.
// The overlap policy still applies, so a trigger during a running pass is
// skipped rather than overlapped.
func (c *Client) TriggerTrackRun(ctx context.Context, token string) error {
	id := scheduleID(token)

	handle := c.client.ScheduleClient().GetHandle(ctx, id)
	if err := handle.Trigger(ctx, client.ScheduleTriggerOptions{
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	}); err != nil {
		return fmt.Errorf("failed to trigger schedule %q: %w", id, err)
	}

	c.logger.Info("track run triggered", "token", token, "schedule_id", id)
	return nil
}

// SDKClient returns the underlying Temporal SDK client for direct workflow operations.
func (c *Client) SDKClient() client.Client {
	return c.client
}

// TaskQueue returns the configured task queue for this client.
func (c *Client) TaskQueue() string {
	return c.taskQueue
}

// Close closes the Temporal client connection.
func (c *Client) Close() {
	c.logger.Info("closing temporal client")
	c.client.Close()
}

// temporalLogger adapts slog.Logger to Temporal's logger interface.
type temporalLogger struct {
	logger *slog.Logger
}

func newTemporalLogger(logger *slog.Logger) *temporalLogger {
	return &temporalLogger{logger: logger}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debug(msg, keyvals...)
}

func (l *temporalLogger) Info(msg string, keyvals ...interface{}) {
	l.logger.Info(msg, keyvals...)
}

func (l *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warn(msg, keyvals...)
}

func (l *temporalLogger) Error(msg string, keyvals ...interface{}) {
	l.logger.Error(msg, keyvals...)
}
