package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jmagsino/shs-registrar-api/pkg/config"
	"github.com/jmagsino/shs-registrar-api/pkg/jobs"
)

// EventKind names an enrollment lifecycle event worth telling the student
// about.
type EventKind string

const (
	EventEnrollmentApproved  EventKind = "enrollment.approved"
	EventEnrollmentRejected  EventKind = "enrollment.rejected"
	EventEnrollmentReturned  EventKind = "enrollment.returned"
	EventEnrollmentEvaluated EventKind = "enrollment.evaluated"
)

// EnrollmentEvent is the payload delivered to the notification channel.
type EnrollmentEvent struct {
	Kind         EventKind         `json:"kind"`
	EnrollmentID string            `json:"enrollment_id"`
	StudentID    string            `json:"student_id"`
	Data         map[string]string `json:"data,omitempty"`
}

// Notifier delivers one event over some channel (mail, SMS, portal inbox).
type Notifier interface {
	Notify(ctx context.Context, event EnrollmentEvent) error
}

// LogNotifier is the default delivery channel; it records the event in the
// application log. Real channels plug in behind the same interface.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, event EnrollmentEvent) error {
	n.logger.Info("enrollment notification",
		zap.String("kind", string(event.Kind)),
		zap.String("enrollment_id", event.EnrollmentID),
		zap.String("student_id", event.StudentID),
		zap.Any("data", event.Data),
	)
	return nil
}

// NotificationDispatcher pushes enrollment events through a background queue
// so lifecycle actions never block on delivery.
type NotificationDispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationDispatcher wires a notifier behind a worker queue.
func NewNotificationDispatcher(notifier Notifier, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(EnrollmentEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return notifier.Notify(ctx, event)
	}
	queue := jobs.NewQueue("notifications", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &NotificationDispatcher{queue: queue, logger: logger}
}

// Start launches the delivery workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues an event. Failures are logged and swallowed; delivery is
// best effort and must never fail the originating action.
func (d *NotificationDispatcher) Dispatch(event EnrollmentEvent) {
	err := d.queue.Enqueue(jobs.Job{
		ID:         uuid.NewString(),
		Type:       string(event.Kind),
		Payload:    event,
		EnqueuedAt: time.Now(),
	})
	if err != nil {
		d.logger.Warn("failed to enqueue notification",
			zap.String("kind", string(event.Kind)),
			zap.String("enrollment_id", event.EnrollmentID),
			zap.Error(err),
		)
	}
}
