package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/spec-kit/appointment-service/internal/notify"
)

const (
	TypeBookingCreatedSMS = "sms:booking_created"
	TypeBookingStatusSMS  = "sms:booking_status"
)

// NewBookingCreatedTask builds the confirmation SMS task.
func NewBookingCreatedTask(msg notify.BookingCreated, maxRetry int) (*asynq.Task, error) {
	return newTask(TypeBookingCreatedSMS, msg, maxRetry)
}

// NewBookingStatusTask builds the status change SMS task.
func NewBookingStatusTask(msg notify.BookingStatus, maxRetry int) (*asynq.Task, error) {
	return newTask(TypeBookingStatusSMS, msg, maxRetry)
}

func newTask(taskType string, payload any, maxRetry int) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue("notifications")}
	if maxRetry >= 0 {
		opts = append(opts, asynq.MaxRetry(maxRetry))
	}
	return asynq.NewTask(taskType, b, opts...), nil
}

// Enqueuer is the part of *asynq.Client the queue needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqQueue publishes SMS tasks to Redis.
type AsynqQueue struct {
	client   Enqueuer
	maxRetry int
}

// NewAsynqQueue wraps an asynq client.
func NewAsynqQueue(client Enqueuer, maxRetry int) *AsynqQueue {
	return &AsynqQueue{client: client, maxRetry: maxRetry}
}

func (q *AsynqQueue) EnqueueBookingCreated(ctx context.Context, msg notify.BookingCreated) error {
	task, err := NewBookingCreatedTask(msg, q.maxRetry)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task)
}

func (q *AsynqQueue) EnqueueBookingStatus(ctx context.Context, msg notify.BookingStatus) error {
	task, err := NewBookingStatusTask(msg, q.maxRetry)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task)
}

func (q *AsynqQueue) enqueue(ctx context.Context, task *asynq.Task) error {
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}
