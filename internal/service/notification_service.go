package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/events"
	"github.com/spec-kit/appointment-service/internal/notify"
	"github.com/spec-kit/appointment-service/internal/observability"
)

// enqueueTimeout bounds the synchronous hand-off to the queue. The caller's
// cancellation is detached so a finished request still gets its SMS.
const enqueueTimeout = 3 * time.Second

// SMSQueue hands SMS jobs to the background worker.
type SMSQueue interface {
	EnqueueBookingCreated(ctx context.Context, msg notify.BookingCreated) error
	EnqueueBookingStatus(ctx context.Context, msg notify.BookingStatus) error
}

// NotificationService turns booking events into SMS jobs. Failures are logged
// and never reach the booking caller.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      SMSQueue
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue SMSQueue, metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.queue == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAppointmentCreated, n.handleAppointmentCreated)
	n.dispatcher.Subscribe(events.EventAppointmentStatusChanged, n.handleAppointmentStatusChanged)
}

func (n *NotificationService) handleAppointmentCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AppointmentCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	err := n.queue.EnqueueBookingCreated(ctx, notify.BookingCreated{
		Phone:        payload.CustomerPhone,
		Code:         payload.Code,
		CustomerName: payload.CustomerName,
		Date:         payload.Date,
		Time:         payload.Time,
	})
	n.metrics.Notification("booking_created", err)
	if err != nil {
		n.logger.Warn("failed to enqueue booking confirmation sms",
			zap.String("appointment_id", event.AppointmentID), zap.Error(err))
		return nil
	}
	n.logger.Debug("booking confirmation sms enqueued", zap.String("appointment_id", event.AppointmentID))
	return nil
}

func (n *NotificationService) handleAppointmentStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AppointmentStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.NewStatus != domain.AppointmentStatusConfirmed && payload.NewStatus != domain.AppointmentStatusCancelled {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	err := n.queue.EnqueueBookingStatus(ctx, notify.BookingStatus{
		Phone:        payload.CustomerPhone,
		Code:         payload.Code,
		CustomerName: payload.CustomerName,
		Date:         payload.Date,
		Time:         payload.Time,
		Status:       string(payload.NewStatus),
	})
	n.metrics.Notification("booking_status", err)
	if err != nil {
		n.logger.Warn("failed to enqueue booking status sms",
			zap.String("appointment_id", event.AppointmentID), zap.Error(err))
	}
	return nil
}
