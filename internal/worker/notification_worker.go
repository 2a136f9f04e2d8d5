package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/config"
	"github.com/spec-kit/appointment-service/internal/notify"
	"github.com/spec-kit/appointment-service/internal/observability"
	"github.com/spec-kit/appointment-service/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// RedisOpt builds the asynq connection for the queue database.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.QueueDB,
	}
}

// NewServer builds the asynq server that drains SMS tasks.
func NewServer(cfg config.Config, logger *zap.Logger) *asynq.Server {
	concurrency := cfg.Notification.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(RedisOpt(cfg.Redis), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"notifications": 1,
		},
		Logger: logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Warn("sms task failed", zap.String("task_type", task.Type()), zap.Error(err))
		}),
	})
}

// NewMux routes SMS task types to handlers backed by sender.
func NewMux(sender notify.Sender, metrics *observability.Metrics, logger *zap.Logger) *asynq.ServeMux {
	h := &smsHandler{sender: sender, metrics: metrics, logger: logger}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingCreatedSMS, h.handleBookingCreated)
	mux.HandleFunc(TypeBookingStatusSMS, h.handleBookingStatus)
	return mux
}

type smsHandler struct {
	sender  notify.Sender
	metrics *observability.Metrics
	logger  *zap.Logger
}

func (h *smsHandler) handleBookingCreated(ctx context.Context, task *asynq.Task) error {
	var msg notify.BookingCreated
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return h.deliver(ctx, "booking_created", msg.Phone, msg.Text())
}

func (h *smsHandler) handleBookingStatus(ctx context.Context, task *asynq.Task) error {
	var msg notify.BookingStatus
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return h.deliver(ctx, "booking_status", msg.Phone, msg.Text())
}

func (h *smsHandler) deliver(ctx context.Context, kind, phone, body string) error {
	err := h.sender.Send(ctx, phone, body)
	h.metrics.Notification(kind+"_delivery", err)
	if err != nil {
		return err
	}
	h.logger.Info("sms delivered", zap.String("kind", kind))
	return nil
}
