package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/notify"
)

type recordingSender struct {
	phone string
	body  string
	err   error
}

func (r *recordingSender) Send(_ context.Context, phone, body string) error {
	r.phone, r.body = phone, body
	return r.err
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestAsynqQueueEnqueuesTypedTasks(t *testing.T) {
	client := &recordingEnqueuer{}
	queue := NewAsynqQueue(client, 3)
	msg := notify.BookingCreated{Phone: "5321234567", Code: "482913", CustomerName: "Ayse"}

	require.NoError(t, queue.EnqueueBookingCreated(context.Background(), msg))
	require.NoError(t, queue.EnqueueBookingStatus(context.Background(), notify.BookingStatus{Code: "482913", Status: "CANCELLED"}))

	require.Len(t, client.tasks, 2)
	assert.Equal(t, TypeBookingCreatedSMS, client.tasks[0].Type())
	assert.Equal(t, TypeBookingStatusSMS, client.tasks[1].Type())

	var decoded notify.BookingCreated
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &decoded))
	assert.Equal(t, msg, decoded)
}

func TestAsynqQueueWrapsEnqueueErrors(t *testing.T) {
	queue := NewAsynqQueue(&recordingEnqueuer{err: errors.New("redis down")}, 3)
	err := queue.EnqueueBookingCreated(context.Background(), notify.BookingCreated{})
	assert.ErrorContains(t, err, TypeBookingCreatedSMS)
}

func TestSMSHandlerDeliversRenderedText(t *testing.T) {
	sender := &recordingSender{}
	h := &smsHandler{sender: sender, logger: zap.NewNop()}
	msg := notify.BookingCreated{Phone: "5321234567", Code: "482913", CustomerName: "Ayse", Date: "2026-10-19", Time: "10:00"}
	task, err := NewBookingCreatedTask(msg, 3)
	require.NoError(t, err)

	require.NoError(t, h.handleBookingCreated(context.Background(), task))
	assert.Equal(t, "5321234567", sender.phone)
	assert.Equal(t, msg.Text(), sender.body)
}

func TestSMSHandlerSkipsRetryOnBadPayload(t *testing.T) {
	h := &smsHandler{sender: &recordingSender{}, logger: zap.NewNop()}
	err := h.handleBookingStatus(context.Background(), asynq.NewTask(TypeBookingStatusSMS, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSMSHandlerReturnsSendErrorsForRetry(t *testing.T) {
	boom := errors.New("gateway down")
	h := &smsHandler{sender: &recordingSender{err: boom}, logger: zap.NewNop()}
	task, err := NewBookingStatusTask(notify.BookingStatus{Phone: "5321234567", Status: "CONFIRMED"}, 3)
	require.NoError(t, err)
	assert.ErrorIs(t, h.handleBookingStatus(context.Background(), task), boom)
}
