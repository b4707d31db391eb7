package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"outlandish/models"

	"github.com/hibiken/asynq"
)

const TypePaymentReceipt = "payment:receipt"

// NewReceiptTask builds the receipt task for an applied payment. The task id is derived from
// the checkout session so a payment can only ever queue one receipt.
func NewReceiptTask(payload models.ReceiptPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypePaymentReceipt, b)
	opts := []asynq.Option{
		asynq.TaskID("receipt:" + payload.SessionID),
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}
	return task, opts, nil
}

// ParseReceiptTask decodes a receipt task's payload.
func ParseReceiptTask(task *asynq.Task) (models.ReceiptPayload, error) {
	var p models.ReceiptPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}

// AsynqReceiptQueue enqueues receipt tasks on the asynq Redis queue.
type AsynqReceiptQueue struct {
	client *asynq.Client
}

func NewAsynqReceiptQueue(client *asynq.Client) *AsynqReceiptQueue {
	return &AsynqReceiptQueue{client: client}
}

// EnqueueReceipt queues the receipt. A receipt already queued for the session is not an error.
func (q *AsynqReceiptQueue) EnqueueReceipt(ctx context.Context, payload models.ReceiptPayload) error {
	task, opts, err := NewReceiptTask(payload)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return err
	}
	return nil
}
