package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer schedules follow-up work outside the request path.
type Enqueuer interface {
	EnqueuePostConfirmation(ctx context.Context, bookingID string) error
	EnqueueInvoiceEmail(ctx context.Context, invoiceID string, force bool) error
}

// AsynqEnqueuer pushes tasks to Redis for the asynq worker.
type AsynqEnqueuer struct {
	Client  *asynq.Client
	Timeout time.Duration
}

func NewAsynqEnqueuer(opt asynq.RedisClientOpt, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{Client: asynq.NewClient(opt), Timeout: timeout}
}

func (e *AsynqEnqueuer) EnqueuePostConfirmation(ctx context.Context, bookingID string) error {
	task, opts, err := NewPostConfirmationTask(bookingID, e.Timeout)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue post confirmation for %s: %w", bookingID, err)
	}
	return nil
}

func (e *AsynqEnqueuer) EnqueueInvoiceEmail(ctx context.Context, invoiceID string, force bool) error {
	task, opts, err := NewInvoiceEmailTask(invoiceID, force, e.Timeout)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue invoice email for %s: %w", invoiceID, err)
	}
	return nil
}

func (e *AsynqEnqueuer) Close() error {
	return e.Client.Close()
}

// InlineQueue runs tasks in background goroutines of this process through the
// same ServeMux the asynq worker uses. Tasks are not persisted.
type InlineQueue struct {
	Mux     *asynq.ServeMux
	Timeout time.Duration
	Logger  *zap.Logger

	wg sync.WaitGroup
}

func NewInlineQueue(mux *asynq.ServeMux, timeout time.Duration, logger *zap.Logger) *InlineQueue {
	return &InlineQueue{Mux: mux, Timeout: timeout, Logger: logger}
}

func (q *InlineQueue) EnqueuePostConfirmation(_ context.Context, bookingID string) error {
	task, _, err := NewPostConfirmationTask(bookingID, q.Timeout)
	if err != nil {
		return err
	}
	q.run(task)
	return nil
}

func (q *InlineQueue) EnqueueInvoiceEmail(_ context.Context, invoiceID string, force bool) error {
	task, _, err := NewInvoiceEmailTask(invoiceID, force, q.Timeout)
	if err != nil {
		return err
	}
	q.run(task)
	return nil
}

// run detaches the task from the caller's context so it outlives the request.
func (q *InlineQueue) run(task *asynq.Task) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx := context.Background()
		if q.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, q.Timeout)
			defer cancel()
		}
		if err := q.Mux.ProcessTask(ctx, task); err != nil && q.Logger != nil {
			q.Logger.Error("Background task failed", zap.String("type", task.Type()), zap.Error(err))
		}
	}()
}

// Wait blocks until every queued task has finished.
func (q *InlineQueue) Wait() {
	q.wg.Wait()
}
