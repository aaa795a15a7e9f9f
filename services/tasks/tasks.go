package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ylgguide/models"

	"github.com/hibiken/asynq"
)

const (
	TypePostConfirmation = "booking:post_confirmation"
	TypeInvoiceEmail     = "invoice:send"

	maxRetry = 5
)

func NewPostConfirmationTask(bookingID string, timeout time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.PostConfirmationPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypePostConfirmation, b)
	return task, taskOptions(timeout), nil
}

func NewInvoiceEmailTask(invoiceID string, force bool, timeout time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.InvoiceEmailPayload{InvoiceID: invoiceID, Force: force})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeInvoiceEmail, b)
	return task, taskOptions(timeout), nil
}

func taskOptions(timeout time.Duration) []asynq.Option {
	opts := []asynq.Option{asynq.MaxRetry(maxRetry)}
	if timeout > 0 {
		opts = append(opts, asynq.Timeout(timeout))
	}
	return opts
}

// FollowUp is the work run after a booking is confirmed.
type FollowUp interface {
	// RunPostConfirmation issues the booking's invoice and emails it.
	RunPostConfirmation(ctx context.Context, bookingID string) error
	SendInvoiceEmail(ctx context.Context, invoiceID string, force bool) error
}

// NewServeMux routes both task types to f. The same mux serves the asynq
// worker and the in-process queue.
func NewServeMux(f FollowUp) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePostConfirmation, func(ctx context.Context, t *asynq.Task) error {
		var p models.PostConfirmationPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
		return f.RunPostConfirmation(ctx, p.BookingID)
	})
	mux.HandleFunc(TypeInvoiceEmail, func(ctx context.Context, t *asynq.Task) error {
		var p models.InvoiceEmailPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
		return f.SendInvoiceEmail(ctx, p.InvoiceID, p.Force)
	})
	return mux
}
