package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFollowUp struct {
	mu       sync.Mutex
	bookings []string
	invoices []string
	forced   []bool
	fail     bool
}

func (r *recordingFollowUp) RunPostConfirmation(_ context.Context, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, bookingID)
	if r.fail {
		return errors.New("invoice store down")
	}
	return nil
}

func (r *recordingFollowUp) SendInvoiceEmail(_ context.Context, invoiceID string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices = append(r.invoices, invoiceID)
	r.forced = append(r.forced, force)
	return nil
}

func TestServeMuxRoutesTasks(t *testing.T) {
	f := &recordingFollowUp{}
	mux := NewServeMux(f)

	task, opts, err := NewPostConfirmationTask("bk-1", time.Minute)
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	require.NoError(t, mux.ProcessTask(context.Background(), task))

	task, _, err = NewInvoiceEmailTask("inv-1", true, 0)
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))

	assert.Equal(t, []string{"bk-1"}, f.bookings)
	assert.Equal(t, []string{"inv-1"}, f.invoices)
	assert.Equal(t, []bool{true}, f.forced)
}

func TestServeMuxRejectsBadPayload(t *testing.T) {
	mux := NewServeMux(&recordingFollowUp{})
	err := mux.ProcessTask(context.Background(), asynq.NewTask(TypePostConfirmation, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestInlineQueueRunsInBackground(t *testing.T) {
	f := &recordingFollowUp{}
	q := NewInlineQueue(NewServeMux(f), time.Second, nil)

	require.NoError(t, q.EnqueuePostConfirmation(context.Background(), "bk-1"))
	require.NoError(t, q.EnqueueInvoiceEmail(context.Background(), "inv-9", false))
	q.Wait()

	assert.Equal(t, []string{"bk-1"}, f.bookings)
	assert.Equal(t, []string{"inv-9"}, f.invoices)
}

func TestInlineQueueSwallowsHandlerError(t *testing.T) {
	f := &recordingFollowUp{fail: true}
	q := NewInlineQueue(NewServeMux(f), 0, nil)

	require.NoError(t, q.EnqueuePostConfirmation(context.Background(), "bk-1"))
	q.Wait()
	assert.Len(t, f.bookings, 1)
}
