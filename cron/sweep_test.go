package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	invoiceRepo "ylgguide/database/repository/invoice"
	"ylgguide/models"
	"ylgguide/services/invoice"
	"ylgguide/services/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyRenderer struct{ fail atomic.Bool }

func (r *flakyRenderer) Render(_ context.Context, inv *models.Invoice) ([]byte, error) {
	if r.fail.Load() {
		return nil, errors.New("renderer down")
	}
	return []byte("%PDF " + inv.InvoiceNumber), nil
}

func (r *flakyRenderer) ContentType() string { return "application/pdf" }

type recordingQueue struct {
	mu     sync.Mutex
	emails []string
}

func (q *recordingQueue) EnqueuePostConfirmation(context.Context, string) error { return nil }

func (q *recordingQueue) EnqueueInvoiceEmail(_ context.Context, invoiceID string, _ bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.emails = append(q.emails, invoiceID)
	return nil
}

func paidBooking(id string) *models.Booking {
	at := time.Now().UTC()
	return &models.Booking{
		ID:            id,
		BookingType:   models.BookingTypeGuide,
		Guest:         models.Guest{Name: "Ravi", Email: "ravi@example.com"},
		Guide:         &models.GuideDetails{TrekDate: "2026-11-20", Slot: "am", PartySize: "2"},
		BaseAmount:    100,
		GSTRate:       18,
		TaxAmount:     18,
		TotalAmount:   118,
		Currency:      "INR",
		BookingStatus: models.BookingConfirmed,
		PaymentStatus: models.PaymentStatePaid,
		ConfirmedAt:   &at,
	}
}

func TestSweepRegeneratesAndRequeues(t *testing.T) {
	repo := invoiceRepo.NewMemoryInvoiceRepo()
	renderer := &flakyRenderer{}
	tokens, err := invoice.NewTokenService("secret")
	require.NoError(t, err)
	svc := &invoice.DefaultInvoiceService{
		Repo:     repo,
		Blobs:    storage.NewMemoryStore(),
		Renderer: renderer,
		Numberer: &invoice.Numberer{Counter: repo, Prefix: "INV"},
		Tokens:   tokens,
	}

	renderer.fail.Store(true)
	_, err = svc.CreateInvoice(context.Background(), paidBooking("bk-1"))
	require.Error(t, err)
	renderer.fail.Store(false)

	queue := &recordingQueue{}
	later := time.Now().UTC().Add(time.Hour)
	svc.Now = func() time.Time { return later }
	sweeper := &Sweeper{
		Invoices:         svc,
		Repo:             repo,
		Queue:            queue,
		MaxEmailAttempts: 3,
		StaleAfter:       time.Minute,
		BatchSize:        10,
		Logger:           zap.NewNop(),
		Now:              func() time.Time { return later },
	}

	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Regenerated)
	assert.Equal(t, 1, report.EmailsQueued)

	inv, err := repo.GetByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationGenerated, inv.GenerationStatus)
	assert.Equal(t, []string{inv.ID}, queue.emails)

	// Exhausted invoices are left alone.
	require.NoError(t, repo.RecordEmail(context.Background(), inv.ID, models.EmailAttempt{Tries: 9, Error: "bounced"}))
	sweeper.Now = func() time.Time { return later.Add(time.Hour) }
	report, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.EmailsQueued)
}

func TestStartSweepRejectsBadSpec(t *testing.T) {
	_, err := StartSweep("every now and then", &Sweeper{Logger: zap.NewNop()}, time.Second)
	assert.Error(t, err)
}

func TestStartSweepSchedules(t *testing.T) {
	c, err := StartSweep("@every 1h", &Sweeper{Logger: zap.NewNop()}, time.Second)
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}
