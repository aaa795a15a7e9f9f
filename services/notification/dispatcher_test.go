package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	invoiceRepo "ylgguide/database/repository/invoice"
	"ylgguide/models"
	"ylgguide/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu       sync.Mutex
	failures int
	sent     []models.EmailMessage
	calls    int
}

func (m *fakeMailer) Send(_ context.Context, msg models.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeInvoices struct {
	repo *invoiceRepo.MemoryInvoiceRepo
	pdf  []byte
}

func (f *fakeInvoices) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	return f.repo.GetByID(ctx, id)
}

func (f *fakeInvoices) LoadArtifact(_ context.Context, _ *models.Invoice) ([]byte, error) {
	if f.pdf == nil {
		return nil, errors.New("no artifact")
	}
	return f.pdf, nil
}

func (f *fakeInvoices) DownloadURL(id string) string {
	return "https://api.example.com/invoices/" + id + "/download?token=abc"
}

type bookingMap map[string]*models.Booking

func (m bookingMap) GetByID(_ context.Context, id string) (*models.Booking, error) {
	b, ok := m[id]
	if !ok {
		return nil, utils.NewNotFoundError("booking", id)
	}
	return b, nil
}

func guideBooking() *models.Booking {
	return &models.Booking{
		ID:          "bk-1",
		BookingType: models.BookingTypeGuide,
		Guest:       models.Guest{Name: "Meera", Email: "meera@example.com"},
		Offering:    models.Offering{Title: "Triund Trek", HostName: "Karan"},
		Guide:       &models.GuideDetails{TrekDate: "2026-11-02", Slot: "dawn", PartySize: "3"},
		BaseAmount:  10000,
		TaxAmount:   1800,
		TotalAmount: 11800,
		Currency:    "INR",
	}
}

type dispatcherFixture struct {
	d      *Dispatcher
	mailer *fakeMailer
	repo   *invoiceRepo.MemoryInvoiceRepo
	sleeps []time.Duration
}

func newDispatcherFixture(t *testing.T) (*dispatcherFixture, *models.Invoice) {
	t.Helper()
	repo := invoiceRepo.NewMemoryInvoiceRepo()
	inv := &models.Invoice{
		ID:               "inv-1",
		InvoiceNumber:    "INV-2026-0001",
		BookingID:        "bk-1",
		BookingType:      models.BookingTypeGuide,
		TotalAmount:      11800,
		GSTAmount:        1800,
		Currency:         "INR",
		GenerationStatus: models.GenerationGenerated,
	}
	require.NoError(t, repo.Create(context.Background(), inv))

	f := &dispatcherFixture{mailer: &fakeMailer{}, repo: repo}
	f.d = &Dispatcher{
		Mailer:      f.mailer,
		Invoices:    &fakeInvoices{repo: repo, pdf: []byte("%PDF-1.3")},
		Tracker:     repo,
		Bookings:    bookingMap{"bk-1": guideBooking()},
		MaxAttempts: 3,
		Sleep: func(_ context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			return nil
		},
	}
	return f, inv
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, Backoff(0))
	assert.Equal(t, 2*time.Second, Backoff(1))
	assert.Equal(t, 4*time.Second, Backoff(2))
}

func TestSendConfirmationAttachesInvoice(t *testing.T) {
	f, inv := newDispatcherFixture(t)

	result, err := f.d.SendConfirmation(context.Background(), guideBooking(), inv)
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, 1, result.Attempts)

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "meera@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Triund Trek")
	assert.Contains(t, msg.Text, "Trek date: 2026-11-02")
	assert.Contains(t, msg.HTML, "INV-2026-0001")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "Invoice-INV-2026-0001.pdf", msg.Attachments[0].Filename)

	stored, err := f.repo.GetByID(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.True(t, stored.EmailSent)
	assert.NotNil(t, stored.EmailSentAt)
	assert.Equal(t, 1, stored.EmailAttempts)
}

func TestSendConfirmationRetriesWithBackoff(t *testing.T) {
	f, inv := newDispatcherFixture(t)
	f.mailer.failures = 2

	result, err := f.d.SendConfirmation(context.Background(), guideBooking(), inv)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeps)

	stored, err := f.repo.GetByID(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.EmailAttempts)
	assert.True(t, stored.EmailSent)
}

func TestSendConfirmationRecordsFailure(t *testing.T) {
	f, inv := newDispatcherFixture(t)
	f.mailer.failures = 10

	result, err := f.d.SendConfirmation(context.Background(), guideBooking(), inv)
	var deliveryErr *utils.DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, 3, deliveryErr.Attempts)
	assert.False(t, result.Sent)

	stored, err := f.repo.GetByID(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.False(t, stored.EmailSent)
	assert.Equal(t, 3, stored.EmailAttempts)
	assert.Contains(t, stored.LastEmailError, "smtp unavailable")
}

func TestSendConfirmationWithoutArtifact(t *testing.T) {
	f, inv := newDispatcherFixture(t)
	f.d.Invoices.(*fakeInvoices).pdf = nil

	_, err := f.d.SendConfirmation(context.Background(), guideBooking(), inv)
	require.NoError(t, err)
	require.Len(t, f.mailer.sent, 1)
	assert.Empty(t, f.mailer.sent[0].Attachments)
}

func TestSendForInvoiceSkipsSent(t *testing.T) {
	f, _ := newDispatcherFixture(t)

	_, err := f.d.SendForInvoice(context.Background(), "inv-1", false)
	require.NoError(t, err)
	_, err = f.d.SendForInvoice(context.Background(), "inv-1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.mailer.calls)

	_, err = f.d.Resend(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.mailer.calls)
}

func TestSendWithRetryStopsOnCancel(t *testing.T) {
	f, _ := newDispatcherFixture(t)
	f.mailer.failures = 10
	f.d.Sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tries, err := f.d.SendWithRetry(ctx, models.EmailMessage{To: "x@example.com"}, 5)
	assert.Error(t, err)
	assert.Equal(t, 1, tries)
}

func TestRenderConfirmationStay(t *testing.T) {
	b := &models.Booking{
		ID:          "bk-2",
		BookingType: models.BookingTypeStay,
		Guest:       models.Guest{Name: "Ali", Email: "ali@example.com"},
		Offering:    models.Offering{Title: "Pine Lodge", Location: "Kasol"},
		Stay:        &models.StayDetails{CheckIn: "2026-12-01", CheckOut: "2026-12-03", Rooms: 1, Guests: 2},
		TotalAmount: 2360,
		TaxAmount:   360,
		Currency:    "INR",
	}
	msg, err := RenderConfirmation(b, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Your stay is confirmed: Pine Lodge", msg.Subject)
	assert.Contains(t, msg.Text, "Check-in: 2026-12-01")
	assert.Contains(t, msg.Text, "INR 2360.00")
	assert.NotContains(t, msg.HTML, "Download your invoice")

	b.Stay = nil
	_, err = RenderConfirmation(b, nil, "")
	assert.Error(t, err)
}

func TestSMTPMailerBuild(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "bookings@example.com", FromName: "Bookings"})
	gm := m.Build(models.EmailMessage{To: "ali@example.com", ToName: "Ali", Subject: "Hi", Text: "t", HTML: "<p>h</p>"})
	assert.Equal(t, []string{"Hi"}, gm.GetHeader("Subject"))
	assert.Len(t, gm.GetHeader("To"), 1)
}
