package invoice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	invoiceRepo "ylgguide/database/repository/invoice"
	"ylgguide/models"
	"ylgguide/services/storage"
	"ylgguide/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakeRenderer) Render(_ context.Context, inv *models.Invoice) ([]byte, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, errors.New("renderer offline")
	}
	return []byte("%PDF " + inv.InvoiceNumber), nil
}

func (f *fakeRenderer) ContentType() string { return "application/pdf" }

type fixture struct {
	svc      *DefaultInvoiceService
	repo     *invoiceRepo.MemoryInvoiceRepo
	blobs    *storage.MemoryStore
	renderer *fakeRenderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := invoiceRepo.NewMemoryInvoiceRepo()
	blobs := storage.NewMemoryStore()
	renderer := &fakeRenderer{}
	tokens, err := NewTokenService("test-secret")
	require.NoError(t, err)

	return &fixture{
		svc: &DefaultInvoiceService{
			Repo:          repo,
			Blobs:         blobs,
			Renderer:      renderer,
			Numberer:      &Numberer{Counter: repo, Prefix: "INV"},
			Tokens:        tokens,
			PublicBaseURL: "https://api.example.com/",
		},
		repo:     repo,
		blobs:    blobs,
		renderer: renderer,
	}
}

func paidStay(id string) *models.Booking {
	confirmed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &models.Booking{
		ID:          id,
		BookingType: models.BookingTypeStay,
		Guest:       models.Guest{Name: "Asha Rao", Email: "asha@example.com"},
		Offering:    models.Offering{ListingID: "lst-1", Title: "Lakeside Cottage", Location: "Manali"},
		Stay:        &models.StayDetails{CheckIn: "2026-03-10", CheckOut: "2026-03-12", Nights: 2, Rooms: 1, Guests: 2},
		BaseAmount:  1000,
		GSTRate:     18,
		TaxAmount:   180,
		TotalAmount: 1180,
		Currency:    "INR",

		BookingStatus:    models.BookingConfirmed,
		PaymentStatus:    models.PaymentStatePaid,
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_1",
		ConfirmedAt:      &confirmed,
	}
}

func TestCreateInvoiceSnapshotsBooking(t *testing.T) {
	f := newFixture(t)
	booking := paidStay("bk-1")

	inv, err := f.svc.CreateInvoice(context.Background(), booking)
	require.NoError(t, err)

	assert.Regexp(t, `^INV-\d{4}-0001$`, inv.InvoiceNumber)
	assert.Equal(t, "bk-1", inv.BookingID)
	assert.Equal(t, models.BookingTypeStay, inv.BookingType)
	assert.Equal(t, 1000.0, inv.BaseAmount)
	assert.Equal(t, 180.0, inv.GSTAmount)
	assert.Equal(t, 1180.0, inv.TotalAmount)
	assert.Equal(t, "pay_1", inv.PaymentID)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, models.GenerationGenerated, inv.GenerationStatus)
	assert.Equal(t, ArtifactKey(inv.ID), inv.PDFKey)

	// The snapshot is a copy; later booking edits do not leak into it.
	booking.Stay.Nights = 9
	stored, err := f.repo.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stay.Nights)
	assert.Nil(t, stored.Guide)
}

func TestCreateInvoiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	booking := paidStay("bk-1")

	first, err := f.svc.CreateInvoice(context.Background(), booking)
	require.NoError(t, err)
	second, err := f.svc.CreateInvoice(context.Background(), booking)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.Equal(t, int32(1), f.renderer.calls.Load())
}

func TestCreateInvoiceConcurrentCallersShareOneInvoice(t *testing.T) {
	f := newFixture(t)
	booking := paidStay("bk-race")

	const callers = 20
	ids := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.svc.CreateInvoice(context.Background(), booking)
			if assert.NoError(t, err) {
				ids <- inv.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	unique := map[string]bool{}
	for id := range ids {
		unique[id] = true
	}
	assert.Len(t, unique, 1)
}

func TestCreateInvoiceRejectsUnpaidBooking(t *testing.T) {
	f := newFixture(t)
	booking := paidStay("bk-unpaid")
	booking.BookingStatus = models.BookingPaymentInitiated
	booking.PaymentStatus = models.PaymentStateProcessing

	_, err := f.svc.CreateInvoice(context.Background(), booking)
	var stateErr *utils.StateError
	assert.ErrorAs(t, err, &stateErr)

	f.svc.LenientBackfill = true
	inv, err := f.svc.CreateInvoice(context.Background(), booking)
	require.NoError(t, err)
	assert.Equal(t, "bk-unpaid", inv.BookingID)
}

func TestCreateInvoiceSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.CreateInvoice(context.Background(), paidStay("bk-a"))
	require.NoError(t, err)
	b, err := f.svc.CreateInvoice(context.Background(), paidStay("bk-b"))
	require.NoError(t, err)

	_, _, seqA, err := ParseNumber(a.InvoiceNumber)
	require.NoError(t, err)
	_, _, seqB, err := ParseNumber(b.InvoiceNumber)
	require.NoError(t, err)
	assert.Equal(t, seqA+1, seqB)
}

func TestGenerationFailureKeepsInvoice(t *testing.T) {
	f := newFixture(t)
	f.renderer.fail.Store(true)

	inv, err := f.svc.CreateInvoice(context.Background(), paidStay("bk-1"))
	var genErr *utils.GenerationError
	require.ErrorAs(t, err, &genErr)
	require.NotNil(t, inv)
	assert.Equal(t, models.GenerationFailed, inv.GenerationStatus)

	stored, err := f.repo.GetByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationFailed, stored.GenerationStatus)
	assert.Contains(t, stored.GenerationError, "renderer offline")

	f.renderer.fail.Store(false)
	again, err := f.svc.CreateInvoice(context.Background(), paidStay("bk-1"))
	require.NoError(t, err)
	assert.Equal(t, stored.ID, again.ID)
	assert.Equal(t, models.GenerationGenerated, again.GenerationStatus)
}

func TestOpenArtifact(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.CreateInvoice(context.Background(), paidStay("bk-1"))
	require.NoError(t, err)

	token := f.svc.Tokens.Issue(inv.ID)
	got, data, err := f.svc.OpenArtifact(context.Background(), inv.ID, token)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, "%PDF "+inv.InvoiceNumber, string(data))

	_, _, err = f.svc.OpenArtifact(context.Background(), inv.ID, "deadbeef")
	var tokenErr *utils.TokenError
	assert.ErrorAs(t, err, &tokenErr)

	other := "missing-invoice"
	_, _, err = f.svc.OpenArtifact(context.Background(), other, f.svc.Tokens.Issue(other))
	assert.True(t, utils.IsNotFound(err))
}

func TestLoadArtifactRegeneratesMissingBlob(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.CreateInvoice(context.Background(), paidStay("bk-1"))
	require.NoError(t, err)
	require.NoError(t, f.blobs.Delete(context.Background(), inv.PDFKey))

	data, err := f.svc.LoadArtifact(context.Background(), inv)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, int32(2), f.renderer.calls.Load())
}

func TestRegenerateKeepsNumberAndAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.CreateInvoice(ctx, paidStay("bk-1"))
	require.NoError(t, err)
	require.NoError(t, f.blobs.Delete(ctx, inv.PDFKey))

	again, err := f.svc.Regenerate(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.renderer.calls.Load())

	stored, err := f.repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	for _, got := range []*models.Invoice{again, stored} {
		assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
		assert.Equal(t, inv.BookingID, got.BookingID)
		assert.Equal(t, inv.Guest, got.Guest)
		assert.Equal(t, inv.Stay, got.Stay)
		assert.Equal(t, inv.BaseAmount, got.BaseAmount)
		assert.Equal(t, inv.GSTRate, got.GSTRate)
		assert.Equal(t, inv.GSTAmount, got.GSTAmount)
		assert.Equal(t, inv.TotalAmount, got.TotalAmount)
		assert.Equal(t, models.GenerationGenerated, got.GenerationStatus)
	}

	ok, err := f.blobs.Exists(ctx, stored.PDFKey)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.Regenerate(ctx, "missing-invoice")
	assert.True(t, utils.IsNotFound(err))
}

func TestCreateInvoiceLeavesInFlightGeneration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.CreateInvoice(ctx, paidStay("bk-1"))
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateArtifact(ctx, inv.ID, models.ArtifactUpdate{Status: models.GenerationGenerating}))

	got, err := f.svc.CreateInvoice(ctx, paidStay("bk-1"))
	require.NoError(t, err)
	assert.Equal(t, models.GenerationGenerating, got.GenerationStatus)
	assert.Equal(t, int32(1), f.renderer.calls.Load())

	f.svc.Now = func() time.Time { return time.Now().UTC().Add(time.Minute) }
	got, err = f.svc.CreateInvoice(ctx, paidStay("bk-1"))
	require.NoError(t, err)
	assert.Equal(t, models.GenerationGenerated, got.GenerationStatus)
	assert.Equal(t, int32(2), f.renderer.calls.Load())
}

func TestDownloadURL(t *testing.T) {
	f := newFixture(t)
	url := f.svc.DownloadURL("inv-1")
	assert.True(t, strings.HasPrefix(url, "https://api.example.com/invoices/inv-1/download?token="))
	assert.True(t, f.svc.Tokens.Verify("inv-1", strings.TrimPrefix(url, "https://api.example.com/invoices/inv-1/download?token=")))
}

func TestRetryStaleGenerations(t *testing.T) {
	f := newFixture(t)
	f.renderer.fail.Store(true)
	_, err := f.svc.CreateInvoice(context.Background(), paidStay("bk-1"))
	require.Error(t, err)

	f.renderer.fail.Store(false)
	f.svc.Now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	n, err := f.svc.RetryStaleGenerations(context.Background(), time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.repo.GetByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationGenerated, stored.GenerationStatus)
}
