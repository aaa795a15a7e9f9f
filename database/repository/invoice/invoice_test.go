package invoiceRepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"ylgguide/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newInvoice(id, bookingID, number string) *models.Invoice {
	return &models.Invoice{
		ID:               id,
		BookingID:        bookingID,
		InvoiceNumber:    number,
		GenerationStatus: models.GenerationPending,
	}
}

func TestMemoryUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInvoiceRepo()

	require.NoError(t, repo.Create(ctx, newInvoice("inv-1", "bk-1", "INV-2026-0001")))
	assert.ErrorIs(t, repo.Create(ctx, newInvoice("inv-2", "bk-1", "INV-2026-0002")), ErrDuplicateBooking)
	assert.ErrorIs(t, repo.Create(ctx, newInvoice("inv-3", "bk-2", "INV-2026-0001")), ErrDuplicateNumber)

	got, err := repo.GetByBookingID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", got.ID)
}

func TestMemoryCountersPerKey(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInvoiceRepo()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextSequence(ctx, "INV-2026")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := repo.NextSequence(ctx, "INV-2027")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestMemoryEmailTracking(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryInvoiceRepo()
	require.NoError(t, repo.Create(ctx, newInvoice("inv-1", "bk-1", "INV-2026-0001")))
	now := time.Now().UTC()
	require.NoError(t, repo.UpdateArtifact(ctx, "inv-1", models.ArtifactUpdate{Status: models.GenerationGenerated, PDFKey: "invoices/inv-1.pdf", GeneratedAt: &now}))

	require.NoError(t, repo.RecordEmail(ctx, "inv-1", models.EmailAttempt{Tries: 3, Error: "smtp: 421"}))
	unsent, err := repo.ListUnsent(ctx, 9, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.Equal(t, 3, unsent[0].EmailAttempts)
	assert.Equal(t, "smtp: 421", unsent[0].LastEmailError)

	require.NoError(t, repo.RecordEmail(ctx, "inv-1", models.EmailAttempt{Tries: 1, Sent: true, SentAt: now}))
	inv, err := repo.GetByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.True(t, inv.EmailSent)
	assert.Equal(t, 4, inv.EmailAttempts)
	assert.Empty(t, inv.LastEmailError)

	unsent, err = repo.ListUnsent(ctx, 9, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, unsent)
}

func TestMongoCreateDuplicates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	cases := []struct {
		name    string
		message string
		want    error
	}{
		{"booking", "E11000 duplicate key error collection: ylgguide.invoices index: unique_booking_id dup key", ErrDuplicateBooking},
		{"number", "E11000 duplicate key error collection: ylgguide.invoices index: unique_invoice_number dup key", ErrDuplicateNumber},
	}
	for _, tc := range cases {
		mt.Run(tc.name, func(mt *mtest.T) {
			repo := &MongoInvoiceRepo{coll: mt.Coll}
			mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: tc.message,
			}))

			err := repo.Create(context.Background(), newInvoice("inv-1", "bk-1", "INV-2026-0001"))
			assert.True(mt, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestMongoNextSequence(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("increments", func(mt *mtest.T) {
		repo := &MongoInvoiceRepo{coll: mt.Coll, counters: mt.Coll}
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: "INV-2026"}, {Key: "seq", Value: int64(7)}}},
		})

		seq, err := repo.NextSequence(context.Background(), "INV-2026")
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), seq)
	})
}
