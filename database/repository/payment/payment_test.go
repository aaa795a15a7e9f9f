package paymentRepo

import (
	"context"
	"testing"

	"ylgguide/models"
	"ylgguide/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionGuards(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPaymentRepo()
	require.NoError(t, repo.Create(ctx, &models.Payment{ID: "pay-1", BookingID: "bk-1", OrderID: "order_1", Status: models.PaymentCreated}))
	assert.Error(t, repo.Create(ctx, &models.Payment{ID: "pay-2", BookingID: "bk-1", OrderID: "order_2"}))

	p, applied, err := repo.Transition(ctx, "order_1", models.PaymentCaptured, models.PaymentOutcome{
		PaymentID: "pi_1", Source: models.SourceWebhook, SignatureVerified: true, RawPayload: `{"id":"evt_1"}`,
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.PaymentCaptured, p.Status)
	assert.Equal(t, "pi_1", p.PaymentID)
	assert.NotNil(t, p.CapturedAt)
	assert.Equal(t, 1, p.RetryCount)

	// A duplicate capture is not applied but still counted.
	p, applied, err = repo.Transition(ctx, "order_1", models.PaymentCaptured, models.PaymentOutcome{Source: models.SourceVerify})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.SourceWebhook, p.LastEventSource)
	assert.Equal(t, 2, p.RetryCount)

	_, applied, err = repo.Transition(ctx, "order_1", models.PaymentFailed, models.PaymentOutcome{FailureReason: "late"})
	require.NoError(t, err)
	assert.False(t, applied, "captured payments cannot fail")

	p, applied, err = repo.Transition(ctx, "order_1", models.PaymentRefunded, models.PaymentOutcome{})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.PaymentRefunded, p.Status)

	_, _, err = repo.Transition(ctx, "order_404", models.PaymentCaptured, models.PaymentOutcome{})
	assert.True(t, utils.IsNotFound(err))

	byBooking, err := repo.GetByBookingID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", byBooking.OrderID)
}

func TestSourcesFor(t *testing.T) {
	assert.ElementsMatch(t, []models.PaymentStatus{models.PaymentCreated, models.PaymentAuthorized}, models.SourcesFor(models.PaymentCaptured))
	assert.ElementsMatch(t, []models.PaymentStatus{models.PaymentCaptured}, models.SourcesFor(models.PaymentRefunded))
}
