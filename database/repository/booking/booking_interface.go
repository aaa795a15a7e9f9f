package bookingRepo

import (
	"context"

	"ylgguide/models"
)

// BookingRepository persists bookings. Every status-changing method is a
// conditional update: it reports false, without error, when the booking exists
// but is not in a state the transition may start from.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error)

	// AssignOrder moves a pending booking to payment_initiated.
	AssignOrder(ctx context.Context, id string, assignment models.OrderAssignment) (bool, error)
	// Confirm moves any non-confirmed booking to confirmed/paid, setting confirmedAt once.
	// Cancelled bookings are included: a captured payment overrides a cancellation.
	Confirm(ctx context.Context, id string, confirmation models.BookingConfirmation) (bool, error)
	// MarkFailed moves a pending or payment_initiated booking to failed.
	MarkFailed(ctx context.Context, id string) (bool, error)
	// MarkRefunded flags the payment of a confirmed booking as refunded.
	MarkRefunded(ctx context.Context, id string) (bool, error)
	// Cancel moves an unpaid booking to cancelled.
	Cancel(ctx context.Context, id string) (bool, error)
}

var (
	failableStatuses    = []models.BookingStatus{models.BookingPending, models.BookingPaymentInitiated}
	cancellableStatuses = []models.BookingStatus{models.BookingPending, models.BookingPaymentInitiated, models.BookingFailed}
)

func statusIn(s models.BookingStatus, set []models.BookingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
