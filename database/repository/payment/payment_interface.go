package paymentRepo

import (
	"context"

	"ylgguide/models"
)

// PaymentRepository persists gateway orders and their outcomes.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error)

	// Transition moves the payment for orderID to status "to" if its current
	// status allows it (see models.CanTransition). It returns the payment as
	// stored afterwards and whether this call performed the transition. A
	// delivery that loses the guard still bumps retryCount so redeliveries
	// stay observable. Unknown orders yield a NotFoundError.
	Transition(ctx context.Context, orderID string, to models.PaymentStatus, outcome models.PaymentOutcome) (*models.Payment, bool, error)
}
