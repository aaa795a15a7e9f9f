package paymentRepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ylgguide/models"
	"ylgguide/utils"
)

// MemoryPaymentRepo is an in-process PaymentRepository keyed by order id.
type MemoryPaymentRepo struct {
	mu       sync.Mutex
	byOrder  map[string]*models.Payment
	byBooker map[string]string
}

func NewMemoryPaymentRepo() *MemoryPaymentRepo {
	return &MemoryPaymentRepo{
		byOrder:  make(map[string]*models.Payment),
		byBooker: make(map[string]string),
	}
}

func (r *MemoryPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[payment.OrderID]; exists {
		return fmt.Errorf("error creating payment: duplicate order id %s", payment.OrderID)
	}
	if _, exists := r.byBooker[payment.BookingID]; exists {
		return fmt.Errorf("error creating payment: booking %s already has a payment", payment.BookingID)
	}
	stored := *payment
	r.byOrder[payment.OrderID] = &stored
	r.byBooker[payment.BookingID] = payment.OrderID
	return nil
}

func (r *MemoryPaymentRepo) GetByOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byOrder[orderID]
	if !ok {
		return nil, utils.NewNotFoundError("payment", orderID)
	}
	out := *p
	return &out, nil
}

func (r *MemoryPaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	r.mu.Lock()
	orderID, ok := r.byBooker[bookingID]
	r.mu.Unlock()
	if !ok {
		return nil, utils.NewNotFoundError("payment", bookingID)
	}
	return r.GetByOrderID(ctx, orderID)
}

func (r *MemoryPaymentRepo) Transition(_ context.Context, orderID string, to models.PaymentStatus, o models.PaymentOutcome) (*models.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byOrder[orderID]
	if !ok {
		return nil, false, utils.NewNotFoundError("payment", orderID)
	}
	if o.At.IsZero() {
		o.At = time.Now().UTC()
	}

	next := *current
	next.RetryCount++
	applied := models.CanTransition(current.Status, to)
	if applied {
		applyOutcome(&next, to, o)
	} else {
		next.UpdatedAt = o.At
	}
	r.byOrder[orderID] = &next

	out := next
	return &out, applied, nil
}
