package bookingRepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ylgguide/models"
	"ylgguide/utils"
)

// MemoryBookingRepo is an in-process BookingRepository. Conditional updates
// are compare-and-set under a single mutex.
type MemoryBookingRepo struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *MemoryBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; exists {
		return fmt.Errorf("error creating booking %s: duplicate id", booking.ID)
	}
	stored := *booking
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, utils.NewNotFoundError("booking", id)
	}
	out := *b
	return &out, nil
}

func (r *MemoryBookingRepo) GetByOrderID(_ context.Context, orderID string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bookings {
		if b.GatewayOrderID == orderID {
			out := *b
			return &out, nil
		}
	}
	return nil, utils.NewNotFoundError("booking", orderID)
}

func (r *MemoryBookingRepo) AssignOrder(_ context.Context, id string, a models.OrderAssignment) (bool, error) {
	return r.compareAndSet(id, func(b *models.Booking) bool {
		if b.BookingStatus != models.BookingPending {
			return false
		}
		b.BookingStatus = models.BookingPaymentInitiated
		b.PaymentStatus = models.PaymentStateProcessing
		b.Provider = a.Provider
		b.GatewayOrderID = a.OrderID
		b.IsMock = a.IsMock
		b.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (r *MemoryBookingRepo) Confirm(_ context.Context, id string, c models.BookingConfirmation) (bool, error) {
	return r.compareAndSet(id, func(b *models.Booking) bool {
		if b.BookingStatus == models.BookingConfirmed {
			return false
		}
		at := c.ConfirmedAt
		b.BookingStatus = models.BookingConfirmed
		b.PaymentStatus = models.PaymentStatePaid
		b.ConfirmedAt = &at
		b.UpdatedAt = at
		if c.PaymentID != "" {
			b.GatewayPaymentID = c.PaymentID
		}
		return true
	})
}

func (r *MemoryBookingRepo) MarkFailed(_ context.Context, id string) (bool, error) {
	return r.compareAndSet(id, func(b *models.Booking) bool {
		if !statusIn(b.BookingStatus, failableStatuses) {
			return false
		}
		b.BookingStatus = models.BookingFailed
		b.PaymentStatus = models.PaymentStateFailed
		b.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (r *MemoryBookingRepo) MarkRefunded(_ context.Context, id string) (bool, error) {
	return r.compareAndSet(id, func(b *models.Booking) bool {
		if b.BookingStatus != models.BookingConfirmed || b.PaymentStatus == models.PaymentStateRefunded {
			return false
		}
		b.PaymentStatus = models.PaymentStateRefunded
		b.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (r *MemoryBookingRepo) Cancel(_ context.Context, id string) (bool, error) {
	return r.compareAndSet(id, func(b *models.Booking) bool {
		if !statusIn(b.BookingStatus, cancellableStatuses) {
			return false
		}
		b.BookingStatus = models.BookingCancelled
		b.UpdatedAt = time.Now().UTC()
		return true
	})
}

// compareAndSet runs mutate on a copy and stores it only when mutate reports a change.
func (r *MemoryBookingRepo) compareAndSet(id string, mutate func(*models.Booking) bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.bookings[id]
	if !ok {
		return false, utils.NewNotFoundError("booking", id)
	}
	next := *current
	if !mutate(&next) {
		return false, nil
	}
	r.bookings[id] = &next
	return true, nil
}
