package booking

import (
	"context"
	"errors"

	"ylgguide/models"
	"ylgguide/utils"

	"go.uber.org/zap"
)

func (s *DefaultBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

// CancelBooking cancels a booking that has not been paid. Cancelling twice is a no-op.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, id string) (*models.Booking, error) {
	cancelled, err := s.Bookings.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cancelled && b.BookingStatus != models.BookingCancelled {
		return nil, utils.NewStateError("booking %s is %s and cannot be cancelled", id, b.BookingStatus)
	}
	if cancelled {
		s.logger().Info("Booking cancelled", zap.String("bookingId", id))
	}
	return b, nil
}

// InvoiceForBooking goes through CreateInvoice even when the invoice exists,
// so a failed or abandoned artifact is rendered again on read. A render
// failure still returns the invoice alongside the error.
func (s *DefaultBookingService) InvoiceForBooking(ctx context.Context, bookingID string) (*models.Invoice, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.Invoices.CreateInvoice(ctx, b)
}

// RunPostConfirmation issues the invoice of a confirmed booking and sends the
// confirmation email. A failed email is recorded on the invoice and left to the sweep.
func (s *DefaultBookingService) RunPostConfirmation(ctx context.Context, bookingID string) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	inv, err := s.Invoices.CreateInvoice(ctx, b)
	if err != nil {
		return err
	}
	if inv.EmailSent {
		return nil
	}
	if _, err := s.Notifier.SendConfirmation(ctx, b, inv); err != nil {
		s.logger().Warn("Confirmation email not delivered", zap.String("bookingId", bookingID), zap.Error(err))
	}
	return nil
}

func (s *DefaultBookingService) SendInvoiceEmail(ctx context.Context, invoiceID string, force bool) error {
	_, err := s.Notifier.SendForInvoice(ctx, invoiceID, force)
	var deliveryErr *utils.DeliveryError
	if errors.As(err, &deliveryErr) {
		s.logger().Warn("Confirmation email not delivered", zap.String("invoiceId", invoiceID), zap.Error(err))
		return nil
	}
	return err
}
