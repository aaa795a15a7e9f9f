package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ylgguide/models"
	"ylgguide/services/payment"
	"ylgguide/utils"

	"go.uber.org/zap"
)

const defaultSeenTTL = 24 * time.Hour

func outcomeFrom(event *models.GatewayEvent, at time.Time) models.PaymentOutcome {
	return models.PaymentOutcome{
		TransactionID:     event.TransactionID,
		PaymentID:         event.PaymentID,
		Signature:         event.Signature,
		RawPayload:        string(event.Raw),
		SignatureVerified: event.SignatureVerified,
		Source:            event.Source,
		FailureReason:     event.FailureReason,
		At:                at,
	}
}

// ConfirmPayment records a captured payment and confirms its booking. Both
// steps are conditional updates, so concurrent deliveries for one order
// produce a single winner; only the winner issues the invoice and email.
// A capture confirms a cancelled booking too, since the money was taken.
func (s *DefaultBookingService) ConfirmPayment(ctx context.Context, event *models.GatewayEvent, opts ConfirmOptions) (*ConfirmationResult, error) {
	now := s.now()
	p, applied, err := s.Payments.Transition(ctx, event.OrderID, models.PaymentCaptured, outcomeFrom(event, now))
	if err != nil {
		return nil, err
	}
	if !applied && p.Status == models.PaymentFailed {
		return nil, utils.NewStateError("payment for order %s already failed", event.OrderID)
	}
	if applied && event.AmountMinor > 0 && event.AmountMinor != payment.ToMinor(p.Amount) {
		s.logger().Warn("Captured amount differs from order amount",
			zap.String("orderId", event.OrderID),
			zap.Int64("capturedMinor", event.AmountMinor),
			zap.Int64("expectedMinor", payment.ToMinor(p.Amount)))
	}

	paymentID := event.PaymentID
	if paymentID == "" {
		paymentID = p.PaymentID
	}
	prior, err := s.Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	won, err := s.Bookings.Confirm(ctx, p.BookingID, models.BookingConfirmation{
		PaymentID:   paymentID,
		ConfirmedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("confirm booking %s: %w", p.BookingID, err)
	}

	b, err := s.Bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	result := &ConfirmationResult{Booking: b, AlreadyConfirmed: !won}
	if !won {
		s.logger().Info("Booking already confirmed",
			zap.String("bookingId", b.ID), zap.String("source", string(event.Source)))
		return result, nil
	}

	if prior.BookingStatus == models.BookingCancelled {
		// The guest paid anyway; money taken wins over the cancellation.
		s.logger().Warn("Captured payment revived a cancelled booking",
			zap.String("bookingId", b.ID),
			zap.String("orderId", event.OrderID),
			zap.String("source", string(event.Source)))
	}

	s.logger().Info("Booking confirmed",
		zap.String("bookingId", b.ID),
		zap.String("orderId", event.OrderID),
		zap.String("source", string(event.Source)))

	if opts.InlineInvoice {
		result.Invoice, result.InvoiceErr = s.issueInvoiceInline(ctx, b)
		return result, nil
	}

	if err := s.Queue.EnqueuePostConfirmation(ctx, b.ID); err != nil {
		s.logger().Error("Failed to queue post-confirmation work", zap.String("bookingId", b.ID), zap.Error(err))
		result.InvoiceErr = err
	}
	return result, nil
}

// issueInvoiceInline creates the invoice under the follow-up timeout and
// queues the confirmation email once the artifact exists.
func (s *DefaultBookingService) issueInvoiceInline(ctx context.Context, b *models.Booking) (*models.Invoice, error) {
	invCtx, cancel := s.followUpContext(ctx)
	defer cancel()

	inv, err := s.Invoices.CreateInvoice(invCtx, b)
	if err != nil {
		s.logger().Error("Inline invoice creation failed", zap.String("bookingId", b.ID), zap.Error(err))
		return inv, err
	}
	if err := s.Queue.EnqueueInvoiceEmail(ctx, inv.ID, false); err != nil {
		s.logger().Error("Failed to queue confirmation email", zap.String("invoiceId", inv.ID), zap.Error(err))
	}
	return inv, nil
}

// MarkPaymentFailed records a failed payment. Unknown orders are logged and ignored.
func (s *DefaultBookingService) MarkPaymentFailed(ctx context.Context, event *models.GatewayEvent) error {
	p, applied, err := s.Payments.Transition(ctx, event.OrderID, models.PaymentFailed, outcomeFrom(event, s.now()))
	if utils.IsNotFound(err) {
		s.logger().Warn("Failure event for unknown order", zap.String("orderId", event.OrderID))
		return nil
	}
	if err != nil {
		return err
	}
	if !applied {
		s.logger().Info("Ignoring failure event", zap.String("orderId", event.OrderID), zap.String("status", string(p.Status)))
		return nil
	}
	if _, err := s.Bookings.MarkFailed(ctx, p.BookingID); err != nil {
		return fmt.Errorf("mark booking %s failed: %w", p.BookingID, err)
	}
	s.logger().Info("Payment failed",
		zap.String("bookingId", p.BookingID),
		zap.String("orderId", event.OrderID),
		zap.String("reason", event.FailureReason))
	return nil
}

// MarkRefunded records a refund of a captured payment.
func (s *DefaultBookingService) MarkRefunded(ctx context.Context, event *models.GatewayEvent) error {
	p, applied, err := s.Payments.Transition(ctx, event.OrderID, models.PaymentRefunded, outcomeFrom(event, s.now()))
	if utils.IsNotFound(err) {
		s.logger().Warn("Refund event for unknown order", zap.String("orderId", event.OrderID))
		return nil
	}
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}
	if _, err := s.Bookings.MarkRefunded(ctx, p.BookingID); err != nil {
		return fmt.Errorf("mark booking %s refunded: %w", p.BookingID, err)
	}
	s.logger().Info("Payment refunded", zap.String("bookingId", p.BookingID), zap.String("orderId", event.OrderID))
	return nil
}

// VerifyPayment confirms a booking after the client reports a completed
// payment, checking the order with the gateway first.
func (s *DefaultBookingService) VerifyPayment(ctx context.Context, req models.VerifyPaymentRequest) (*models.VerifyPaymentResponse, error) {
	b, err := s.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.GatewayOrderID == "" || b.GatewayOrderID != req.OrderID {
		return nil, utils.NewValidationError("order_id", "order does not belong to booking %s", b.ID)
	}

	gw := s.gatewayFor(b)
	status, err := gw.FetchOrderStatus(ctx, req.OrderID)
	if err != nil {
		return nil, &utils.GatewayError{Op: "fetch order status", Err: err}
	}
	if status.Status != models.EventCaptured {
		return nil, &utils.GatewayError{
			Op:         "verify payment",
			Incomplete: true,
			Err:        fmt.Errorf("order %s is %s", req.OrderID, status.Status),
		}
	}

	paymentID := status.PaymentID
	if paymentID == "" {
		paymentID = req.PaymentID
	}
	event := &models.GatewayEvent{
		Provider:          gw.Provider(),
		Status:            models.EventCaptured,
		OrderID:           req.OrderID,
		PaymentID:         paymentID,
		TransactionID:     status.TransactionID,
		Signature:         req.Signature,
		AmountMinor:       status.AmountMinor,
		SignatureVerified: !gw.Simulated(),
		Source:            models.SourceVerify,
	}
	result, err := s.ConfirmPayment(ctx, event, ConfirmOptions{InlineInvoice: true})
	if err != nil {
		return nil, err
	}

	resp := &models.VerifyPaymentResponse{BookingID: b.ID, InvoiceID: models.InvoicePending}
	inv, invErr := result.Invoice, result.InvoiceErr
	if result.AlreadyConfirmed {
		invCtx, cancel := s.followUpContext(ctx)
		inv, invErr = s.Invoices.CreateInvoice(invCtx, result.Booking)
		cancel()
	}
	if invErr != nil || inv == nil {
		s.logger().Warn("Invoice not ready after verification", zap.String("bookingId", b.ID), zap.Error(invErr))
		return resp, nil
	}
	resp.InvoiceID = inv.ID
	return resp, nil
}

// HandleWebhook verifies and normalizes a provider webhook and applies it.
// Redeliveries already seen are acknowledged without reprocessing.
func (s *DefaultBookingService) HandleWebhook(ctx context.Context, header http.Header, body []byte) error {
	event, err := s.Gateway.NormalizeWebhook(ctx, header, body)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			s.logger().Warn("Webhook rejected: invalid signature")
		}
		return err
	}

	switch event.Status {
	case models.EventCaptured, models.EventFailed, models.EventRefunded:
	default:
		s.logger().Debug("Ignoring webhook event", zap.String("eventId", event.EventID), zap.String("status", string(event.Status)))
		return nil
	}

	if s.Seen != nil && event.EventID != "" {
		ttl := s.SeenTTL
		if ttl <= 0 {
			ttl = defaultSeenTTL
		}
		first, err := s.Seen.MarkSeen(ctx, event.EventID, ttl)
		if err != nil {
			s.logger().Warn("Webhook dedupe unavailable", zap.Error(err))
		} else if !first {
			s.logger().Info("Duplicate webhook delivery", zap.String("eventId", event.EventID))
			return nil
		}
	}

	err = s.dispatchEvent(ctx, event)
	if err != nil && s.Seen != nil && event.EventID != "" {
		if fErr := s.Seen.Forget(ctx, event.EventID); fErr != nil {
			s.logger().Warn("Failed to clear webhook dedupe key", zap.String("eventId", event.EventID), zap.Error(fErr))
		}
	}
	return err
}

func (s *DefaultBookingService) dispatchEvent(ctx context.Context, event *models.GatewayEvent) error {
	switch event.Status {
	case models.EventCaptured:
		_, err := s.ConfirmPayment(ctx, event, ConfirmOptions{})
		if utils.IsNotFound(err) {
			s.logger().Warn("Capture event for unknown order", zap.String("orderId", event.OrderID))
			return nil
		}
		return err
	case models.EventFailed:
		return s.MarkPaymentFailed(ctx, event)
	case models.EventRefunded:
		return s.MarkRefunded(ctx, event)
	}
	return nil
}
