package booking

import (
	"context"
	"fmt"

	"ylgguide/models"
	"ylgguide/services/payment"
	"ylgguide/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitBooking validates the request, prices it, persists a pending booking
// and opens a gateway order for it.
func (s *DefaultBookingService) SubmitBooking(ctx context.Context, req *models.BookingRequest) (*models.SubmitBookingResponse, error) {
	intent, err := DecodeIntent(req)
	if err != nil {
		return nil, err
	}
	if err := intent.check(s.checker(), s.today()); err != nil {
		return nil, err
	}

	common := intent.Common()
	charges := ComputeCharges(common.BaseAmount, s.GSTRate)
	if common.ClientTotal > 0 && roundMoney(common.ClientTotal) != charges.Total {
		s.logger().Warn("Client total disagrees with computed charges; using computed total",
			zap.Float64("clientTotal", common.ClientTotal),
			zap.Float64("computedTotal", charges.Total))
	}

	now := s.now()
	b := &models.Booking{
		ID:          uuid.New().String(),
		BookingType: intent.Kind(),
		Guest: models.Guest{
			Name:  common.Guest.Name,
			Email: common.Guest.Email,
			Phone: common.Guest.Phone,
		},
		Offering: models.Offering{
			ListingID: common.Offering.ListingID,
			Title:     common.Offering.Title,
			Location:  common.Offering.Location,
			HostName:  common.Offering.HostName,
		},
		BaseAmount:      charges.Base,
		GSTRate:         charges.Rate,
		TaxAmount:       charges.Tax,
		TotalAmount:     charges.Total,
		Currency:        s.Currency,
		BookingStatus:   models.BookingPending,
		PaymentStatus:   models.PaymentStateUnpaid,
		SpecialRequests: common.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	intent.apply(b)

	if err := s.Bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}

	order, gw, err := s.createOrder(ctx, b)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:        uuid.New().String(),
		BookingID: b.ID,
		Provider:  order.Provider,
		OrderID:   order.OrderID,
		Amount:    b.TotalAmount,
		Currency:  b.Currency,
		Status:    models.PaymentCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment for booking %s: %w", b.ID, err)
	}

	assigned, err := s.Bookings.AssignOrder(ctx, b.ID, models.OrderAssignment{
		Provider: order.Provider,
		OrderID:  order.OrderID,
		IsMock:   order.Simulated,
	})
	if err != nil {
		return nil, fmt.Errorf("link order to booking %s: %w", b.ID, err)
	}
	if !assigned {
		return nil, utils.NewStateError("booking %s is no longer pending", b.ID)
	}

	s.logger().Info("Booking submitted",
		zap.String("bookingId", b.ID),
		zap.String("bookingType", string(b.BookingType)),
		zap.String("orderId", order.OrderID),
		zap.Bool("isMock", order.Simulated))

	if gw.Simulated() && s.AutoCapture {
		s.autoCapture(ctx, gw, b.ID, order.OrderID)
	}

	return &models.SubmitBookingResponse{
		BookingID:    b.ID,
		OrderID:      order.OrderID,
		Amount:       b.TotalAmount,
		Currency:     b.Currency,
		IsMockMode:   order.Simulated,
		ClientSecret: order.ClientSecret,
	}, nil
}

// createOrder opens the order on the configured gateway, falling back to the
// simulated gateway when allowed.
func (s *DefaultBookingService) createOrder(ctx context.Context, b *models.Booking) (*models.GatewayOrder, payment.Gateway, error) {
	amount := payment.ToMinor(b.TotalAmount)
	order, err := s.Gateway.CreateOrder(ctx, amount, b.Currency, b.ID)
	if err == nil {
		return order, s.Gateway, nil
	}

	if !s.MockFallback || s.Fallback == nil || s.Gateway.Simulated() {
		s.logger().Error("Gateway order creation failed", zap.String("bookingId", b.ID), zap.Error(err))
		return nil, nil, &utils.GatewayError{Op: "create order", Err: err}
	}

	s.logger().Warn("Gateway order creation failed; issuing simulated order",
		zap.String("bookingId", b.ID), zap.Error(err))
	order, fbErr := s.Fallback.CreateOrder(ctx, amount, b.Currency, b.ID)
	if fbErr != nil {
		return nil, nil, &utils.GatewayError{Op: "create order", Err: fbErr}
	}
	return order, s.Fallback, nil
}

func (s *DefaultBookingService) autoCapture(ctx context.Context, gw payment.Gateway, bookingID, orderID string) {
	event := &models.GatewayEvent{
		EventID:       "auto:" + orderID,
		Provider:      gw.Provider(),
		Status:        models.EventCaptured,
		OrderID:       orderID,
		PaymentID:     payment.SimulatedPaymentID(orderID),
		TransactionID: payment.SimulatedPaymentID(orderID),
		Source:        models.SourceAuto,
	}
	if _, err := s.ConfirmPayment(ctx, event, ConfirmOptions{}); err != nil {
		s.logger().Error("Simulated auto-capture failed", zap.String("bookingId", bookingID), zap.Error(err))
	}
}
