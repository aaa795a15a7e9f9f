package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ylgguide/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const stripeProvider = "stripe"

// StripeGateway maps gateway orders onto Stripe PaymentIntents.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

func NewStripeGateway(secretKey, webhookSecret string, logger *zap.Logger) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{api: sc, webhookSecret: webhookSecret, logger: logger}
}

func (g *StripeGateway) Provider() string { return stripeProvider }

func (g *StripeGateway) Simulated() bool { return false }

func (g *StripeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*models.GatewayOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amountMinor),
		Currency:    stripe.String(strings.ToLower(currency)),
		Description: stripe.String("Booking " + receipt),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", receipt)
	params.SetIdempotencyKey("booking-" + receipt)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent for %s: %w", receipt, err)
	}
	g.logger.Info("stripe payment intent created", zap.String("orderId", pi.ID), zap.String("receipt", receipt))

	return &models.GatewayOrder{
		OrderID:      pi.ID,
		Provider:     stripeProvider,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (g *StripeGateway) FetchOrderStatus(ctx context.Context, orderID string) (*models.OrderStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(orderID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent %s: %w", orderID, err)
	}
	status := &models.OrderStatus{
		OrderID:     pi.ID,
		Status:      intentStatus(pi.Status),
		PaymentID:   pi.ID,
		AmountMinor: pi.Amount,
	}
	if pi.LatestCharge != nil {
		status.TransactionID = pi.LatestCharge.ID
	}
	return status, nil
}

func intentStatus(s stripe.PaymentIntentStatus) models.GatewayEventStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return models.EventCaptured
	case stripe.PaymentIntentStatusCanceled:
		return models.EventFailed
	default:
		return models.EventPending
	}
}

// NormalizeWebhook verifies the Stripe-Signature header before decoding. A
// verification failure is always returned as ErrInvalidSignature.
func (g *StripeGateway) NormalizeWebhook(_ context.Context, header http.Header, body []byte) (*models.GatewayEvent, error) {
	event, err := webhook.ConstructEvent(body, header.Get("Stripe-Signature"), g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &models.GatewayEvent{
		EventID:           event.ID,
		Provider:          stripeProvider,
		Status:            models.EventIgnored,
		Raw:               body,
		SignatureVerified: true,
		Source:            models.SourceWebhook,
	}

	switch string(event.Type) {
	case "payment_intent.succeeded", "payment_intent.canceled", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.OrderID = pi.ID
		out.PaymentID = pi.ID
		out.AmountMinor = pi.Amount
		if pi.LatestCharge != nil {
			out.TransactionID = pi.LatestCharge.ID
		}
		switch string(event.Type) {
		case "payment_intent.succeeded":
			out.Status = models.EventCaptured
		case "payment_intent.canceled":
			out.Status = models.EventFailed
			out.FailureReason = "canceled"
			if pi.CancellationReason != "" {
				out.FailureReason = string(pi.CancellationReason)
			}
		default:
			// A failed attempt returns the intent to requires_payment_method;
			// the guest may still pay with another method.
			reason := ""
			if pi.LastPaymentError != nil {
				reason = pi.LastPaymentError.Msg
			}
			g.logger.Info("stripe payment attempt failed",
				zap.String("orderId", pi.ID), zap.String("eventId", event.ID), zap.String("reason", reason))
		}
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.OrderID = ch.PaymentIntent.ID
		}
		out.TransactionID = ch.ID
		out.AmountMinor = ch.AmountRefunded
		out.Status = models.EventRefunded
	default:
		g.logger.Debug("stripe event ignored", zap.String("type", string(event.Type)), zap.String("eventId", event.ID))
	}
	return out, nil
}
