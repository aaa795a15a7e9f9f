package payment

import (
	"context"
	"errors"
	"math"
	"net/http"

	"ylgguide/models"

	"go.uber.org/zap"
)

// ErrInvalidSignature is returned when a webhook fails provider signature verification.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// Gateway is the payment provider boundary: order creation, status lookup
// and webhook normalization.
type Gateway interface {
	Provider() string
	Simulated() bool
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*models.GatewayOrder, error)
	FetchOrderStatus(ctx context.Context, orderID string) (*models.OrderStatus, error)
	NormalizeWebhook(ctx context.Context, header http.Header, body []byte) (*models.GatewayEvent, error)
}

// Mode names the gateway implementation in use.
type Mode string

const (
	ModeStripe    Mode = "stripe"
	ModeSimulated Mode = "simulated"
)

// Settings are the configuration inputs to gateway selection.
type Settings struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	ForceMock           bool
}

// SelectMode decides the gateway from configuration alone. Stripe is used
// only when both its API key and webhook secret are present.
func SelectMode(s Settings) Mode {
	if s.ForceMock || s.StripeSecretKey == "" || s.StripeWebhookSecret == "" {
		return ModeSimulated
	}
	return ModeStripe
}

// NewGateway builds the gateway for the selected mode. Call it once at startup.
func NewGateway(s Settings, logger *zap.Logger) Gateway {
	switch SelectMode(s) {
	case ModeStripe:
		logger.Info("payment gateway selected", zap.String("mode", string(ModeStripe)))
		return NewStripeGateway(s.StripeSecretKey, s.StripeWebhookSecret, logger)
	default:
		logger.Warn("payment gateway running in simulated mode")
		return NewSimulatedGateway(logger)
	}
}

// ToMinor converts a money amount to integer minor units (paise, cents).
func ToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinor converts integer minor units back to a money amount.
func FromMinor(minor int64) float64 {
	return float64(minor) / 100
}
