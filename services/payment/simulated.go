package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ylgguide/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	simulatedProvider = "simulated"
	simOrderPrefix    = "order_sim_"
	simPaymentPrefix  = "pay_sim_"
)

// SimulatedGateway never leaves the process. Every order it issues is
// treated as capturable.
type SimulatedGateway struct {
	logger *zap.Logger
}

func NewSimulatedGateway(logger *zap.Logger) *SimulatedGateway {
	return &SimulatedGateway{logger: logger}
}

func (g *SimulatedGateway) Provider() string { return simulatedProvider }

func (g *SimulatedGateway) Simulated() bool { return true }

func (g *SimulatedGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*models.GatewayOrder, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("simulated order for %s: amount must be positive", receipt)
	}
	order := &models.GatewayOrder{
		OrderID:     simOrderPrefix + uuid.New().String(),
		Provider:    simulatedProvider,
		AmountMinor: amountMinor,
		Currency:    currency,
		Simulated:   true,
	}
	g.logger.Debug("simulated order created", zap.String("orderId", order.OrderID), zap.String("receipt", receipt))
	return order, nil
}

// SimulatedPaymentID is the payment id the simulated gateway reports for an order.
func SimulatedPaymentID(orderID string) string {
	return simPaymentPrefix + strings.TrimPrefix(orderID, simOrderPrefix)
}

func (g *SimulatedGateway) FetchOrderStatus(_ context.Context, orderID string) (*models.OrderStatus, error) {
	if orderID == "" {
		return nil, errors.New("order id is empty")
	}
	return &models.OrderStatus{
		OrderID:       orderID,
		Status:        models.EventCaptured,
		PaymentID:     SimulatedPaymentID(orderID),
		TransactionID: SimulatedPaymentID(orderID),
	}, nil
}

type simulatedWebhook struct {
	EventID   string `json:"eventId"`
	Event     string `json:"event"`
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

// NormalizeWebhook accepts an unsigned JSON body:
// {"event": "payment.captured", "orderId": "...", "paymentId": "...", "amount": 1180000}.
func (g *SimulatedGateway) NormalizeWebhook(_ context.Context, _ http.Header, body []byte) (*models.GatewayEvent, error) {
	var w simulatedWebhook
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("malformed simulated webhook: %w", err)
	}
	if w.OrderID == "" {
		return nil, errors.New("malformed simulated webhook: missing orderId")
	}

	status := models.EventIgnored
	switch strings.ToLower(w.Event) {
	case "payment.captured", "captured":
		status = models.EventCaptured
	case "payment.failed", "failed":
		status = models.EventFailed
	case "refund.processed", "refunded":
		status = models.EventRefunded
	}

	paymentID := w.PaymentID
	if paymentID == "" {
		paymentID = SimulatedPaymentID(w.OrderID)
	}
	eventID := w.EventID
	if eventID == "" {
		eventID = fmt.Sprintf("sim:%s:%s", w.OrderID, status)
	}

	return &models.GatewayEvent{
		EventID:       eventID,
		Provider:      simulatedProvider,
		Status:        status,
		OrderID:       w.OrderID,
		PaymentID:     paymentID,
		TransactionID: paymentID,
		AmountMinor:   w.Amount,
		FailureReason: w.Reason,
		Raw:           body,
		Source:        models.SourceWebhook,
	}, nil
}
