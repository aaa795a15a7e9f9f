package models

// GatewayOrder is what the gateway returns for a newly created order.
type GatewayOrder struct {
	OrderID      string
	Provider     string
	AmountMinor  int64
	Currency     string
	ClientSecret string
	Simulated    bool
}

// GatewayEventStatus is the normalized outcome carried by a webhook.
type GatewayEventStatus string

const (
	EventCaptured GatewayEventStatus = "captured"
	EventFailed   GatewayEventStatus = "failed"
	EventRefunded GatewayEventStatus = "refunded"
	EventPending  GatewayEventStatus = "pending"
	EventIgnored  GatewayEventStatus = "ignored"
)

// GatewayEvent is a provider webhook reduced to the fields the orchestrator needs.
type GatewayEvent struct {
	EventID           string
	Provider          string
	Status            GatewayEventStatus
	OrderID           string
	TransactionID     string
	PaymentID         string
	Signature         string
	AmountMinor       int64
	FailureReason     string
	Raw               []byte
	SignatureVerified bool
	Source            EventSource
}

// OrderStatus is the gateway's current view of an order, used by the verify path.
type OrderStatus struct {
	OrderID       string
	Status        GatewayEventStatus
	PaymentID     string
	TransactionID string
	AmountMinor   int64
}
