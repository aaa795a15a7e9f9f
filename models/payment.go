package models

import "time"

// PaymentStatus is the gateway-side lifecycle of a payment attempt.
type PaymentStatus string

const (
	PaymentCreated    PaymentStatus = "created"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentFailed     PaymentStatus = "failed"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentCreated:    {PaymentAuthorized, PaymentCaptured, PaymentFailed},
	PaymentAuthorized: {PaymentCaptured, PaymentFailed},
	PaymentCaptured:   {PaymentRefunded},
}

// CanTransition reports whether a payment may move from one status to another.
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor lists the statuses a payment may be in before moving to target.
func SourcesFor(target PaymentStatus) []PaymentStatus {
	var out []PaymentStatus
	for _, from := range []PaymentStatus{PaymentCreated, PaymentAuthorized, PaymentCaptured} {
		if CanTransition(from, target) {
			out = append(out, from)
		}
	}
	return out
}

// EventSource records which path delivered a payment outcome.
type EventSource string

const (
	SourceWebhook EventSource = "webhook"
	SourceVerify  EventSource = "verify"
	SourceAuto    EventSource = "auto"
)

// Payment is one gateway order and its outcome.
type Payment struct {
	ID            string        `bson:"id" json:"id"`
	BookingID     string        `bson:"bookingId" json:"bookingId"`
	Provider      string        `bson:"provider" json:"provider"`
	OrderID       string        `bson:"orderId" json:"orderId"`
	TransactionID string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	PaymentID     string        `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	Signature     string        `bson:"signature,omitempty" json:"-"`
	Amount        float64       `bson:"amount" json:"amount"`
	Currency      string        `bson:"currency" json:"currency"`
	Status        PaymentStatus `bson:"status" json:"status"`

	RawPayload        string      `bson:"rawPayload,omitempty" json:"-"`
	SignatureVerified bool        `bson:"signatureVerified" json:"signatureVerified"`
	LastEventSource   EventSource `bson:"lastEventSource,omitempty" json:"lastEventSource,omitempty"`
	RetryCount        int         `bson:"retryCount" json:"retryCount"`
	FailureReason     string      `bson:"failureReason,omitempty" json:"failureReason,omitempty"`

	CapturedAt *time.Time `bson:"capturedAt,omitempty" json:"capturedAt,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// PaymentOutcome is what a captured, failed or refunded event writes onto a payment.
type PaymentOutcome struct {
	TransactionID     string
	PaymentID         string
	Signature         string
	RawPayload        string
	SignatureVerified bool
	Source            EventSource
	FailureReason     string
	At                time.Time
}
