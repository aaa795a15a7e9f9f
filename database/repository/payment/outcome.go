package paymentRepo

import (
	"ylgguide/models"

	"go.mongodb.org/mongo-driver/bson"
)

// outcomeFields lists the document fields a transition to "to" writes.
func outcomeFields(to models.PaymentStatus, o models.PaymentOutcome) bson.M {
	set := bson.M{
		"status":          to,
		"lastEventSource": o.Source,
		"updatedAt":       o.At,
	}
	if o.RawPayload != "" {
		set["rawPayload"] = o.RawPayload
	}
	switch to {
	case models.PaymentCaptured:
		set["capturedAt"] = o.At
		set["signatureVerified"] = o.SignatureVerified
		if o.PaymentID != "" {
			set["paymentId"] = o.PaymentID
		}
		if o.TransactionID != "" {
			set["transactionId"] = o.TransactionID
		}
		if o.Signature != "" {
			set["signature"] = o.Signature
		}
	case models.PaymentFailed:
		set["failureReason"] = o.FailureReason
	}
	return set
}

// applyOutcome is the in-memory counterpart of outcomeFields.
func applyOutcome(p *models.Payment, to models.PaymentStatus, o models.PaymentOutcome) {
	p.Status = to
	p.LastEventSource = o.Source
	p.UpdatedAt = o.At
	if o.RawPayload != "" {
		p.RawPayload = o.RawPayload
	}
	switch to {
	case models.PaymentCaptured:
		at := o.At
		p.CapturedAt = &at
		p.SignatureVerified = o.SignatureVerified
		if o.PaymentID != "" {
			p.PaymentID = o.PaymentID
		}
		if o.TransactionID != "" {
			p.TransactionID = o.TransactionID
		}
		if o.Signature != "" {
			p.Signature = o.Signature
		}
	case models.PaymentFailed:
		p.FailureReason = o.FailureReason
	}
}
