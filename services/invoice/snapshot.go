package invoice

import (
	"time"

	"ylgguide/models"

	"github.com/google/uuid"
)

// ArtifactKey is the blob store key of an invoice PDF.
func ArtifactKey(invoiceID string) string {
	return "invoices/" + invoiceID + ".pdf"
}

// NewInvoiceFromBooking builds a pending invoice carrying a frozen copy of the
// booking's guest, offering, variant details and financials.
func NewInvoiceFromBooking(b *models.Booking, number string, now time.Time) *models.Invoice {
	inv := &models.Invoice{
		ID:               uuid.New().String(),
		InvoiceNumber:    number,
		BookingID:        b.ID,
		BookingType:      b.BookingType,
		Guest:            b.Guest,
		Offering:         b.Offering,
		OrderID:          b.GatewayOrderID,
		PaymentID:        b.GatewayPaymentID,
		BaseAmount:       b.BaseAmount,
		GSTRate:          b.GSTRate,
		GSTAmount:        b.TaxAmount,
		TotalAmount:      b.TotalAmount,
		Currency:         b.Currency,
		GenerationStatus: models.GenerationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	switch b.BookingType {
	case models.BookingTypeStay:
		if b.Stay != nil {
			stay := *b.Stay
			inv.Stay = &stay
		}
	case models.BookingTypeGuide:
		if b.Guide != nil {
			guide := *b.Guide
			inv.Guide = &guide
		}
	}
	if b.ConfirmedAt != nil {
		paid := *b.ConfirmedAt
		inv.PaidAt = &paid
	}
	return inv
}
