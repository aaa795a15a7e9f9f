package notification

import (
	"context"

	"ylgguide/models"
)

// Mailer delivers one rendered email.
type Mailer interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

// ConfirmationService sends booking confirmation emails with the invoice attached.
type ConfirmationService interface {
	SendConfirmation(ctx context.Context, booking *models.Booking, invoice *models.Invoice) (models.DeliveryResult, error)
	// SendForInvoice sends the confirmation for an invoice. Already-sent invoices
	// are skipped unless force is set.
	SendForInvoice(ctx context.Context, invoiceID string, force bool) (models.DeliveryResult, error)
	Resend(ctx context.Context, invoiceID string) (models.DeliveryResult, error)
}

// InvoiceSource is the part of the invoice service the dispatcher needs.
type InvoiceSource interface {
	GetByID(ctx context.Context, invoiceID string) (*models.Invoice, error)
	LoadArtifact(ctx context.Context, inv *models.Invoice) ([]byte, error)
	DownloadURL(invoiceID string) string
}

// DeliveryTracker persists email attempts on the invoice.
type DeliveryTracker interface {
	RecordEmail(ctx context.Context, invoiceID string, attempt models.EmailAttempt) error
}

// BookingReader loads the booking an invoice was issued for.
type BookingReader interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}
