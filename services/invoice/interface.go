package invoice

import (
	"context"
	"time"

	"ylgguide/models"
)

// InvoiceService issues invoices for paid bookings and serves their artifacts.
type InvoiceService interface {
	// CreateInvoice returns the booking's invoice, issuing it on first call.
	// An existing invoice whose artifact another caller started rendering
	// less than 30s ago is returned as is, with GenerationStatus pending or
	// generating; callers needing the PDF should use LoadArtifact.
	CreateInvoice(ctx context.Context, booking *models.Booking) (*models.Invoice, error)
	// Regenerate re-renders the artifact of an existing invoice. The number,
	// snapshot and amounts are never touched.
	Regenerate(ctx context.Context, invoiceID string) (*models.Invoice, error)
	GetByID(ctx context.Context, invoiceID string) (*models.Invoice, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Invoice, error)
	// OpenArtifact checks the download token and returns the invoice with its PDF bytes.
	OpenArtifact(ctx context.Context, invoiceID, token string) (*models.Invoice, []byte, error)
	// LoadArtifact returns the PDF bytes without a token check.
	LoadArtifact(ctx context.Context, inv *models.Invoice) ([]byte, error)
	DownloadURL(invoiceID string) string
	RetryStaleGenerations(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}
