package invoiceRepo

import (
	"context"
	"errors"
	"time"

	"ylgguide/models"
)

var (
	// ErrDuplicateBooking means an invoice already exists for the booking.
	ErrDuplicateBooking = errors.New("invoice already exists for booking")
	// ErrDuplicateNumber means the invoice number is already taken.
	ErrDuplicateNumber = errors.New("invoice number already issued")
)

// InvoiceRepository persists invoices and the per-year numbering counters.
type InvoiceRepository interface {
	// Create inserts a new invoice, failing with ErrDuplicateBooking or
	// ErrDuplicateNumber when a unique constraint is hit.
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Invoice, error)

	// UpdateArtifact changes only the generation fields.
	UpdateArtifact(ctx context.Context, id string, update models.ArtifactUpdate) error
	// RecordEmail adds attempt.Tries to emailAttempts and, on success, marks the email sent.
	RecordEmail(ctx context.Context, id string, attempt models.EmailAttempt) error

	// ListNeedingGeneration returns invoices whose artifact is not generated and
	// that were last touched before olderThan.
	ListNeedingGeneration(ctx context.Context, olderThan time.Time, limit int) ([]*models.Invoice, error)
	// ListUnsent returns generated invoices whose email is not sent and has been
	// tried fewer than maxAttempts times.
	ListUnsent(ctx context.Context, maxAttempts int, olderThan time.Time, limit int) ([]*models.Invoice, error)

	// NextSequence atomically advances the counter named key and returns the new value.
	NextSequence(ctx context.Context, key string) (int64, error)
}

var regenerableStatuses = []models.GenerationStatus{
	models.GenerationPending,
	models.GenerationGenerating,
	models.GenerationFailed,
}
