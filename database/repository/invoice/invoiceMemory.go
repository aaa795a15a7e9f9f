package invoiceRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"ylgguide/models"
	"ylgguide/utils"
)

// MemoryInvoiceRepo is an in-process InvoiceRepository enforcing the same
// uniqueness rules as the Mongo indexes.
type MemoryInvoiceRepo struct {
	mu        sync.Mutex
	invoices  map[string]*models.Invoice
	byBooking map[string]string
	byNumber  map[string]string
	counters  map[string]int64
}

func NewMemoryInvoiceRepo() *MemoryInvoiceRepo {
	return &MemoryInvoiceRepo{
		invoices:  make(map[string]*models.Invoice),
		byBooking: make(map[string]string),
		byNumber:  make(map[string]string),
		counters:  make(map[string]int64),
	}
}

func (r *MemoryInvoiceRepo) Create(_ context.Context, invoice *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byBooking[invoice.BookingID]; exists {
		return ErrDuplicateBooking
	}
	if _, exists := r.byNumber[invoice.InvoiceNumber]; exists {
		return ErrDuplicateNumber
	}
	stored := *invoice
	r.invoices[invoice.ID] = &stored
	r.byBooking[invoice.BookingID] = invoice.ID
	r.byNumber[invoice.InvoiceNumber] = invoice.ID
	return nil
}

func (r *MemoryInvoiceRepo) GetByID(_ context.Context, id string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *MemoryInvoiceRepo) GetByBookingID(_ context.Context, bookingID string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byBooking[bookingID]
	if !ok {
		return nil, utils.NewNotFoundError("invoice", bookingID)
	}
	return r.get(id)
}

func (r *MemoryInvoiceRepo) get(id string) (*models.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, utils.NewNotFoundError("invoice", id)
	}
	out := *inv
	return &out, nil
}

func (r *MemoryInvoiceRepo) UpdateArtifact(_ context.Context, id string, u models.ArtifactUpdate) error {
	return r.mutate(id, func(inv *models.Invoice) {
		inv.GenerationStatus = u.Status
		inv.GenerationError = u.Error
		if u.PDFKey != "" {
			inv.PDFKey = u.PDFKey
		}
		if u.GeneratedAt != nil {
			at := *u.GeneratedAt
			inv.GeneratedAt = &at
		}
	})
}

func (r *MemoryInvoiceRepo) RecordEmail(_ context.Context, id string, a models.EmailAttempt) error {
	return r.mutate(id, func(inv *models.Invoice) {
		inv.EmailAttempts += a.Tries
		if a.Sent {
			at := a.SentAt
			inv.EmailSent = true
			inv.EmailSentAt = &at
			inv.LastEmailError = ""
		} else {
			inv.LastEmailError = a.Error
		}
	})
}

func (r *MemoryInvoiceRepo) mutate(id string, fn func(*models.Invoice)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.invoices[id]
	if !ok {
		return utils.NewNotFoundError("invoice", id)
	}
	next := *current
	fn(&next)
	next.UpdatedAt = time.Now().UTC()
	r.invoices[id] = &next
	return nil
}

func (r *MemoryInvoiceRepo) ListNeedingGeneration(_ context.Context, olderThan time.Time, limit int) ([]*models.Invoice, error) {
	return r.filter(limit, func(inv *models.Invoice) bool {
		if !inv.UpdatedAt.Before(olderThan) {
			return false
		}
		for _, s := range regenerableStatuses {
			if inv.GenerationStatus == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *MemoryInvoiceRepo) ListUnsent(_ context.Context, maxAttempts int, olderThan time.Time, limit int) ([]*models.Invoice, error) {
	return r.filter(limit, func(inv *models.Invoice) bool {
		return inv.GenerationStatus == models.GenerationGenerated &&
			!inv.EmailSent &&
			inv.EmailAttempts < maxAttempts &&
			inv.UpdatedAt.Before(olderThan)
	}), nil
}

func (r *MemoryInvoiceRepo) filter(limit int, keep func(*models.Invoice) bool) []*models.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Invoice
	for _, inv := range r.invoices {
		if keep(inv) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *MemoryInvoiceRepo) NextSequence(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[key]++
	return r.counters[key], nil
}
