package invoice

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	invoiceRepo "ylgguide/database/repository/invoice"
	"ylgguide/models"
	"ylgguide/services/storage"
	"ylgguide/utils"

	"go.uber.org/zap"
)

const (
	maxNumberAttempts = 3
	// generationGrace is how long a pending or generating artifact is left
	// alone before a reader regenerates it.
	generationGrace = 30 * time.Second
)

// DefaultInvoiceService implements InvoiceService.
type DefaultInvoiceService struct {
	Repo     invoiceRepo.InvoiceRepository
	Blobs    storage.BlobStore
	Renderer Renderer
	Numberer *Numberer
	Tokens   *TokenService
	Logger   *zap.Logger

	// LenientBackfill allows invoices for bookings that are not yet paid.
	LenientBackfill bool
	PublicBaseURL   string
	Now             func() time.Time
}

func (s *DefaultInvoiceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *DefaultInvoiceService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *DefaultInvoiceService) CreateInvoice(ctx context.Context, booking *models.Booking) (*models.Invoice, error) {
	if booking == nil {
		return nil, utils.NewValidationError("booking", "booking is required")
	}
	if !booking.IsPaid() && !s.LenientBackfill {
		return nil, utils.NewStateError("booking %s is not paid", booking.ID)
	}

	existing, err := s.Repo.GetByBookingID(ctx, booking.ID)
	if err == nil {
		return s.ensureArtifact(ctx, existing)
	}
	if !utils.IsNotFound(err) {
		return nil, fmt.Errorf("lookup invoice for booking %s: %w", booking.ID, err)
	}

	inv, err := s.insert(ctx, booking)
	if errors.Is(err, invoiceRepo.ErrDuplicateBooking) {
		// Another caller issued it first.
		winner, getErr := s.Repo.GetByBookingID(ctx, booking.ID)
		if getErr != nil {
			return nil, fmt.Errorf("reload invoice for booking %s: %w", booking.ID, getErr)
		}
		return s.ensureArtifact(ctx, winner)
	}
	if err != nil {
		return nil, err
	}

	s.logger().Info("Invoice issued",
		zap.String("invoiceId", inv.ID),
		zap.String("invoiceNumber", inv.InvoiceNumber),
		zap.String("bookingId", booking.ID))

	return s.generate(ctx, inv)
}

func (s *DefaultInvoiceService) insert(ctx context.Context, booking *models.Booking) (*models.Invoice, error) {
	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		now := s.now()
		number, err := s.Numberer.Next(ctx, now)
		if err != nil {
			return nil, err
		}
		inv := NewInvoiceFromBooking(booking, number, now)
		err = s.Repo.Create(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, invoiceRepo.ErrDuplicateNumber) {
			return nil, err
		}
		s.logger().Warn("Invoice number collision, retrying",
			zap.String("invoiceNumber", number), zap.Int("attempt", attempt+1))
		lastErr = err
	}
	return nil, fmt.Errorf("issue invoice for booking %s: %w", booking.ID, lastErr)
}

func (s *DefaultInvoiceService) Regenerate(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	inv, err := s.Repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, inv)
}

func (s *DefaultInvoiceService) GetByID(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	return s.Repo.GetByID(ctx, invoiceID)
}

func (s *DefaultInvoiceService) GetByBookingID(ctx context.Context, bookingID string) (*models.Invoice, error) {
	return s.Repo.GetByBookingID(ctx, bookingID)
}

func (s *DefaultInvoiceService) OpenArtifact(ctx context.Context, invoiceID, token string) (*models.Invoice, []byte, error) {
	if !s.Tokens.Verify(invoiceID, token) {
		return nil, nil, &utils.TokenError{Reason: "invalid download token"}
	}
	inv, err := s.Repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.LoadArtifact(ctx, inv)
	if err != nil {
		return nil, nil, err
	}
	return inv, data, nil
}

// LoadArtifact returns the stored PDF, regenerating it when it is missing or stale.
func (s *DefaultInvoiceService) LoadArtifact(ctx context.Context, inv *models.Invoice) ([]byte, error) {
	key := inv.PDFKey
	if key == "" {
		key = ArtifactKey(inv.ID)
	}
	if inv.GenerationStatus == models.GenerationGenerated {
		data, err := s.Blobs.Get(ctx, key)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, &utils.GenerationError{InvoiceID: inv.ID, Err: err}
		}
		s.logger().Warn("Invoice artifact missing from storage, regenerating", zap.String("invoiceId", inv.ID))
	}

	regenerated, err := s.generate(ctx, inv)
	if err != nil {
		return nil, err
	}
	data, err := s.Blobs.Get(ctx, regenerated.PDFKey)
	if err != nil {
		return nil, &utils.GenerationError{InvoiceID: inv.ID, Err: err}
	}
	return data, nil
}

func (s *DefaultInvoiceService) DownloadURL(invoiceID string) string {
	base := strings.TrimRight(s.PublicBaseURL, "/")
	return fmt.Sprintf("%s/invoices/%s/download?token=%s",
		base, url.PathEscape(invoiceID), url.QueryEscape(s.Tokens.Issue(invoiceID)))
}

// RetryStaleGenerations regenerates artifacts left pending, generating or failed.
func (s *DefaultInvoiceService) RetryStaleGenerations(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	stale, err := s.Repo.ListNeedingGeneration(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, inv := range stale {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if _, err := s.generate(ctx, inv); err != nil {
			s.logger().Warn("Invoice regeneration failed", zap.String("invoiceId", inv.ID), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}

// ensureArtifact regenerates a missing or failed artifact. One that is still
// in flight inside generationGrace is left to its owner and returned
// unfinished.
func (s *DefaultInvoiceService) ensureArtifact(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	switch inv.GenerationStatus {
	case models.GenerationGenerated:
		if inv.PDFKey != "" {
			ok, err := s.Blobs.Exists(ctx, inv.PDFKey)
			if err == nil && ok {
				return inv, nil
			}
		}
	case models.GenerationPending, models.GenerationGenerating:
		if s.now().Sub(inv.UpdatedAt) < generationGrace {
			return inv, nil
		}
	}
	return s.generate(ctx, inv)
}

// generate renders the invoice and stores the artifact. The invoice is
// returned with its updated generation fields even when generation fails.
func (s *DefaultInvoiceService) generate(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	if err := s.Repo.UpdateArtifact(ctx, inv.ID, models.ArtifactUpdate{Status: models.GenerationGenerating}); err != nil {
		return inv, err
	}
	inv.GenerationStatus = models.GenerationGenerating
	inv.UpdatedAt = s.now()

	key := ArtifactKey(inv.ID)
	data, err := s.Renderer.Render(ctx, inv)
	if err == nil {
		err = s.Blobs.Put(ctx, key, data, s.Renderer.ContentType())
	}
	if err != nil {
		s.logger().Error("Invoice generation failed", zap.String("invoiceId", inv.ID), zap.Error(err))
		if upErr := s.Repo.UpdateArtifact(ctx, inv.ID, models.ArtifactUpdate{
			Status: models.GenerationFailed,
			Error:  err.Error(),
		}); upErr != nil {
			s.logger().Error("Failed to record generation failure", zap.String("invoiceId", inv.ID), zap.Error(upErr))
		}
		inv.GenerationStatus = models.GenerationFailed
		inv.GenerationError = err.Error()
		return inv, &utils.GenerationError{InvoiceID: inv.ID, Err: err}
	}

	generatedAt := s.now()
	if err := s.Repo.UpdateArtifact(ctx, inv.ID, models.ArtifactUpdate{
		Status:      models.GenerationGenerated,
		PDFKey:      key,
		GeneratedAt: &generatedAt,
	}); err != nil {
		return inv, err
	}
	inv.GenerationStatus = models.GenerationGenerated
	inv.GenerationError = ""
	inv.PDFKey = key
	inv.GeneratedAt = &generatedAt
	inv.UpdatedAt = generatedAt
	return inv, nil
}
