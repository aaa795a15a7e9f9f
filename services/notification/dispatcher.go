package notification

import (
	"context"
	"fmt"
	"time"

	"ylgguide/models"
	"ylgguide/utils"

	"go.uber.org/zap"
)

// Dispatcher renders and sends confirmation emails and records each dispatch on the invoice.
type Dispatcher struct {
	Mailer      Mailer
	Invoices    InvoiceSource
	Tracker     DeliveryTracker
	Bookings    BookingReader
	MaxAttempts int
	Logger      *zap.Logger

	// Sleep waits between attempts; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff is the wait after the given zero-based attempt: 2^attempt seconds.
func Backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// SendWithRetry tries msg up to maxAttempts times and reports how many tries were made.
func (d *Dispatcher) SendWithRetry(ctx context.Context, msg models.EmailMessage, maxAttempts int) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := d.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, Backoff(attempt-1)); err != nil {
				return attempt, &utils.DeliveryError{Attempts: attempt, Err: lastErr}
			}
		}
		lastErr = d.Mailer.Send(ctx, msg)
		if lastErr == nil {
			return attempt + 1, nil
		}
		d.logger().Warn("Email send failed",
			zap.String("to", msg.To), zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}
	return maxAttempts, &utils.DeliveryError{Attempts: maxAttempts, Err: lastErr}
}

func (d *Dispatcher) SendConfirmation(ctx context.Context, booking *models.Booking, invoice *models.Invoice) (models.DeliveryResult, error) {
	downloadURL := ""
	if invoice != nil {
		downloadURL = d.Invoices.DownloadURL(invoice.ID)
	}
	msg, err := RenderConfirmation(booking, invoice, downloadURL)
	if err != nil {
		return models.DeliveryResult{}, err
	}

	if invoice != nil && invoice.GenerationStatus == models.GenerationGenerated {
		pdf, err := d.Invoices.LoadArtifact(ctx, invoice)
		if err != nil {
			d.logger().Warn("Sending confirmation without invoice attachment",
				zap.String("invoiceId", invoice.ID), zap.Error(err))
		} else {
			msg.Attachments = append(msg.Attachments, models.EmailAttachment{
				Filename:    fmt.Sprintf("Invoice-%s.pdf", invoice.InvoiceNumber),
				ContentType: "application/pdf",
				Data:        pdf,
			})
		}
	}

	tries, sendErr := d.SendWithRetry(ctx, msg, d.MaxAttempts)
	result := models.DeliveryResult{Sent: sendErr == nil, Attempts: tries}
	if sendErr != nil {
		result.Error = sendErr.Error()
	}

	if invoice != nil {
		attempt := models.EmailAttempt{Tries: tries, Sent: result.Sent, Error: result.Error, SentAt: d.now()}
		if err := d.Tracker.RecordEmail(ctx, invoice.ID, attempt); err != nil {
			d.logger().Error("Failed to record email attempt", zap.String("invoiceId", invoice.ID), zap.Error(err))
		}
	}

	if sendErr != nil {
		return result, sendErr
	}
	d.logger().Info("Confirmation email sent",
		zap.String("bookingId", booking.ID), zap.String("to", msg.To), zap.Int("attempts", tries))
	return result, nil
}

func (d *Dispatcher) SendForInvoice(ctx context.Context, invoiceID string, force bool) (models.DeliveryResult, error) {
	inv, err := d.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return models.DeliveryResult{}, err
	}
	if inv.EmailSent && !force {
		return models.DeliveryResult{Sent: true}, nil
	}
	booking, err := d.Bookings.GetByID(ctx, inv.BookingID)
	if err != nil {
		return models.DeliveryResult{}, fmt.Errorf("load booking for invoice %s: %w", invoiceID, err)
	}
	return d.SendConfirmation(ctx, booking, inv)
}

func (d *Dispatcher) Resend(ctx context.Context, invoiceID string) (models.DeliveryResult, error) {
	return d.SendForInvoice(ctx, invoiceID, true)
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}
