package cron

import (
	"context"
	"fmt"
	"time"

	invoiceRepo "ylgguide/database/repository/invoice"
	"ylgguide/services/invoice"
	"ylgguide/services/tasks"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// emailDispatches is how many full dispatches an invoice email gets in total.
const emailDispatches = 3

// Sweeper retries invoice work that did not finish on the request path.
type Sweeper struct {
	Invoices         invoice.InvoiceService
	Repo             invoiceRepo.InvoiceRepository
	Queue            tasks.Enqueuer
	MaxEmailAttempts int
	StaleAfter       time.Duration
	BatchSize        int
	Logger           *zap.Logger
	Now              func() time.Time
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Regenerated  int
	EmailsQueued int
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Sweep regenerates stale or failed artifacts and requeues unsent emails.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	regenerated, err := s.Invoices.RetryStaleGenerations(ctx, s.StaleAfter, s.BatchSize)
	report.Regenerated = regenerated
	if err != nil {
		return report, fmt.Errorf("retry stale generations: %w", err)
	}

	unsent, err := s.Repo.ListUnsent(ctx, s.MaxEmailAttempts*emailDispatches, s.now().Add(-s.StaleAfter), s.BatchSize)
	if err != nil {
		return report, fmt.Errorf("list unsent invoices: %w", err)
	}
	for _, inv := range unsent {
		if err := s.Queue.EnqueueInvoiceEmail(ctx, inv.ID, false); err != nil {
			s.Logger.Warn("Failed to queue invoice email", zap.String("invoiceId", inv.ID), zap.Error(err))
			continue
		}
		report.EmailsQueued++
	}
	return report, nil
}

// StartSweep schedules Sweep on spec (standard cron syntax or descriptors such as "@every 10m").
func StartSweep(spec string, sweeper *Sweeper, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		report, err := sweeper.Sweep(ctx)
		if err != nil {
			sweeper.Logger.Error("Invoice sweep failed", zap.Error(err))
			return
		}
		if report.Regenerated > 0 || report.EmailsQueued > 0 {
			sweeper.Logger.Info("Invoice sweep finished",
				zap.Int("regenerated", report.Regenerated),
				zap.Int("emailsQueued", report.EmailsQueued))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule invoice sweep %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
