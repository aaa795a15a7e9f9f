package booking

import (
	"context"
	"net/http"
	"sync"
	"time"

	bookingRepo "ylgguide/database/repository/booking"
	paymentRepo "ylgguide/database/repository/payment"
	"ylgguide/models"
	"ylgguide/services/invoice"
	"ylgguide/services/notification"
	"ylgguide/services/payment"
	"ylgguide/services/tasks"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// BookingService orchestrates a booking from submission through payment
// confirmation to invoice and email.
type BookingService interface {
	SubmitBooking(ctx context.Context, req *models.BookingRequest) (*models.SubmitBookingResponse, error)
	ConfirmPayment(ctx context.Context, event *models.GatewayEvent, opts ConfirmOptions) (*ConfirmationResult, error)
	MarkPaymentFailed(ctx context.Context, event *models.GatewayEvent) error
	MarkRefunded(ctx context.Context, event *models.GatewayEvent) error
	VerifyPayment(ctx context.Context, req models.VerifyPaymentRequest) (*models.VerifyPaymentResponse, error)
	HandleWebhook(ctx context.Context, header http.Header, body []byte) error

	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id string) (*models.Booking, error)
	// InvoiceForBooking returns the booking's invoice, issuing it if the booking is paid.
	InvoiceForBooking(ctx context.Context, bookingID string) (*models.Invoice, error)

	tasks.FollowUp
}

// ConfirmOptions tune the side effects of a confirmation.
type ConfirmOptions struct {
	// InlineInvoice creates the invoice before returning instead of queueing it.
	InlineInvoice bool
}

// ConfirmationResult reports what ConfirmPayment did.
type ConfirmationResult struct {
	Booking          *models.Booking
	Invoice          *models.Invoice
	AlreadyConfirmed bool
	// InvoiceErr is a side-effect failure; the confirmation itself stands.
	InvoiceErr error
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings bookingRepo.BookingRepository
	Payments paymentRepo.PaymentRepository
	Invoices invoice.InvoiceService
	Notifier notification.ConfirmationService
	Queue    tasks.Enqueuer

	// Gateway is the configured provider. Fallback is the simulated gateway used
	// for mock bookings and, when MockFallback is set, when Gateway fails.
	Gateway  payment.Gateway
	Fallback payment.Gateway
	Seen     payment.SeenStore
	SeenTTL  time.Duration

	GSTRate         float64
	Currency        string
	MockFallback    bool
	AutoCapture     bool
	FollowUpTimeout time.Duration

	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time

	validateOnce sync.Once
	validate     *validator.Validate
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// today is midnight of the current date in the service location, as a UTC date.
func (s *DefaultBookingService) today() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := s.now().In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *DefaultBookingService) checker() *validator.Validate {
	s.validateOnce.Do(func() { s.validate = newValidator() })
	return s.validate
}

func (s *DefaultBookingService) followUpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.FollowUpTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.FollowUpTimeout)
}

// gatewayFor picks the gateway that issued a booking's order.
func (s *DefaultBookingService) gatewayFor(b *models.Booking) payment.Gateway {
	if b.IsMock && s.Fallback != nil && !s.Gateway.Simulated() {
		return s.Fallback
	}
	return s.Gateway
}
