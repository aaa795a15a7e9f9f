package repository

import (
	"fmt"

	bookingRepo "ylgguide/database/repository/booking"
	invoiceRepo "ylgguide/database/repository/invoice"
	paymentRepo "ylgguide/database/repository/payment"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces.
type BookingRepository = bookingRepo.BookingRepository

type PaymentRepository = paymentRepo.PaymentRepository

type InvoiceRepository = invoiceRepo.InvoiceRepository

const (
	ModeMongo  = "mongo"
	ModeMemory = "memory"
)

// Stores bundles the three repositories chosen at startup.
type Stores struct {
	Mode     string
	Bookings BookingRepository
	Payments PaymentRepository
	Invoices InvoiceRepository
}

// NewStores selects the durable or in-memory implementations. db is only
// consulted in mongo mode.
func NewStores(mode string, db *mongo.Database) (*Stores, error) {
	switch mode {
	case ModeMongo:
		if db == nil {
			return nil, fmt.Errorf("store mode %q requires a database connection", mode)
		}
		return &Stores{
			Mode:     mode,
			Bookings: bookingRepo.NewMongoBookingRepo(db),
			Payments: paymentRepo.NewMongoPaymentRepo(db),
			Invoices: invoiceRepo.NewMongoInvoiceRepo(db),
		}, nil
	case ModeMemory, "":
		return NewMemoryStores(), nil
	default:
		return nil, fmt.Errorf("unknown store mode %q", mode)
	}
}

// NewMemoryStores returns fresh in-memory repositories.
func NewMemoryStores() *Stores {
	return &Stores{
		Mode:     ModeMemory,
		Bookings: bookingRepo.NewMemoryBookingRepo(),
		Payments: paymentRepo.NewMemoryPaymentRepo(),
		Invoices: invoiceRepo.NewMemoryInvoiceRepo(),
	}
}
