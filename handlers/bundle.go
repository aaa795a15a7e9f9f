package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	SubmitBooking gin.HandlerFunc
	VerifyPayment gin.HandlerFunc
	GetBooking    gin.HandlerFunc
	CancelBooking gin.HandlerFunc

	// Payment endpoints
	PaymentWebhook gin.HandlerFunc

	// Invoice endpoints
	DownloadInvoice     gin.HandlerFunc
	GetInvoiceByBooking gin.HandlerFunc
	ResendInvoice       gin.HandlerFunc
	RegenerateInvoice   gin.HandlerFunc

	Health gin.HandlerFunc

	MaxRequestsPerMin int
}
