package models

// SubmitBookingResponse is returned by POST /bookings.
type SubmitBookingResponse struct {
	BookingID    string  `json:"bookingId"`
	OrderID      string  `json:"orderId"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	IsMockMode   bool    `json:"isMockMode"`
	ClientSecret string  `json:"clientSecret,omitempty"`
}

// VerifyPaymentRequest is the body of POST /bookings/verify-payment.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	BookingID string `json:"bookingId" binding:"required"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// InvoicePending is reported in place of an invoice id when generation failed.
const InvoicePending = "PENDING"

// VerifyPaymentResponse is returned by POST /bookings/verify-payment.
type VerifyPaymentResponse struct {
	BookingID string `json:"bookingId"`
	InvoiceID string `json:"invoiceId"`
}

// InvoiceLinkResponse is returned by GET /invoices/booking/:bookingId.
type InvoiceLinkResponse struct {
	Invoice     *Invoice `json:"invoice"`
	DownloadURL string   `json:"downloadUrl"`
}
