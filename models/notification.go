package models

// EmailAttachment is a file sent along with an email.
type EmailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage is a rendered multipart email.
type EmailMessage struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Text        string
	Attachments []EmailAttachment
}

// DeliveryResult summarizes one confirmation dispatch.
type DeliveryResult struct {
	Sent     bool   `json:"sent"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// PostConfirmationPayload is queued after a booking is confirmed by webhook.
type PostConfirmationPayload struct {
	BookingID string `json:"bookingId"`
}

// InvoiceEmailPayload is queued to (re)send a confirmation email for an invoice.
type InvoiceEmailPayload struct {
	InvoiceID string `json:"invoiceId"`
	Force     bool   `json:"force"`
}
