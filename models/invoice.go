package models

import "time"

// GenerationStatus tracks the PDF artifact of an invoice.
type GenerationStatus string

const (
	GenerationPending    GenerationStatus = "pending"
	GenerationGenerating GenerationStatus = "generating"
	GenerationGenerated  GenerationStatus = "generated"
	GenerationFailed     GenerationStatus = "failed"
)

// Invoice is the tax invoice issued for a paid booking. The snapshot and
// financial fields are written once; only artifact and email tracking change later.
type Invoice struct {
	ID            string      `bson:"id" json:"id"`
	InvoiceNumber string      `bson:"invoiceNumber" json:"invoiceNumber"`
	BookingID     string      `bson:"bookingId" json:"bookingId"`
	BookingType   BookingType `bson:"bookingType" json:"bookingType"`

	Guest    Guest         `bson:"guest" json:"guest"`
	Offering Offering      `bson:"offering" json:"offering"`
	Stay     *StayDetails  `bson:"stay,omitempty" json:"stay,omitempty"`
	Guide    *GuideDetails `bson:"guide,omitempty" json:"guide,omitempty"`

	OrderID   string     `bson:"orderId,omitempty" json:"orderId,omitempty"`
	PaymentID string     `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	PaidAt    *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`

	BaseAmount  float64 `bson:"baseAmount" json:"baseAmount"`
	GSTRate     float64 `bson:"gstRate" json:"gstRate"`
	GSTAmount   float64 `bson:"gstAmount" json:"gstAmount"`
	TotalAmount float64 `bson:"totalAmount" json:"totalAmount"`
	Currency    string  `bson:"currency" json:"currency"`

	GenerationStatus GenerationStatus `bson:"generationStatus" json:"generationStatus"`
	GenerationError  string           `bson:"generationError,omitempty" json:"generationError,omitempty"`
	PDFKey           string           `bson:"pdfKey,omitempty" json:"-"`
	GeneratedAt      *time.Time       `bson:"generatedAt,omitempty" json:"generatedAt,omitempty"`

	EmailSent      bool       `bson:"emailSent" json:"emailSent"`
	EmailSentAt    *time.Time `bson:"emailSentAt,omitempty" json:"emailSentAt,omitempty"`
	EmailAttempts  int        `bson:"emailAttempts" json:"emailAttempts"`
	LastEmailError string     `bson:"lastEmailError,omitempty" json:"lastEmailError,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ArtifactUpdate is the only mutation allowed on an invoice's PDF fields.
type ArtifactUpdate struct {
	Status      GenerationStatus
	PDFKey      string
	Error       string
	GeneratedAt *time.Time
}

// EmailAttempt records the outcome of one dispatch (possibly several tries).
type EmailAttempt struct {
	Tries  int
	Sent   bool
	Error  string
	SentAt time.Time
}
