package models

import "time"

// BookingType discriminates the two booking variants.
type BookingType string

const (
	BookingTypeStay  BookingType = "stay"
	BookingTypeGuide BookingType = "guide"
)

// BookingStatus is the lifecycle of a reservation.
type BookingStatus string

const (
	BookingPending          BookingStatus = "pending"
	BookingPaymentInitiated BookingStatus = "payment_initiated"
	BookingPaid             BookingStatus = "paid"
	BookingConfirmed        BookingStatus = "confirmed"
	BookingCancelled        BookingStatus = "cancelled"
	BookingFailed           BookingStatus = "failed"
)

// PaymentState mirrors the gateway outcome on the booking itself.
type PaymentState string

const (
	PaymentStateUnpaid     PaymentState = "unpaid"
	PaymentStateProcessing PaymentState = "processing"
	PaymentStatePaid       PaymentState = "paid"
	PaymentStateFailed     PaymentState = "failed"
	PaymentStateRefunded   PaymentState = "refunded"
)

// Guest is the contact captured with the booking.
type Guest struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Offering identifies what was booked: a listing for stays, a guide for treks.
type Offering struct {
	ListingID string `bson:"listingId" json:"listingId"`
	Title     string `bson:"title" json:"title"`
	Location  string `bson:"location,omitempty" json:"location,omitempty"`
	HostName  string `bson:"hostName,omitempty" json:"hostName,omitempty"`
}

// StayDetails holds the stay-only fields. Dates use the YYYY-MM-DD layout.
type StayDetails struct {
	CheckIn  string `bson:"checkIn" json:"checkIn"`
	CheckOut string `bson:"checkOut" json:"checkOut"`
	Nights   int    `bson:"nights" json:"nights"`
	Rooms    int    `bson:"rooms" json:"rooms"`
	Guests   int    `bson:"guests" json:"guests"`
}

// GuideDetails holds the guide-only fields.
type GuideDetails struct {
	TrekDate  string `bson:"trekDate" json:"trekDate"`
	Slot      string `bson:"slot" json:"slot"`
	PartySize string `bson:"partySize" json:"partySize"`
}

// Booking is a reservation of a stay or a guided trek.
type Booking struct {
	ID          string      `bson:"id" json:"id"`
	BookingType BookingType `bson:"bookingType" json:"bookingType"`

	Guest    Guest         `bson:"guest" json:"guest"`
	Offering Offering      `bson:"offering" json:"offering"`
	Stay     *StayDetails  `bson:"stay,omitempty" json:"stay,omitempty"`
	Guide    *GuideDetails `bson:"guide,omitempty" json:"guide,omitempty"`

	BaseAmount  float64 `bson:"baseAmount" json:"baseAmount"`
	GSTRate     float64 `bson:"gstRate" json:"gstRate"`
	TaxAmount   float64 `bson:"taxAmount" json:"taxAmount"`
	TotalAmount float64 `bson:"totalAmount" json:"totalAmount"`
	Currency    string  `bson:"currency" json:"currency"`

	BookingStatus BookingStatus `bson:"bookingStatus" json:"bookingStatus"`
	PaymentStatus PaymentState  `bson:"paymentStatus" json:"paymentStatus"`

	Provider         string `bson:"provider,omitempty" json:"provider,omitempty"`
	GatewayOrderID   string `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string `bson:"gatewayPaymentId,omitempty" json:"gatewayPaymentId,omitempty"`
	IsMock           bool   `bson:"isMock" json:"isMock"`

	SpecialRequests string `bson:"specialRequests,omitempty" json:"specialRequests,omitempty"`

	ConfirmedAt *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// IsPaid reports whether the booking is eligible for an invoice under the strict policy.
func (b *Booking) IsPaid() bool {
	return b.BookingStatus == BookingConfirmed || b.PaymentStatus == PaymentStatePaid
}

// OrderAssignment is the correlation written once the gateway order exists.
type OrderAssignment struct {
	Provider string
	OrderID  string
	IsMock   bool
}

// BookingConfirmation carries the fields set on the pending → confirmed transition.
type BookingConfirmation struct {
	PaymentID   string
	ConfirmedAt time.Time
}
