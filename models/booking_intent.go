package models

// GuestInput is the contact block of a booking request.
type GuestInput struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,min=6,max=20"`
}

// OfferingInput identifies the listing or guide being booked.
type OfferingInput struct {
	ListingID string `json:"listingId" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Location  string `json:"location"`
	HostName  string `json:"hostName"`
}

// BookingRequest is the raw POST /bookings body before variant dispatch.
type BookingRequest struct {
	BookingType     string        `json:"bookingType"`
	Guest           GuestInput    `json:"guest"`
	Offering        OfferingInput `json:"offering"`
	BaseAmount      float64       `json:"baseAmount"`
	TotalAmount     float64       `json:"totalAmount"`
	SpecialRequests string        `json:"specialRequests"`

	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Rooms    int    `json:"rooms"`
	Guests   int    `json:"guests"`

	TrekDate  *string `json:"trekDate"`
	Slot      string  `json:"slot"`
	PartySize string  `json:"partySize"`
}
