package booking

import (
	"encoding/json"
	"strings"
	"time"

	"ylgguide/models"
	"ylgguide/utils"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// IntentCommon holds the fields shared by both booking variants.
type IntentCommon struct {
	Guest           models.GuestInput    `json:"guest"`
	Offering        models.OfferingInput `json:"offering"`
	BaseAmount      float64              `json:"baseAmount" validate:"gt=0"`
	ClientTotal     float64              `json:"totalAmount"`
	SpecialRequests string               `json:"specialRequests" validate:"max=1000"`
}

// BookingIntent is a decoded booking request: either a StayIntent or a GuideIntent.
type BookingIntent interface {
	Kind() models.BookingType
	Common() *IntentCommon
	check(v *validator.Validate, today time.Time) error
	apply(b *models.Booking)
}

type StayIntent struct {
	IntentCommon
	CheckIn  string `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"checkOut" validate:"required,datetime=2006-01-02"`
	Rooms    int    `json:"rooms" validate:"min=1"`
	Guests   int    `json:"guests" validate:"omitempty,min=1"`
}

func (s *StayIntent) Kind() models.BookingType { return models.BookingTypeStay }
func (s *StayIntent) Common() *IntentCommon    { return &s.IntentCommon }

func (s *StayIntent) check(v *validator.Validate, today time.Time) error {
	if err := v.Struct(s); err != nil {
		return toValidationError(err)
	}
	checkIn, _ := time.Parse(dateLayout, s.CheckIn)
	checkOut, _ := time.Parse(dateLayout, s.CheckOut)
	if checkIn.Before(today) {
		return utils.NewValidationError("checkIn", "must not be in the past")
	}
	if !checkOut.After(checkIn) {
		return utils.NewValidationError("checkOut", "must be after checkIn")
	}
	return nil
}

func (s *StayIntent) nights() int {
	checkIn, _ := time.Parse(dateLayout, s.CheckIn)
	checkOut, _ := time.Parse(dateLayout, s.CheckOut)
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

func (s *StayIntent) apply(b *models.Booking) {
	guests := s.Guests
	if guests == 0 {
		guests = 1
	}
	b.Stay = &models.StayDetails{
		CheckIn:  s.CheckIn,
		CheckOut: s.CheckOut,
		Nights:   s.nights(),
		Rooms:    s.Rooms,
		Guests:   guests,
	}
}

type GuideIntent struct {
	IntentCommon
	TrekDate  string `json:"trekDate" validate:"required,datetime=2006-01-02"`
	Slot      string `json:"slot" validate:"required"`
	PartySize string `json:"partySize" validate:"required"`
}

func (g *GuideIntent) Kind() models.BookingType { return models.BookingTypeGuide }
func (g *GuideIntent) Common() *IntentCommon    { return &g.IntentCommon }

func (g *GuideIntent) check(v *validator.Validate, today time.Time) error {
	if err := v.Struct(g); err != nil {
		return toValidationError(err)
	}
	trekDate, _ := time.Parse(dateLayout, g.TrekDate)
	if trekDate.Before(today) {
		return utils.NewValidationError("trekDate", "must not be in the past")
	}
	return nil
}

func (g *GuideIntent) apply(b *models.Booking) {
	b.Guide = &models.GuideDetails{
		TrekDate:  g.TrekDate,
		Slot:      g.Slot,
		PartySize: g.PartySize,
	}
}

// DecodeIntent selects the variant from the request: a trekDate makes it a
// guide booking, its absence a stay. An explicit bookingType must agree.
func DecodeIntent(req *models.BookingRequest) (BookingIntent, error) {
	if req == nil {
		return nil, utils.NewValidationError("", "request body is required")
	}
	common := IntentCommon{
		Guest:           req.Guest,
		Offering:        req.Offering,
		BaseAmount:      req.BaseAmount,
		ClientTotal:     req.TotalAmount,
		SpecialRequests: req.SpecialRequests,
	}

	kind := models.BookingTypeStay
	if req.TrekDate != nil {
		kind = models.BookingTypeGuide
	}
	if declared := strings.TrimSpace(strings.ToLower(req.BookingType)); declared != "" && models.BookingType(declared) != kind {
		return nil, utils.NewValidationError("bookingType",
			"%q conflicts with the supplied fields, which describe a %s booking", req.BookingType, kind)
	}

	if kind == models.BookingTypeGuide {
		return &GuideIntent{
			IntentCommon: common,
			TrekDate:     strings.TrimSpace(*req.TrekDate),
			Slot:         strings.TrimSpace(req.Slot),
			PartySize:    strings.TrimSpace(req.PartySize),
		}, nil
	}
	return &StayIntent{
		IntentCommon: common,
		CheckIn:      strings.TrimSpace(req.CheckIn),
		CheckOut:     strings.TrimSpace(req.CheckOut),
		Rooms:        req.Rooms,
		Guests:       req.Guests,
	}, nil
}

// ParseIntent decodes a raw JSON body into an intent.
func ParseIntent(raw []byte) (BookingIntent, error) {
	var req models.BookingRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, utils.NewValidationError("", "malformed booking request: %v", err)
	}
	return DecodeIntent(&req)
}
