package invoice

import (
	"context"
	"fmt"
	"strings"

	"ylgguide/models"
)

// Renderer turns an invoice snapshot into a downloadable document.
type Renderer interface {
	Render(ctx context.Context, inv *models.Invoice) ([]byte, error)
	ContentType() string
}

// Issuer identifies the business printed on every invoice.
type Issuer struct {
	Name    string
	GSTIN   string
	Address string
}

// NewRenderer returns the renderer named by kind ("pdf" or "html").
func NewRenderer(kind string, issuer Issuer) (Renderer, error) {
	switch strings.ToLower(kind) {
	case "", "pdf":
		return &PDFRenderer{Issuer: issuer}, nil
	case "html":
		return NewHTMLRenderer(issuer)
	default:
		return nil, fmt.Errorf("unknown invoice renderer %q", kind)
	}
}

// lineItem is one row of the amounts table.
type lineItem struct {
	Label  string
	Amount string
}

// invoiceView is the presentation model shared by both renderers.
type invoiceView struct {
	Issuer    Issuer
	Number    string
	IssuedOn  string
	PaidOn    string
	Kind      string
	Guest     models.Guest
	Offering  models.Offering
	Details   []lineItem
	Items     []lineItem
	Total     string
	OrderID   string
	PaymentID string
}

func money(currency string, amount float64) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func buildView(issuer Issuer, inv *models.Invoice) invoiceView {
	v := invoiceView{
		Issuer:    issuer,
		Number:    inv.InvoiceNumber,
		IssuedOn:  inv.CreatedAt.Format("02 Jan 2006"),
		Guest:     inv.Guest,
		Offering:  inv.Offering,
		OrderID:   inv.OrderID,
		PaymentID: inv.PaymentID,
		Total:     money(inv.Currency, inv.TotalAmount),
	}
	if inv.PaidAt != nil {
		v.PaidOn = inv.PaidAt.Format("02 Jan 2006")
	}

	switch inv.BookingType {
	case models.BookingTypeGuide:
		v.Kind = "Guided trek"
		if g := inv.Guide; g != nil {
			v.Details = []lineItem{
				{Label: "Trek date", Amount: g.TrekDate},
				{Label: "Slot", Amount: g.Slot},
				{Label: "Party", Amount: g.PartySize},
			}
		}
	default:
		v.Kind = "Stay"
		if s := inv.Stay; s != nil {
			v.Details = []lineItem{
				{Label: "Check-in", Amount: s.CheckIn},
				{Label: "Check-out", Amount: s.CheckOut},
				{Label: "Nights", Amount: fmt.Sprintf("%d", s.Nights)},
				{Label: "Rooms", Amount: fmt.Sprintf("%d", s.Rooms)},
			}
		}
	}

	v.Items = []lineItem{
		{Label: v.Kind + ": " + inv.Offering.Title, Amount: money(inv.Currency, inv.BaseAmount)},
		{Label: fmt.Sprintf("GST @ %g%%", inv.GSTRate), Amount: money(inv.Currency, inv.GSTAmount)},
	}
	return v
}
