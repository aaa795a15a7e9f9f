package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"ylgguide/models"
)

const stayHTML = `<p>Hi {{.Guest.Name}},</p>
<p>Your stay at <strong>{{.Offering.Title}}</strong>{{if .Offering.Location}} in {{.Offering.Location}}{{end}} is confirmed.</p>
<ul>
<li>Check-in: {{.Stay.CheckIn}}</li>
<li>Check-out: {{.Stay.CheckOut}}</li>
<li>Rooms: {{.Stay.Rooms}}, guests: {{.Stay.Guests}}</li>
</ul>
{{template "footer" .}}`

const guideHTML = `<p>Hi {{.Guest.Name}},</p>
<p>Your guided trek <strong>{{.Offering.Title}}</strong>{{if .Offering.HostName}} with {{.Offering.HostName}}{{end}} is confirmed.</p>
<ul>
<li>Trek date: {{.Guide.TrekDate}}</li>
<li>Slot: {{.Guide.Slot}}</li>
<li>Party: {{.Guide.PartySize}}</li>
</ul>
{{template "footer" .}}`

const footerHTML = `{{define "footer"}}<p>Booking reference: {{.BookingID}}<br>
Invoice {{.InvoiceNumber}}: {{.Currency}} {{printf "%.2f" .Total}} (incl. GST {{printf "%.2f" .Tax}})</p>
{{if .DownloadURL}}<p><a href="{{.DownloadURL}}">Download your invoice</a></p>{{end}}
<p>Thank you for booking with us.</p>{{end}}`

const stayText = `Hi {{.Guest.Name}},

Your stay at {{.Offering.Title}}{{if .Offering.Location}} in {{.Offering.Location}}{{end}} is confirmed.
Check-in: {{.Stay.CheckIn}}
Check-out: {{.Stay.CheckOut}}
Rooms: {{.Stay.Rooms}}, guests: {{.Stay.Guests}}
{{template "footer" .}}`

const guideText = `Hi {{.Guest.Name}},

Your guided trek {{.Offering.Title}}{{if .Offering.HostName}} with {{.Offering.HostName}}{{end}} is confirmed.
Trek date: {{.Guide.TrekDate}}
Slot: {{.Guide.Slot}}
Party: {{.Guide.PartySize}}
{{template "footer" .}}`

const footerText = `{{define "footer"}}
Booking reference: {{.BookingID}}
Invoice {{.InvoiceNumber}}: {{.Currency}} {{printf "%.2f" .Total}} (incl. GST {{printf "%.2f" .Tax}})
{{if .DownloadURL}}Download: {{.DownloadURL}}
{{end}}
Thank you for booking with us.
{{end}}`

type emailView struct {
	Guest         models.Guest
	Offering      models.Offering
	Stay          *models.StayDetails
	Guide         *models.GuideDetails
	BookingID     string
	InvoiceNumber string
	Currency      string
	Total         float64
	Tax           float64
	DownloadURL   string
}

type variantTemplates struct {
	subject string
	html    *htmltemplate.Template
	text    *template.Template
}

var templates = map[models.BookingType]variantTemplates{
	models.BookingTypeStay: {
		subject: "Your stay is confirmed: %s",
		html:    htmltemplate.Must(htmltemplate.Must(htmltemplate.New("stay").Parse(stayHTML)).Parse(footerHTML)),
		text:    template.Must(template.Must(template.New("stay").Parse(stayText)).Parse(footerText)),
	},
	models.BookingTypeGuide: {
		subject: "Your trek is confirmed: %s",
		html:    htmltemplate.Must(htmltemplate.Must(htmltemplate.New("guide").Parse(guideHTML)).Parse(footerHTML)),
		text:    template.Must(template.Must(template.New("guide").Parse(guideText)).Parse(footerText)),
	},
}

// RenderConfirmation builds the confirmation email for the booking's variant.
func RenderConfirmation(b *models.Booking, inv *models.Invoice, downloadURL string) (models.EmailMessage, error) {
	tpl, ok := templates[b.BookingType]
	if !ok {
		return models.EmailMessage{}, fmt.Errorf("no email template for booking type %q", b.BookingType)
	}
	if b.BookingType == models.BookingTypeStay && b.Stay == nil || b.BookingType == models.BookingTypeGuide && b.Guide == nil {
		return models.EmailMessage{}, fmt.Errorf("booking %s has no %s details", b.ID, b.BookingType)
	}

	view := emailView{
		Guest:       b.Guest,
		Offering:    b.Offering,
		Stay:        b.Stay,
		Guide:       b.Guide,
		BookingID:   b.ID,
		Currency:    b.Currency,
		Total:       b.TotalAmount,
		Tax:         b.TaxAmount,
		DownloadURL: downloadURL,
	}
	if inv != nil {
		view.InvoiceNumber = inv.InvoiceNumber
		view.Currency = inv.Currency
		view.Total = inv.TotalAmount
		view.Tax = inv.GSTAmount
	}

	var html, text bytes.Buffer
	if err := tpl.html.Execute(&html, view); err != nil {
		return models.EmailMessage{}, fmt.Errorf("render html email: %w", err)
	}
	if err := tpl.text.Execute(&text, view); err != nil {
		return models.EmailMessage{}, fmt.Errorf("render text email: %w", err)
	}

	return models.EmailMessage{
		To:      b.Guest.Email,
		ToName:  b.Guest.Name,
		Subject: fmt.Sprintf(tpl.subject, b.Offering.Title),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
