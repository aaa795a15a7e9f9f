package invoice

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"ylgguide/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const invoiceHTML = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Invoice {{.Number}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;color:#222;margin:32px}
h1{font-size:22px;margin:0 0 16px}
table{width:100%;border-collapse:collapse;margin-top:16px}
td,th{border:1px solid #ccc;padding:8px;text-align:left}
td.amt,th.amt{text-align:right}
.muted{color:#777;font-size:12px}
</style></head>
<body>
<h1>TAX INVOICE</h1>
<div><strong>{{.Issuer.Name}}</strong><br>{{.Issuer.Address}}{{if .Issuer.GSTIN}}<br>GSTIN: {{.Issuer.GSTIN}}{{end}}</div>
<p>Invoice No: {{.Number}}<br>Issued: {{.IssuedOn}}{{if .PaidOn}}<br>Paid: {{.PaidOn}}{{end}}</p>
<p><strong>Billed to:</strong><br>{{.Guest.Name}}<br>{{.Guest.Email}}{{if .Guest.Phone}}<br>{{.Guest.Phone}}{{end}}</p>
<p><strong>{{.Kind}}: {{.Offering.Title}}</strong>{{if .Offering.Location}}<br>{{.Offering.Location}}{{end}}</p>
<ul>{{range .Details}}<li>{{.Label}}: {{.Amount}}</li>{{end}}</ul>
<table>
<tr><th>Description</th><th class="amt">Amount</th></tr>
{{range .Items}}<tr><td>{{.Label}}</td><td class="amt">{{.Amount}}</td></tr>{{end}}
<tr><th>Total</th><th class="amt">{{.Total}}</th></tr>
</table>
<p class="muted">{{if .OrderID}}Order reference: {{.OrderID}}<br>{{end}}{{if .PaymentID}}Payment reference: {{.PaymentID}}<br>{{end}}
This is a computer generated invoice and does not require a signature.</p>
</body></html>`

// HTMLRenderer renders an HTML invoice and prints it to PDF with headless Chrome.
type HTMLRenderer struct {
	Issuer Issuer
	tmpl   *template.Template
}

func NewHTMLRenderer(issuer Issuer) (*HTMLRenderer, error) {
	tmpl, err := template.New("invoice").Parse(invoiceHTML)
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &HTMLRenderer{Issuer: issuer, tmpl: tmpl}, nil
}

func (r *HTMLRenderer) ContentType() string { return "application/pdf" }

// RenderHTML executes the invoice template.
func (r *HTMLRenderer) RenderHTML(inv *models.Invoice) (string, error) {
	var out bytes.Buffer
	if err := r.tmpl.Execute(&out, buildView(r.Issuer, inv)); err != nil {
		return "", fmt.Errorf("execute invoice template: %w", err)
	}
	return out.String(), nil
}

func (r *HTMLRenderer) Render(ctx context.Context, inv *models.Invoice) ([]byte, error) {
	htmlContent, err := r.RenderHTML(inv)
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdfBuffer []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print invoice %s: %w", inv.InvoiceNumber, err)
	}
	return pdfBuffer, nil
}
