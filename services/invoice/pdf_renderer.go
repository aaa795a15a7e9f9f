package invoice

import (
	"bytes"
	"context"
	"fmt"

	"ylgguide/models"

	"github.com/phpdave11/gofpdf"
)

// PDFRenderer draws invoices directly with gofpdf.
type PDFRenderer struct {
	Issuer Issuer
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

func (r *PDFRenderer) Render(_ context.Context, inv *models.Invoice) ([]byte, error) {
	v := buildView(r.Issuer, inv)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+v.Number, false)
	pdf.SetAuthor(v.Issuer.Name, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TAX INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 6, tr(v.Issuer.Name))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	if v.Issuer.Address != "" {
		pdf.MultiCell(0, 5, tr(v.Issuer.Address), "", "", false)
	}
	if v.Issuer.GSTIN != "" {
		pdf.Cell(0, 5, "GSTIN: "+v.Issuer.GSTIN)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	header := []string{
		fmt.Sprintf("Invoice No : %s", v.Number),
		fmt.Sprintf("Issued     : %s", v.IssuedOn),
	}
	if v.PaidOn != "" {
		header = append(header, fmt.Sprintf("Paid       : %s", v.PaidOn))
	}
	for _, line := range header {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Billed to:")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{v.Guest.Name, v.Guest.Email, v.Guest.Phone} {
		if line == "" {
			continue
		}
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, tr(v.Kind+": "+v.Offering.Title))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	if v.Offering.Location != "" {
		pdf.Cell(0, 5, tr(v.Offering.Location))
		pdf.Ln(5)
	}
	for _, d := range v.Details {
		pdf.Cell(40, 5, d.Label)
		pdf.Cell(0, 5, tr(d.Amount))
		pdf.Ln(5)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, "Amount", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, item := range v.Items {
		pdf.CellFormat(130, 8, tr(item.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, item.Amount, "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, v.Total, "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	if v.OrderID != "" {
		pdf.Cell(0, 5, "Order reference: "+v.OrderID)
		pdf.Ln(5)
	}
	if v.PaymentID != "" {
		pdf.Cell(0, 5, "Payment reference: "+v.PaymentID)
		pdf.Ln(5)
	}
	pdf.MultiCell(0, 5, "This is a computer generated invoice and does not require a signature.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}
