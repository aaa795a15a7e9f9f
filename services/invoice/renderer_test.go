package invoice

import (
	"bytes"
	"context"
	"testing"
	"time"

	"ylgguide/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGuideInvoice() *models.Invoice {
	paid := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return &models.Invoice{
		ID:            "inv-1",
		InvoiceNumber: "INV-2026-0007",
		BookingID:     "bk-1",
		BookingType:   models.BookingTypeGuide,
		Guest:         models.Guest{Name: "Ravi Kumar", Email: "ravi@example.com"},
		Offering:      models.Offering{ListingID: "g-1", Title: "Hampta Pass Trek", HostName: "Dorje"},
		Guide:         &models.GuideDetails{TrekDate: "2026-05-10", Slot: "morning", PartySize: "4"},
		PaidAt:        &paid,
		BaseAmount:    5000,
		GSTRate:       18,
		GSTAmount:     900,
		TotalAmount:   5900,
		Currency:      "INR",
		CreatedAt:     paid,
	}
}

func TestPDFRendererProducesPDF(t *testing.T) {
	r, err := NewRenderer("pdf", Issuer{Name: "YLG Guide", GSTIN: "29ABCDE1234F1Z5"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", r.ContentType())

	data, err := r.Render(context.Background(), sampleGuideInvoice())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestHTMLRendererTemplate(t *testing.T) {
	r, err := NewHTMLRenderer(Issuer{Name: "YLG Guide"})
	require.NoError(t, err)

	out, err := r.RenderHTML(sampleGuideInvoice())
	require.NoError(t, err)
	assert.Contains(t, out, "TAX INVOICE")
	assert.Contains(t, out, "INV-2026-0007")
	assert.Contains(t, out, "Guided trek: Hampta Pass Trek")
	assert.Contains(t, out, "Trek date: 2026-05-10")
	assert.Contains(t, out, "GST @ 18%")
	assert.Contains(t, out, "INR 5900.00")
}

func TestNewRendererUnknown(t *testing.T) {
	_, err := NewRenderer("docx", Issuer{})
	assert.Error(t, err)
}
