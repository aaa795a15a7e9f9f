package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ylgguide/middleware"
	"ylgguide/models"
	"ylgguide/services/booking"
	"ylgguide/services/invoice"
	"ylgguide/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubBookings implements only what the handlers under test call.
type stubBookings struct {
	booking.BookingService

	submitErr  error
	webhookErr error
	bookings   map[string]*models.Booking
	invoice    *models.Invoice
	webhooks   int
}

func (s *stubBookings) SubmitBooking(_ context.Context, req *models.BookingRequest) (*models.SubmitBookingResponse, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &models.SubmitBookingResponse{BookingID: "bk-1", OrderID: "order-1", Amount: req.BaseAmount, Currency: "INR", IsMockMode: true}, nil
}

func (s *stubBookings) HandleWebhook(context.Context, http.Header, []byte) error {
	s.webhooks++
	return s.webhookErr
}

func (s *stubBookings) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, utils.NewNotFoundError("booking", id)
	}
	return b, nil
}

func (s *stubBookings) InvoiceForBooking(context.Context, string) (*models.Invoice, error) {
	return s.invoice, nil
}

type stubInvoices struct {
	invoice.InvoiceService

	openErr     error
	inv         *models.Invoice
	regenerated []string
}

func (s *stubInvoices) Regenerate(_ context.Context, id string) (*models.Invoice, error) {
	s.regenerated = append(s.regenerated, id)
	if s.inv == nil || s.inv.ID != id {
		return nil, utils.NewNotFoundError("invoice", id)
	}
	return s.inv, nil
}

func (s *stubInvoices) OpenArtifact(_ context.Context, id, token string) (*models.Invoice, []byte, error) {
	if s.openErr != nil {
		return nil, nil, s.openErr
	}
	return s.inv, []byte("%PDF-1.4 test"), nil
}

func (s *stubInvoices) DownloadURL(id string) string {
	return "http://localhost:8080/invoices/" + id + "/download?token=t"
}

func bearer(t *testing.T, email, role string) string {
	t.Helper()
	token, err := utils.GenerateToken("user-1", email, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func newTestRouter(bookings *stubBookings, invoices *stubInvoices) *gin.Engine {
	bh := NewBookingHandler(bookings)
	ph := NewPaymentHandler(bookings)
	ih := NewInvoiceHandler(bookings, invoices, nil)

	r := gin.New()
	r.POST("/bookings", bh.SubmitBooking)
	r.POST("/payments/webhook", ph.Webhook)
	r.GET("/invoices/:id/download", ih.Download)
	auth := r.Group("", middleware.JWTAuthMiddleware())
	auth.GET("/bookings/:id", bh.GetBooking)
	auth.GET("/invoices/booking/:bookingId", ih.GetByBooking)
	admin := r.Group("/invoices", middleware.JWTAuthMiddleware(), middleware.RequireRole("admin"))
	admin.POST("/:id/regenerate", ih.Regenerate)
	return r
}

func do(r *gin.Engine, method, path, body, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitBooking(t *testing.T) {
	bookings := &stubBookings{}
	r := newTestRouter(bookings, &stubInvoices{})

	w := do(r, http.MethodPost, "/bookings", `{"baseAmount": 5000}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.SubmitBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bk-1", resp.BookingID)
	assert.Equal(t, 5000.0, resp.Amount)

	w = do(r, http.MethodPost, "/bookings", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bookings.submitErr = utils.NewValidationError("checkIn", "must not be in the past")
	w = do(r, http.MethodPost, "/bookings", `{"baseAmount": 5000}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "checkIn")

	bookings.submitErr = &utils.GatewayError{Op: "create order", Err: errors.New("down")}
	w = do(r, http.MethodPost, "/bookings", `{"baseAmount": 5000}`, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWebhookAlwaysOK(t *testing.T) {
	bookings := &stubBookings{}
	r := newTestRouter(bookings, &stubInvoices{})

	w := do(r, http.MethodPost, "/payments/webhook", `{}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	bookings.webhookErr = errors.New("signature mismatch")
	w = do(r, http.MethodPost, "/payments/webhook", `{}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())
	assert.Equal(t, 2, bookings.webhooks)
}

func TestDownloadInvoice(t *testing.T) {
	invoices := &stubInvoices{inv: &models.Invoice{ID: "inv-1", InvoiceNumber: "INV-2026-0001"}}
	r := newTestRouter(&stubBookings{}, invoices)

	w := do(r, http.MethodGet, "/invoices/inv-1/download", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/invoices/inv-1/download?token=good", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Invoice-INV-2026-0001.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	invoices.openErr = &utils.TokenError{Reason: "mismatch"}
	w = do(r, http.MethodGet, "/invoices/inv-1/download?token=bad", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	invoices.openErr = utils.NewNotFoundError("invoice", "inv-1")
	w = do(r, http.MethodGet, "/invoices/inv-1/download?token=good", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	invoices.openErr = &utils.GenerationError{InvoiceID: "inv-1", Err: errors.New("renderer down")}
	w = do(r, http.MethodGet, "/invoices/inv-1/download?token=good", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingOwnership(t *testing.T) {
	bookings := &stubBookings{
		bookings: map[string]*models.Booking{
			"bk-1": {ID: "bk-1", Guest: models.Guest{Name: "Asha", Email: "asha@example.com"}},
		},
		invoice: &models.Invoice{ID: "inv-1", BookingID: "bk-1", InvoiceNumber: "INV-2026-0001"},
	}
	r := newTestRouter(bookings, &stubInvoices{})

	w := do(r, http.MethodGet, "/bookings/bk-1", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/bookings/bk-1", "", bearer(t, "someone@example.com", "guest"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/bookings/bk-1", "", bearer(t, "ASHA@example.com", "guest"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/bookings/missing", "", bearer(t, "asha@example.com", "guest"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/invoices/booking/bk-1", "", bearer(t, "ops@example.com", "admin"))
	require.Equal(t, http.StatusOK, w.Code)
	var link models.InvoiceLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, "inv-1", link.Invoice.ID)
	assert.Contains(t, link.DownloadURL, "/invoices/inv-1/download?token=")
}

func TestRegenerateInvoiceAdminOnly(t *testing.T) {
	invoices := &stubInvoices{inv: &models.Invoice{ID: "inv-1", InvoiceNumber: "INV-2026-0001"}}
	r := newTestRouter(&stubBookings{}, invoices)

	w := do(r, http.MethodPost, "/invoices/inv-1/regenerate", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/invoices/inv-1/regenerate", "", bearer(t, "asha@example.com", "guest"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, invoices.regenerated)

	w = do(r, http.MethodPost, "/invoices/inv-1/regenerate", "", bearer(t, "ops@example.com", "admin"))
	require.Equal(t, http.StatusOK, w.Code)
	var link models.InvoiceLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, "INV-2026-0001", link.Invoice.InvoiceNumber)
	assert.Contains(t, link.DownloadURL, "/invoices/inv-1/download?token=")
	assert.Equal(t, []string{"inv-1"}, invoices.regenerated)

	w = do(r, http.MethodPost, "/invoices/missing/regenerate", "", bearer(t, "ops@example.com", "admin"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
