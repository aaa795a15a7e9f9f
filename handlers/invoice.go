package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"ylgguide/models"
	"ylgguide/services/booking"
	"ylgguide/services/invoice"
	"ylgguide/services/notification"
	"ylgguide/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	Bookings booking.BookingService
	Invoices invoice.InvoiceService
	Notifier notification.ConfirmationService
}

func NewInvoiceHandler(bookings booking.BookingService, invoices invoice.InvoiceService, notifier notification.ConfirmationService) *InvoiceHandler {
	return &InvoiceHandler{Bookings: bookings, Invoices: invoices, Notifier: notifier}
}

// Download handles GET /invoices/:id and /invoices/:id/download. The token is
// checked before the invoice is looked up, so a bad token gets the same 403
// whether or not the invoice exists.
func (h *InvoiceHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.JSONError(c, http.StatusForbidden, "Forbidden", "download token is required")
		return
	}

	inv, data, err := h.Invoices.OpenArtifact(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		var tokenErr *utils.TokenError
		var genErr *utils.GenerationError
		switch {
		case errors.As(err, &tokenErr):
			utils.JSONError(c, http.StatusForbidden, "Forbidden", "invalid download token")
		case utils.IsNotFound(err), errors.As(err, &genErr):
			getLogger(c).Warn("Invoice artifact unavailable", zap.String("invoiceId", c.Param("id")), zap.Error(err))
			utils.JSONError(c, http.StatusNotFound, "Not Found", "invoice not available")
		default:
			utils.RespondError(c, err)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="Invoice-%s.pdf"`, inv.InvoiceNumber))
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, "application/pdf", data)
}

// GetByBooking handles GET /invoices/booking/:bookingId, issuing the invoice on first request.
func (h *InvoiceHandler) GetByBooking(c *gin.Context) {
	ctx := c.Request.Context()
	b, err := h.Bookings.GetBooking(ctx, c.Param("bookingId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !canAccess(c, b) {
		return
	}

	inv, err := h.Bookings.InvoiceForBooking(ctx, b.ID)
	if err != nil && inv == nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.InvoiceLinkResponse{
		Invoice:     inv,
		DownloadURL: h.Invoices.DownloadURL(inv.ID),
	})
}

// Resend handles POST /invoices/:id/resend.
func (h *InvoiceHandler) Resend(c *gin.Context) {
	ctx := c.Request.Context()
	inv, err := h.Invoices.GetByID(ctx, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	b, err := h.Bookings.GetBooking(ctx, inv.BookingID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !canAccess(c, b) {
		return
	}

	result, err := h.Notifier.Resend(ctx, inv.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Regenerate handles POST /invoices/:id/regenerate (admin only).
func (h *InvoiceHandler) Regenerate(c *gin.Context) {
	inv, err := h.Invoices.Regenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Invoice regenerated", zap.String("invoiceId", inv.ID))
	c.JSON(http.StatusOK, models.InvoiceLinkResponse{
		Invoice:     inv,
		DownloadURL: h.Invoices.DownloadURL(inv.ID),
	})
}
