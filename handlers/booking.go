package handlers

import (
	"net/http"

	"ylgguide/models"
	"ylgguide/services/booking"
	"ylgguide/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// SubmitBooking handles POST /bookings.
func (h *BookingHandler) SubmitBooking(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}

	resp, err := h.Service.SubmitBooking(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Booking created", zap.String("bookingId", resp.BookingID))
	c.JSON(http.StatusCreated, resp)
}

// VerifyPayment handles POST /bookings/verify-payment.
func (h *BookingHandler) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid verification request", err.Error())
		return
	}

	resp, err := h.Service.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBooking handles GET /bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !canAccess(c, b) {
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking handles POST /bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	ctx := c.Request.Context()
	b, err := h.Service.GetBooking(ctx, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !canAccess(c, b) {
		return
	}

	b, err = h.Service.CancelBooking(ctx, b.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
