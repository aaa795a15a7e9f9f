package handlers

import (
	"io"
	"net/http"

	"ylgguide/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	Service booking.BookingService
}

func NewPaymentHandler(svc booking.BookingService) *PaymentHandler {
	return &PaymentHandler{Service: svc}
}

// Webhook handles POST /payments/webhook. It always answers 200; success
// reports whether the event was applied.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	logger := getLogger(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.Warn("Failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	if err := h.Service.HandleWebhook(c.Request.Context(), c.Request.Header, body); err != nil {
		logger.Error("Webhook processing failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
