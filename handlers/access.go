package handlers

import (
	"net/http"
	"strings"

	"ylgguide/middleware"
	"ylgguide/models"
	"ylgguide/utils"

	"github.com/gin-gonic/gin"
)

// canAccess reports whether the caller owns the booking or is an admin.
// On false it has already written the response.
func canAccess(c *gin.Context, b *models.Booking) bool {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "")
		return false
	}
	if claims.IsAdmin() || (claims.Email != "" && strings.EqualFold(claims.Email, b.Guest.Email)) {
		return true
	}
	utils.JSONError(c, http.StatusForbidden, "Forbidden", "booking belongs to another guest")
	return false
}
