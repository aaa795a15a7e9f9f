package handlers

import (
	"net/http"

	"ylgguide/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness plus the last dependency probe results.
func HealthHandler(storeMode, gatewayMode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := utils.GetHealthStatus()
		healthy := status.Mongo == nil || *status.Mongo
		for _, ok := range status.Redis {
			healthy = healthy && ok
		}

		code := http.StatusOK
		state := "ok"
		if !healthy {
			code = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(code, gin.H{
			"status":       state,
			"storeMode":    storeMode,
			"gatewayMode":  gatewayMode,
			"dependencies": status,
		})
	}
}
