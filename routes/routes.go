package routes

import (
	"time"

	"ylgguide/handlers"
	"ylgguide/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers booking submission, verification and lookup.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/bookings")
	{
		// Public routes, rate limited per client IP.
		public := api.Group("")
		public.Use(middleware.RateLimitMiddleware(hb.MaxRequestsPerMin))
		public.POST("", hb.SubmitBooking)
		public.POST("/verify-payment", hb.VerifyPayment)

		// Protected routes (Require Authentication)
		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.GET("/:id", hb.GetBooking)
		protected.POST("/:id/cancel", hb.CancelBooking)
	}
}

// RegisterPaymentRoutes registers the gateway webhook.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/payments/webhook", hb.PaymentWebhook)
}

// RegisterInvoiceRoutes registers token downloads and authenticated invoice lookups.
func RegisterInvoiceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/invoices")
	{
		download := api.Group("")
		download.Use(middleware.RateLimitMiddleware(hb.MaxRequestsPerMin))
		download.GET("/:id", hb.DownloadInvoice)
		download.GET("/:id/download", hb.DownloadInvoice)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.GET("/booking/:bookingId", hb.GetInvoiceByBooking)
		protected.POST("/:id/resend", hb.ResendInvoice)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole("admin"))
		admin.POST("/:id/regenerate", hb.RegenerateInvoice)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterInvoiceRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
