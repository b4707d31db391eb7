package routes

import (
	"net/http"
	"time"

	"outlandish/handlers"
	"outlandish/middleware"
	"outlandish/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebhookPath is exempt from rate limiting.
const WebhookPath = "/api/stripe/webhook"

// RegisterTourRoutes registers the public catalogue endpoints.
func RegisterTourRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/tours")
	{
		api.GET("", hb.ListToursHandler)
		api.GET("/:slug", hb.GetTourHandler)
		api.GET("/:slug/quote", hb.QuoteHandler)

		api.POST("/:slug/book", hb.SessionAuth, hb.StartBookingHandler)
	}
}

// RegisterBookingRoutes registers the checkout completion page and the payment webhook.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/booking/complete", hb.CompleteHandler)
	r.POST(WebhookPath, hb.StripeWebhookHandler)
}

// RegisterAccountRoutes registers the customer's own booking endpoints.
func RegisterAccountRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/account")
	{
		api.Use(hb.SessionAuth)
		api.GET("/bookings", hb.ListBookingsHandler)
		api.GET("/bookings/:id", hb.GetBookingHandler)
		api.POST("/bookings/:id/pay", hb.PayBalanceHandler)
		api.PUT("/bookings/:id/pickup", hb.UpdatePickupHandler)
		api.POST("/bookings/:id/cancel", hb.RequestCancellationHandler)
	}
}

// RegisterGuideRoutes registers the guide dashboard.
func RegisterGuideRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/guide")
	{
		api.Use(hb.SessionAuth, middleware.RequireGuide())
		api.GET("/bookings", hb.AssignedBookingsHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(hb.SessionAuth, middleware.RequireAdmin())
		adminGroup.GET("/bookings", hb.AdminHandler.ListBookingsHandler)
		adminGroup.POST("/bookings/:id/notes", hb.AdminHandler.AppendNoteHandler)
		adminGroup.POST("/bookings/:id/cancellation/approve", hb.AdminHandler.ApproveCancellationHandler)
		adminGroup.POST("/bookings/:id/cancellation/keep", hb.AdminHandler.KeepBookingHandler)
		adminGroup.PUT("/bookings/:id/guide", hb.AdminHandler.AssignGuideHandler)
		adminGroup.GET("/guides", hb.AdminHandler.ListGuidesHandler)
		adminGroup.PUT("/guides/:id/active", hb.AdminHandler.SetGuideActiveHandler)
		adminGroup.DELETE("/guides/:id", hb.AdminHandler.DeleteGuideHandler)
	}
}

// RegisterHealthRoutes registers the health check and the Prometheus scrape endpoint.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Mongo || !status.Redis {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and CORS.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Location", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoutes(r)
	RegisterTourRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterAccountRoutes(r, hb)
	RegisterGuideRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
