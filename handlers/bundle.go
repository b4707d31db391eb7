package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers and the auth middleware the routes need.
type HandlerBundle struct {
	SessionAuth gin.HandlerFunc

	// Catalogue endpoints
	ListToursHandler gin.HandlerFunc
	GetTourHandler   gin.HandlerFunc
	QuoteHandler     gin.HandlerFunc

	// Booking endpoints
	StartBookingHandler  gin.HandlerFunc
	CompleteHandler      gin.HandlerFunc
	StripeWebhookHandler gin.HandlerFunc

	// Account endpoints
	ListBookingsHandler        gin.HandlerFunc
	GetBookingHandler          gin.HandlerFunc
	PayBalanceHandler          gin.HandlerFunc
	UpdatePickupHandler        gin.HandlerFunc
	RequestCancellationHandler gin.HandlerFunc

	// Guide endpoints
	AssignedBookingsHandler gin.HandlerFunc

	// Admin endpoints
	AdminHandler *AdminHandler
}
