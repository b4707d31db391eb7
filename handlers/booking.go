package handlers

import (
	"errors"
	"io"
	"net/http"

	"outlandish/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps the webhook payload read into memory.
const maxWebhookBody = 512 << 10

type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(bs booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: bs}
}

// StartBookingHandler validates the booking form and returns the checkout page to send the
// customer to, both in the body and as the Location header.
func (h *BookingHandler) StartBookingHandler(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	var req booking.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	req.Slug = c.Param("slug")

	start, err := h.Service.StartBooking(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, err)
		return
	}

	getLogger(c).Info("Deposit checkout created",
		zap.String("bookingId", start.BookingID), zap.String("userId", user.ID))
	c.Header("Location", start.CheckoutURL)
	c.JSON(http.StatusOK, start)
}

// CompleteHandler backs the checkout success page.
func (h *BookingHandler) CompleteHandler(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required", "field": "session_id"})
		return
	}
	status, err := h.Service.CompletionStatus(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// StripeWebhookHandler needs the untouched body for signature verification. A bad signature
// is a 400; any other error is a 500 so the provider redelivers.
func (h *BookingHandler) StripeWebhookHandler(c *gin.Context) {
	logger := getLogger(c)

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.Warn("Unreadable webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	outcome, err := h.Service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		var integrity *booking.IntegrityError
		if errors.As(err, &integrity) {
			logger.Warn("Webhook rejected", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		logger.Error("Webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
