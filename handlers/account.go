package handlers

import (
	"net/http"

	"outlandish/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccountHandler struct {
	Service booking.BookingService
}

func NewAccountHandler(bs booking.BookingService) *AccountHandler {
	return &AccountHandler{Service: bs}
}

func (h *AccountHandler) ListBookingsHandler(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	bookings, err := h.Service.ListUserBookings(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *AccountHandler) GetBookingHandler(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	view, err := h.Service.BalanceSummary(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PayBalanceHandler starts a checkout for part or all of the outstanding balance.
func (h *AccountHandler) PayBalanceHandler(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	var body struct {
		Amount int64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid amount", "field": "amount"})
		return
	}

	session, err := h.Service.RequestBalancePayment(c.Request.Context(), c.Param("id"), body.Amount, user)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Balance checkout created",
		zap.String("bookingId", c.Param("id")), zap.Int64("amount", body.Amount))
	c.Header("Location", session.URL)
	c.JSON(http.StatusOK, gin.H{"checkoutUrl": session.URL, "sessionId": session.ID})
}

func (h *AccountHandler) UpdatePickupHandler(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	var body struct {
		PickupLocation string `json:"pickupLocation"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := h.Service.UpdatePickup(c.Request.Context(), c.Param("id"), body.PickupLocation, user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pickup location saved"})
}

func (h *AccountHandler) RequestCancellationHandler(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	if err := h.Service.RequestCancellation(c.Request.Context(), c.Param("id"), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cancellation requested"})
}
