package handlers

import (
	"net/http"

	"outlandish/services/booking"

	"github.com/gin-gonic/gin"
)

type GuideHandler struct {
	Service booking.BookingService
}

func NewGuideHandler(bs booking.BookingService) *GuideHandler {
	return &GuideHandler{Service: bs}
}

// AssignedBookingsHandler lists the bookings assigned to the caller's guide profile.
func (h *GuideHandler) AssignedBookingsHandler(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	bookings, err := h.Service.GuideBookings(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
