package handlers

import (
	"net/http"

	"outlandish/services/booking"
	"outlandish/services/guide"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates the admin booking and guide operations.
type AdminHandler struct {
	Bookings booking.BookingService
	Guides   guide.GuideService
}

func NewAdminHandler(bs booking.BookingService, gs guide.GuideService) *AdminHandler {
	return &AdminHandler{Bookings: bs, Guides: gs}
}

// ListBookingsHandler lists all bookings newest first; ?guideId= narrows it to one guide.
func (ah *AdminHandler) ListBookingsHandler(c *gin.Context) {
	admin, ok := sessionUser(c)
	if !ok {
		return
	}
	guideID := c.Query("guideId")
	if guideID == "all" {
		guideID = ""
	}
	bookings, err := ah.Bookings.AdminBookings(c.Request.Context(), guideID, admin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "guideFilter": guideID})
}

func (ah *AdminHandler) AppendNoteHandler(c *gin.Context) {
	admin, ok := sessionUser(c)
	if !ok {
		return
	}
	var body struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := ah.Bookings.AppendAdminNote(c.Request.Context(), c.Param("id"), body.Note, admin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note added"})
}

func (ah *AdminHandler) ApproveCancellationHandler(c *gin.Context) {
	admin, ok := sessionUser(c)
	if !ok {
		return
	}
	if err := ah.Bookings.ApproveCancellation(c.Request.Context(), c.Param("id"), admin); err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Booking cancelled by admin", zap.String("bookingId", c.Param("id")), zap.String("adminId", admin.ID))
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
}

func (ah *AdminHandler) KeepBookingHandler(c *gin.Context) {
	admin, ok := sessionUser(c)
	if !ok {
		return
	}
	if err := ah.Bookings.KeepBooking(c.Request.Context(), c.Param("id"), admin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cancellation request cleared"})
}

// AssignGuideHandler sets the booking's guide; an empty guideId unassigns.
func (ah *AdminHandler) AssignGuideHandler(c *gin.Context) {
	admin, ok := sessionUser(c)
	if !ok {
		return
	}
	var body struct {
		GuideID string `json:"guideId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := ah.Bookings.AssignGuide(c.Request.Context(), c.Param("id"), body.GuideID, admin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Guide updated"})
}

func (ah *AdminHandler) ListGuidesHandler(c *gin.Context) {
	guides, err := ah.Guides.ListGuides(c.Request.Context())
	if err != nil {
		getLogger(c).Error("Failed to fetch guides", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guides"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"guides": guides})
}

func (ah *AdminHandler) SetGuideActiveHandler(c *gin.Context) {
	var body struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := ah.Guides.SetGuideActive(c.Request.Context(), c.Param("id"), *body.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Guide status updated", "isActive": *body.IsActive})
}

// DeleteGuideHandler removes a guide after unassigning them from every booking.
func (ah *AdminHandler) DeleteGuideHandler(c *gin.Context) {
	if err := ah.Guides.DeleteGuide(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Guide deleted"})
}
