package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"outlandish/models"
	"outlandish/services/booking"

	"github.com/gin-gonic/gin"
)

// TourCatalog is the read side of the catalogue used by the tour pages.
type TourCatalog interface {
	ListTours(ctx context.Context) ([]models.Tour, error)
	TourBySlug(ctx context.Context, slug string) (*models.TourListing, error)
}

type TourHandler struct {
	Catalog TourCatalog
	Booking booking.BookingService
}

func NewTourHandler(catalog TourCatalog, bs booking.BookingService) *TourHandler {
	return &TourHandler{Catalog: catalog, Booking: bs}
}

func (h *TourHandler) ListToursHandler(c *gin.Context) {
	tours, err := h.Catalog.ListTours(c.Request.Context())
	if err != nil {
		respondError(c, &booking.DependencyError{Op: "list tours", Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tours": tours})
}

// GetTourHandler returns an active tour with the options that can be booked with it.
func (h *TourHandler) GetTourHandler(c *gin.Context) {
	slug := c.Param("slug")
	listing, err := h.Catalog.TourBySlug(c.Request.Context(), slug)
	if err != nil {
		respondError(c, &booking.DependencyError{Op: "load tour", Err: err})
		return
	}
	if listing == nil || !listing.Tour.IsActive {
		respondError(c, &booking.NotFoundError{Entity: "tour", ID: slug})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// QuoteHandler prices ?guests=N&options=a,b for the booking page.
func (h *TourHandler) QuoteHandler(c *gin.Context) {
	guests, err := strconv.Atoi(c.DefaultQuery("guests", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guests must be a whole number", "field": "guests"})
		return
	}

	quote, err := h.Booking.DepositQuote(c.Request.Context(), c.Param("slug"), guests, optionIDs(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// optionIDs accepts both repeated and comma-separated "options" values.
func optionIDs(c *gin.Context) []string {
	var ids []string
	for _, raw := range c.QueryArray("options") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
