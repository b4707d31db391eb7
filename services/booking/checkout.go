package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"outlandish/models"
	"outlandish/services/payment"
	"outlandish/services/pricing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxNotesLength = 500

// BookingRequest is the booking form. Name and email default to the signed-in user's.
type BookingRequest struct {
	Slug           string   `json:"-"`
	Name           string   `json:"name" validate:"required,max=200"`
	Email          string   `json:"email" validate:"required,email"`
	StartDate      string   `json:"startDate" validate:"required"`
	Guests         int      `json:"guests" validate:"gt=0"`
	Notes          string   `json:"notes"`
	ExtraOptionIDs []string `json:"extraOptionIds"`
}

// Quote previews what a booking will cost before checkout.
type Quote struct {
	pricing.Totals
	DepositPercent int64 `json:"depositPercent"`
	DepositAmount  int64 `json:"depositAmount"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"name":      "Please enter your name.",
	"email":     "Please enter a valid email.",
	"startDate": "Please choose a date.",
	"guests":    "Please enter a valid number of guests.",
}

func validateRequest(req BookingRequest) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		msg, ok := fieldMessages[field]
		if !ok {
			msg = "Please correct this field."
		}
		return newValidationError(field, msg)
	}
	return err
}

// DepositQuote prices a prospective booking of an active tour.
func (s *DefaultBookingService) DepositQuote(ctx context.Context, slug string, guests int, optionIDs []string) (*Quote, error) {
	listing, err := s.activeListing(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, listing, guests, optionIDs)
}

// quote prices against the options active right now, not the cached listing's copy.
func (s *DefaultBookingService) quote(ctx context.Context, listing *models.TourListing, guests int, optionIDs []string) (*Quote, error) {
	if limit := listing.Tour.MaxGroupSize; limit > 0 && guests > limit {
		return nil, newValidationError("guests", fmt.Sprintf("This tour takes at most %d guests.", limit))
	}
	allowed, err := s.Catalog.AllowedOptions(ctx, listing.Tour.ID)
	if err != nil {
		return nil, dependencyError("load tour options", err)
	}
	totals, err := pricing.ComputeTotals(listing.Tour, guests, optionIDs, allowed)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidGuests) {
			return nil, newValidationError("guests", fieldMessages["guests"])
		}
		return nil, newValidationError("", "Unable to calculate booking price. Please contact us.")
	}
	percent := s.depositPercent()
	deposit, err := pricing.DepositAmount(totals.TotalAmount, percent)
	if err != nil {
		return nil, newValidationError("", "Unable to calculate booking price. Please contact us.")
	}
	return &Quote{Totals: totals, DepositPercent: percent, DepositAmount: deposit}, nil
}

// StartBooking prices the booking on the server, pre-generates the booking id and opens a
// deposit checkout. The booking itself is only written once the payment webhook arrives.
func (s *DefaultBookingService) StartBooking(ctx context.Context, requester models.SessionUser, req BookingRequest) (*models.BookingStart, error) {
	if requester.ID == "" {
		return nil, &AuthorizationError{Message: "Please log in to book."}
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.StartDate = strings.TrimSpace(req.StartDate)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.Name == "" {
		req.Name = requester.Name
	}
	if req.Email == "" {
		req.Email = requester.Email
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if parseStartDate(req.StartDate) == nil {
		return nil, newValidationError("startDate", fieldMessages["startDate"])
	}
	if utf8.RuneCountInString(req.Notes) > maxNotesLength {
		return nil, newValidationError("notes", fmt.Sprintf("Notes are too long (max %d characters).", maxNotesLength))
	}

	listing, err := s.activeListing(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	q, err := s.quote(ctx, listing, req.Guests, req.ExtraOptionIDs)
	if err != nil {
		return nil, err
	}

	if err := s.Users.Upsert(ctx, &models.User{ID: requester.ID, Email: req.Email, Name: req.Name}); err != nil {
		s.logger().Warn("StartBooking: failed to upsert user", zap.String("userId", requester.ID), zap.Error(err))
	}

	tour := listing.Tour
	bookingID := uuid.New().String()
	cc := payment.CheckoutContext{
		Metadata: payment.CheckoutMetadata{
			BookingID:         bookingID,
			UserID:            requester.ID,
			TourID:            tour.ID,
			TourTitle:         tour.Title,
			Slug:              tour.Slug,
			StartDate:         req.StartDate,
			Guests:            req.Guests,
			CustomerName:      req.Name,
			CustomerEmail:     req.Email,
			BaseTotal:         q.BaseTotal,
			ExtrasTotal:       q.ExtrasTotal,
			TotalAmount:       q.TotalAmount,
			DepositPercent:    q.DepositPercent,
			SelectedOptionIDs: q.SelectedOptionIDs,
			Notes:             req.Notes,
		},
		ProductName: "Deposit for " + tour.Title,
		Description: fmt.Sprintf("Tour date: %s, Guests: %d. %s", req.StartDate, req.Guests, describeExtras(q.Selected)),
	}

	session, err := s.Checkout.CreateCheckoutSession(ctx, models.PaymentDeposit, q.DepositAmount, cc)
	if err != nil {
		return nil, checkoutError(err)
	}

	s.logger().Info("Deposit checkout started",
		zap.String("bookingId", bookingID),
		zap.String("tourId", tour.ID),
		zap.String("userId", requester.ID),
		zap.Int64("depositAmount", q.DepositAmount))

	return &models.BookingStart{
		BookingID:     bookingID,
		CheckoutURL:   session.URL,
		BaseTotal:     q.BaseTotal,
		ExtrasTotal:   q.ExtrasTotal,
		TotalAmount:   q.TotalAmount,
		DepositAmount: q.DepositAmount,
	}, nil
}

// CompletionStatus backs the checkout success page. The webhook may not have run yet, in
// which case the state is "pending" and the session metadata fills in the details.
func (s *DefaultBookingService) CompletionStatus(ctx context.Context, sessionID string) (*models.CompletionStatus, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, newValidationError("session_id", "Missing session_id.")
	}

	snap, err := s.Checkout.LookupSession(ctx, sessionID)
	if err != nil {
		return nil, dependencyError("lookup checkout session", err)
	}

	status := &models.CompletionStatus{SessionID: sessionID, State: "pending"}
	if snap.MetadataErr == nil {
		status.BookingID = snap.Metadata.BookingID
		status.TourTitle = snap.Metadata.TourTitle
		status.DepositAmount = snap.Metadata.DepositAmount
		status.TotalAmount = snap.Metadata.TotalAmount
	}

	processed, err := s.Bookings.IsSessionProcessed(ctx, sessionID)
	if err != nil {
		return nil, dependencyError("check processed payment", err)
	}
	if !processed || status.BookingID == "" {
		return status, nil
	}

	booking, err := s.Bookings.GetByID(ctx, status.BookingID)
	if err != nil {
		return nil, dependencyError("load booking", err)
	}
	if booking != nil {
		status.State = "recorded"
		status.Booking = booking
	}
	return status, nil
}

func (s *DefaultBookingService) activeListing(ctx context.Context, slug string) (*models.TourListing, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, newValidationError("slug", "Missing tour slug.")
	}
	listing, err := s.Catalog.TourBySlug(ctx, slug)
	if err != nil {
		return nil, dependencyError("load tour", err)
	}
	if listing == nil || !listing.Tour.IsActive {
		return nil, &NotFoundError{Entity: "tour", ID: slug}
	}
	return listing, nil
}

// checkoutError keeps metadata problems as validation errors and everything else as a
// provider failure.
func checkoutError(err error) error {
	var merr *payment.MetadataError
	if errors.As(err, &merr) {
		return newValidationError(merr.Key, merr.Reason)
	}
	if errors.Is(err, payment.ErrInvalidAmount) {
		return newValidationError("amount", "Please enter a valid payment amount.")
	}
	return dependencyError("create checkout session", err)
}

func describeExtras(selected []models.ExtraOption) string {
	if len(selected) == 0 {
		return "Extras: none"
	}
	parts := make([]string, 0, len(selected))
	for _, opt := range selected {
		if opt.ChargeType == models.ChargePerPerson {
			parts = append(parts, fmt.Sprintf("%s (£%d pp)", opt.Name, opt.Price))
		} else {
			parts = append(parts, fmt.Sprintf("%s (£%d per tour)", opt.Name, opt.Price))
		}
	}
	return "Extras: " + strings.Join(parts, ", ")
}

var startDateLayouts = []string{"2006-01-02", time.RFC3339Nano, "2006-01-02T15:04"}

// parseStartDate returns nil for anything that is not a recognisable date.
func parseStartDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
