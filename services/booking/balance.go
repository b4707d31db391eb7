package booking

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"outlandish/metrics"
	"outlandish/models"
	"outlandish/services/payment"
	"outlandish/services/pricing"

	"go.uber.org/zap"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// ShortRef is the customer-facing booking reference, e.g. OT-3F9A1C.
func ShortRef(id string) string {
	clean := nonAlphanumeric.ReplaceAllString(id, "")
	if len(clean) > 6 {
		clean = clean[len(clean)-6:]
	}
	return "OT-" + strings.ToUpper(clean)
}

// BalanceSummary is the account page's view of a booking and what is still owed on it.
func (s *DefaultBookingService) BalanceSummary(ctx context.Context, bookingID string, requester models.SessionUser) (*models.BalanceView, error) {
	booking, err := s.ownedBooking(ctx, bookingID, requester)
	if err != nil {
		return nil, err
	}

	tour, err := s.Catalog.TourByID(ctx, booking.TourID)
	if err != nil {
		s.logger().Warn("BalanceSummary: failed to load tour", zap.String("tourId", booking.TourID), zap.Error(err))
		tour = nil
	}

	balance := pricing.BalanceRemaining(booking.TotalAmount, booking.AmountPaid)
	return &models.BalanceView{
		Booking:          *booking,
		Tour:             tour,
		ShortRef:         ShortRef(booking.ID),
		BalanceRemaining: balance,
		MinPayment:       pricing.MinBalancePayment(balance, s.minBalancePercent()),
	}, nil
}

// RequestBalancePayment checks a requested top-up against what is owed and opens a balance
// checkout for it. Amounts below the minimum or above the remaining balance are rejected.
func (s *DefaultBookingService) RequestBalancePayment(ctx context.Context, bookingID string, requestedAmount int64, requester models.SessionUser) (*models.CheckoutSession, error) {
	booking, err := s.ownedBooking(ctx, bookingID, requester)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingCancelled {
		metrics.IncBalanceRejection("cancelled")
		return nil, newValidationError("amount", "This booking has been cancelled.")
	}

	balance := pricing.BalanceRemaining(booking.TotalAmount, booking.AmountPaid)
	if balance <= 0 {
		metrics.IncBalanceRejection("fully_paid")
		return nil, newValidationError("amount", "This booking is already fully paid.")
	}
	minPayment := pricing.MinBalancePayment(balance, s.minBalancePercent())
	if requestedAmount < minPayment {
		metrics.IncBalanceRejection("below_minimum")
		return nil, newValidationError("amount", fmt.Sprintf("The minimum payment is £%d.", minPayment))
	}
	if requestedAmount > balance {
		metrics.IncBalanceRejection("above_balance")
		return nil, newValidationError("amount", fmt.Sprintf("You only owe £%d on this booking.", balance))
	}

	email := booking.CustomerEmail
	if email == "" {
		email = requester.Email
	}
	when := "your tour"
	if booking.StartDate != nil {
		when = booking.StartDate.Format("02/01/2006")
	}
	cc := payment.CheckoutContext{
		Metadata: payment.CheckoutMetadata{
			BookingID:     booking.ID,
			UserID:        booking.UserID,
			TourID:        booking.TourID,
			CustomerName:  booking.CustomerName,
			CustomerEmail: email,
		},
		ProductName: "Payment towards booking " + ShortRef(booking.ID),
		Description: "Balance payment for " + when,
	}

	session, err := s.Checkout.CreateCheckoutSession(ctx, models.PaymentBalance, requestedAmount, cc)
	if err != nil {
		return nil, checkoutError(err)
	}

	s.logger().Info("Balance checkout started",
		zap.String("bookingId", booking.ID),
		zap.String("requesterId", requester.ID),
		zap.Int64("amount", requestedAmount),
		zap.Int64("balanceRemaining", balance))
	return session, nil
}

// ownedBooking loads a booking the requester may act on: their own, or any for staff.
func (s *DefaultBookingService) ownedBooking(ctx context.Context, bookingID string, requester models.SessionUser) (*models.Booking, error) {
	if requester.ID == "" {
		return nil, &AuthorizationError{Message: "Please log in to continue."}
	}
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, newValidationError("id", "Missing booking ID.")
	}

	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, dependencyError("load booking", err)
	}
	if booking == nil {
		return nil, &NotFoundError{Entity: "booking", ID: bookingID}
	}
	if booking.UserID != requester.ID && !requester.IsAdmin {
		return nil, &AuthorizationError{Message: "You do not have access to this booking."}
	}
	return booking, nil
}
