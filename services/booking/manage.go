package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	bookingRepo "outlandish/database/repository/booking"
	"outlandish/models"

	"go.uber.org/zap"
)

const (
	maxPickupLength = 500
	maxNoteLength   = 2000
	noteTimeLayout  = "02/01/2006, 15:04:05"
)

// ListUserBookings splits the requester's bookings into upcoming and past. Bookings without
// a start date are still to be arranged, so they count as upcoming.
func (s *DefaultBookingService) ListUserBookings(ctx context.Context, requester models.SessionUser) (*models.AccountBookings, error) {
	if requester.ID == "" {
		return nil, &AuthorizationError{Message: "Please log in to continue."}
	}
	bookings, err := s.Bookings.ListByUser(ctx, requester.ID)
	if err != nil {
		return nil, dependencyError("list bookings", err)
	}

	now := s.now()
	out := &models.AccountBookings{Upcoming: []models.BookingSummary{}, Past: []models.BookingSummary{}}
	for _, summary := range s.summarize(ctx, bookings) {
		if start := summary.Booking.StartDate; start != nil && start.Before(now) {
			out.Past = append(out.Past, summary)
		} else {
			out.Upcoming = append(out.Upcoming, summary)
		}
	}
	return out, nil
}

// GuideBookings lists the bookings assigned to the requester's guide profile.
func (s *DefaultBookingService) GuideBookings(ctx context.Context, requester models.SessionUser) ([]models.BookingSummary, error) {
	if requester.ID == "" || (!requester.IsGuide && !requester.IsAdmin) {
		return nil, &AuthorizationError{Message: "Guide access only."}
	}
	guide, err := s.Guides.GetByUserID(ctx, requester.ID)
	if err != nil {
		return nil, dependencyError("load guide profile", err)
	}
	if guide == nil {
		return nil, &NotFoundError{Entity: "guide profile", ID: requester.ID}
	}

	bookings, err := s.Bookings.ListByGuide(ctx, guide.ID)
	if err != nil {
		return nil, dependencyError("list guide bookings", err)
	}
	return s.summarize(ctx, bookings), nil
}

// AdminBookings lists every booking newest first, joined with its customer and guide.
// A non-empty guideID keeps only that guide's bookings.
func (s *DefaultBookingService) AdminBookings(ctx context.Context, guideID string, admin models.SessionUser) ([]models.AdminBookingSummary, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	bookings, err := s.Bookings.List(ctx, strings.TrimSpace(guideID))
	if err != nil {
		return nil, dependencyError("list bookings", err)
	}

	guides, err := s.Guides.List(ctx)
	if err != nil {
		return nil, dependencyError("list guides", err)
	}
	guideNames := make(map[string]string, len(guides))
	for _, g := range guides {
		guideNames[g.ID] = strings.TrimSpace(g.FirstName + " " + g.LastName)
	}

	users := map[string]*models.User{}
	out := make([]models.AdminBookingSummary, 0, len(bookings))
	for _, summary := range s.summarize(ctx, bookings) {
		row := models.AdminBookingSummary{BookingSummary: summary}
		if g := summary.Booking.GuideID; g != nil {
			row.GuideName = guideNames[*g]
		}
		userID := summary.Booking.UserID
		u, ok := users[userID]
		if !ok {
			if u, err = s.Users.GetByID(ctx, userID); err != nil {
				s.logger().Warn("Failed to load customer for admin list", zap.String("userId", userID), zap.Error(err))
				u = nil
			}
			users[userID] = u
		}
		row.Customer = u
		out = append(out, row)
	}
	return out, nil
}

// UpdatePickup stores the customer's pickup instructions. An empty location clears them.
func (s *DefaultBookingService) UpdatePickup(ctx context.Context, bookingID, location string, requester models.SessionUser) error {
	location = strings.TrimSpace(location)
	if utf8.RuneCountInString(location) > maxPickupLength {
		return newValidationError("pickupLocation", fmt.Sprintf("Pickup instructions are too long (max %d characters).", maxPickupLength))
	}
	booking, err := s.ownedBooking(ctx, bookingID, requester)
	if err != nil {
		return err
	}
	if err := s.Bookings.SetPickupLocation(ctx, booking.ID, location); err != nil {
		return s.writeError("save pickup location", booking.ID, err)
	}
	return nil
}

// RequestCancellation flags a confirmed booking for staff review.
func (s *DefaultBookingService) RequestCancellation(ctx context.Context, bookingID string, requester models.SessionUser) error {
	booking, err := s.ownedBooking(ctx, bookingID, requester)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingConfirmed {
		return newValidationError("status", "Only confirmed bookings can be cancelled.")
	}
	line := s.noteLine("Cancellation requested by customer")
	err = s.Bookings.TransitionStatus(ctx, booking.ID, models.BookingConfirmed, models.BookingCancelRequested, line)
	return s.transitionError(booking.ID, err, "Only confirmed bookings can be cancelled.")
}

// ApproveCancellation cancels a booking awaiting cancellation.
func (s *DefaultBookingService) ApproveCancellation(ctx context.Context, bookingID string, admin models.SessionUser) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	line := s.noteLine("Cancelled by admin")
	err := s.Bookings.TransitionStatus(ctx, bookingID, models.BookingCancelRequested, models.BookingCancelled, line)
	return s.transitionError(bookingID, err, "Booking is not awaiting cancellation.")
}

// KeepBooking clears a cancellation request and confirms the booking again.
func (s *DefaultBookingService) KeepBooking(ctx context.Context, bookingID string, admin models.SessionUser) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	line := s.noteLine("Cancellation request cleared by admin")
	err := s.Bookings.TransitionStatus(ctx, bookingID, models.BookingCancelRequested, models.BookingConfirmed, line)
	return s.transitionError(bookingID, err, "Booking is not in cancel_requested state.")
}

// AppendAdminNote adds a staff note. Earlier notes are never rewritten.
func (s *DefaultBookingService) AppendAdminNote(ctx context.Context, bookingID, note string, admin models.SessionUser) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return newValidationError("note", "Please enter a note.")
	}
	if utf8.RuneCountInString(note) > maxNoteLength {
		return newValidationError("note", fmt.Sprintf("Notes are limited to %d characters.", maxNoteLength))
	}
	author := admin.Name
	if author == "" {
		author = admin.Email
	}
	line := fmt.Sprintf("[%s] %s: %s", s.now().Format(noteTimeLayout), author, note)
	if err := s.Bookings.AppendAdminNote(ctx, bookingID, line); err != nil {
		return s.writeError("append admin note", bookingID, err)
	}
	return nil
}

// AssignGuide points the booking at a guide. An empty guideID detaches the current one.
func (s *DefaultBookingService) AssignGuide(ctx context.Context, bookingID, guideID string, admin models.SessionUser) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}

	var target *string
	if guideID = strings.TrimSpace(guideID); guideID != "" {
		guide, err := s.Guides.GetByID(ctx, guideID)
		if err != nil {
			return dependencyError("load guide", err)
		}
		if guide == nil {
			return &NotFoundError{Entity: "guide", ID: guideID}
		}
		target = &guide.ID
	}

	if err := s.Bookings.SetGuide(ctx, bookingID, target); err != nil {
		return s.writeError("assign guide", bookingID, err)
	}
	s.logger().Info("Guide assignment updated",
		zap.String("bookingId", bookingID),
		zap.String("guideId", guideID),
		zap.String("adminId", admin.ID))
	return nil
}

// summarize joins tour titles onto bookings, loading each tour once.
func (s *DefaultBookingService) summarize(ctx context.Context, bookings []models.Booking) []models.BookingSummary {
	titles := map[string]string{}
	out := make([]models.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		title, ok := titles[b.TourID]
		if !ok {
			title = "Untitled tour"
			tour, err := s.Catalog.TourByID(ctx, b.TourID)
			if err != nil {
				s.logger().Warn("Failed to load tour for booking summary", zap.String("tourId", b.TourID), zap.Error(err))
			} else if tour != nil {
				title = tour.Title
			}
			titles[b.TourID] = title
		}
		out = append(out, models.BookingSummary{Booking: b, TourTitle: title, ShortRef: ShortRef(b.ID)})
	}
	return out
}

func (s *DefaultBookingService) noteLine(action string) string {
	return fmt.Sprintf("%s on %s", action, s.now().Format(noteTimeLayout))
}

func (s *DefaultBookingService) transitionError(bookingID string, err error, conflictMessage string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bookingRepo.ErrStatusConflict):
		return newValidationError("status", conflictMessage)
	default:
		return s.writeError("update booking status", bookingID, err)
	}
}

func (s *DefaultBookingService) writeError(op, bookingID string, err error) error {
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		return &NotFoundError{Entity: "booking", ID: bookingID}
	}
	s.logger().Error("Booking update failed", zap.String("op", op), zap.String("bookingId", bookingID), zap.Error(err))
	return dependencyError(op, err)
}

func requireAdmin(user models.SessionUser) error {
	if user.ID == "" || !user.IsAdmin {
		return &AuthorizationError{Message: "Admin access only."}
	}
	return nil
}
