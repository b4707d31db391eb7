package bookingRepo

import (
	"context"
	"errors"

	"outlandish/models"
)

// ErrBookingNotFound is returned by writes that target a booking id that does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrStatusConflict is returned when a conditional status change finds the booking in another state.
var ErrStatusConflict = errors.New("booking is not in the expected status")

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	// GetByID returns nil, nil when the booking does not exist.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListByGuide(ctx context.Context, guideID string) ([]models.Booking, error)
	// List returns bookings newest first, optionally restricted to one guide.
	List(ctx context.Context, guideID string) ([]models.Booking, error)
	// CountByGuide counts assigned bookings per guide id.
	CountByGuide(ctx context.Context) (map[string]int, error)

	// ApplyPayment adds a confirmed payment to a booking's amountPaid, creating the booking
	// from app.Booking when it is missing. It reports false when the session was already applied.
	ApplyPayment(ctx context.Context, app models.PaymentApplication) (bool, error)
	// IsSessionProcessed reports whether a checkout session has already been applied.
	IsSessionProcessed(ctx context.Context, sessionID string) (bool, error)

	SetPickupLocation(ctx context.Context, id, location string) error
	// TransitionStatus moves a booking from one status to another and appends noteLine to
	// adminNotes, in a single conditional write.
	TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus, noteLine string) error
	AppendAdminNote(ctx context.Context, id, noteLine string) error
	SetGuide(ctx context.Context, id string, guideID *string) error
	// DetachGuide nulls guideId on every booking assigned to the guide.
	DetachGuide(ctx context.Context, guideID string) (int64, error)
}
