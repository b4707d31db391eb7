package booking

import (
	"context"
	"time"

	bookingRepo "outlandish/database/repository/booking"
	guideRepo "outlandish/database/repository/guide"
	userRepo "outlandish/database/repository/user"
	"outlandish/models"
	"outlandish/services/payment"
	"outlandish/services/pricing"

	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

// BookingService covers the deposit checkout, the payment webhook, balance payments and
// the account, guide and admin views of a booking.
type BookingService interface {
	// Booking flow
	DepositQuote(ctx context.Context, slug string, guests int, optionIDs []string) (*Quote, error)
	StartBooking(ctx context.Context, requester models.SessionUser, req BookingRequest) (*models.BookingStart, error)
	CompletionStatus(ctx context.Context, sessionID string) (*models.CompletionStatus, error)

	// Payment webhook
	HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error)

	// Balance payments
	BalanceSummary(ctx context.Context, bookingID string, requester models.SessionUser) (*models.BalanceView, error)
	RequestBalancePayment(ctx context.Context, bookingID string, requestedAmount int64, requester models.SessionUser) (*models.CheckoutSession, error)

	// Account and guide views
	ListUserBookings(ctx context.Context, requester models.SessionUser) (*models.AccountBookings, error)
	UpdatePickup(ctx context.Context, bookingID, location string, requester models.SessionUser) error
	RequestCancellation(ctx context.Context, bookingID string, requester models.SessionUser) error
	GuideBookings(ctx context.Context, requester models.SessionUser) ([]models.BookingSummary, error)

	// Admin
	AdminBookings(ctx context.Context, guideID string, admin models.SessionUser) ([]models.AdminBookingSummary, error)
	ApproveCancellation(ctx context.Context, bookingID string, admin models.SessionUser) error
	KeepBooking(ctx context.Context, bookingID string, admin models.SessionUser) error
	AppendAdminNote(ctx context.Context, bookingID, note string, admin models.SessionUser) error
	AssignGuide(ctx context.Context, bookingID, guideID string, admin models.SessionUser) error
}

// Catalog serves tours. Both getters return nil, nil when the tour does not exist.
// AllowedOptions must not be served from a cache: prices are checked against it.
type Catalog interface {
	TourBySlug(ctx context.Context, slug string) (*models.TourListing, error)
	TourByID(ctx context.Context, id string) (*models.Tour, error)
	AllowedOptions(ctx context.Context, tourID string) ([]models.ExtraOption, error)
}

// CheckoutProvider creates and looks up hosted checkout sessions.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, kind models.PaymentType, amount int64, cc payment.CheckoutContext) (*models.CheckoutSession, error)
	LookupSession(ctx context.Context, sessionID string) (*payment.SessionSnapshot, error)
}

// EventVerifier checks a webhook signature and parses the event.
type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

// ReceiptQueue schedules the receipt email for an applied payment.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, payload models.ReceiptPayload) error
}

// DefaultBookingService is the production implementation. Receipts may be nil.
type DefaultBookingService struct {
	Bookings bookingRepo.BookingRepository
	Users    userRepo.UserRepository
	Guides   guideRepo.GuideRepository
	Catalog  Catalog
	Checkout CheckoutProvider
	Verifier EventVerifier
	Receipts ReceiptQueue

	DepositPercent    int64
	MinBalancePercent int64

	Logger *zap.Logger
	Now    func() time.Time
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *DefaultBookingService) depositPercent() int64 {
	return pricing.NormalizeDepositPercent(s.DepositPercent)
}

func (s *DefaultBookingService) minBalancePercent() int64 {
	return pricing.NormalizeMinBalancePercent(s.MinBalancePercent)
}
