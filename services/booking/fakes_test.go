package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	bookingRepo "outlandish/database/repository/booking"
	"outlandish/models"
	"outlandish/services/payment"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_booking_test"

type fakeBookings struct {
	mu        sync.Mutex
	bookings  map[string]*models.Booking
	processed map[string]models.ProcessedPayment
	failApply error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{bookings: map[string]*models.Booking{}, processed: map[string]models.ProcessedPayment{}}
}

func (f *fakeBookings) put(b models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[b.ID] = &b
}

func (f *fakeBookings) get(id string) *models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return f.get(id), nil
}

func (f *fakeBookings) list(match func(*models.Booking) bool) []models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Booking{}
	for _, b := range f.bookings {
		if match(b) {
			out = append(out, *b)
		}
	}
	return out
}

func (f *fakeBookings) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return f.list(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (f *fakeBookings) ListByGuide(ctx context.Context, guideID string) ([]models.Booking, error) {
	return f.list(func(b *models.Booking) bool { return b.GuideID != nil && *b.GuideID == guideID }), nil
}

func (f *fakeBookings) List(ctx context.Context, guideID string) ([]models.Booking, error) {
	out := f.list(func(b *models.Booking) bool {
		return guideID == "" || (b.GuideID != nil && *b.GuideID == guideID)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeBookings) CountByGuide(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, b := range f.list(func(b *models.Booking) bool { return b.GuideID != nil }) {
		counts[*b.GuideID]++
	}
	return counts, nil
}

func (f *fakeBookings) ApplyPayment(ctx context.Context, app models.PaymentApplication) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failApply != nil {
		return false, f.failApply
	}
	if _, ok := f.processed[app.SessionID]; ok {
		return false, nil
	}
	existing, ok := f.bookings[app.BookingID]
	switch {
	case ok:
		existing.AmountPaid += app.Amount
	case app.Booking == nil:
		return false, bookingRepo.ErrBookingNotFound
	default:
		b := *app.Booking
		b.AmountPaid = app.Amount
		b.GuideID = nil
		f.bookings[b.ID] = &b
	}
	f.processed[app.SessionID] = models.ProcessedPayment{SessionID: app.SessionID, BookingID: app.BookingID, Amount: app.Amount, PaymentType: app.PaymentType}
	return true, nil
}

func (f *fakeBookings) IsSessionProcessed(ctx context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.processed[sessionID]
	return ok, nil
}

func (f *fakeBookings) update(id string, fn func(*models.Booking) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	return fn(b)
}

func appendNote(b *models.Booking, line string) {
	if b.AdminNotes == "" {
		b.AdminNotes = line
		return
	}
	b.AdminNotes += "\n" + line
}

func (f *fakeBookings) SetPickupLocation(ctx context.Context, id, location string) error {
	return f.update(id, func(b *models.Booking) error { b.PickupLocation = location; return nil })
}

func (f *fakeBookings) TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus, noteLine string) error {
	return f.update(id, func(b *models.Booking) error {
		if b.Status != from {
			return bookingRepo.ErrStatusConflict
		}
		b.Status = to
		appendNote(b, noteLine)
		return nil
	})
}

func (f *fakeBookings) AppendAdminNote(ctx context.Context, id, noteLine string) error {
	return f.update(id, func(b *models.Booking) error { appendNote(b, noteLine); return nil })
}

func (f *fakeBookings) SetGuide(ctx context.Context, id string, guideID *string) error {
	return f.update(id, func(b *models.Booking) error { b.GuideID = guideID; return nil })
}

func (f *fakeBookings) DetachGuide(ctx context.Context, guideID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.bookings {
		if b.GuideID != nil && *b.GuideID == guideID {
			b.GuideID = nil
			n++
		}
	}
	return n, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeUsers) Upsert(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.users == nil {
		f.users = map[string]models.User{}
	}
	f.users[user.ID] = *user
	return nil
}

type fakeGuides struct {
	guides []models.Guide
}

func (f *fakeGuides) GetByID(ctx context.Context, id string) (*models.Guide, error) {
	for i := range f.guides {
		if f.guides[i].ID == id {
			return &f.guides[i], nil
		}
	}
	return nil, nil
}

func (f *fakeGuides) GetByUserID(ctx context.Context, userID string) (*models.Guide, error) {
	for i := range f.guides {
		if f.guides[i].UserID == userID {
			return &f.guides[i], nil
		}
	}
	return nil, nil
}

func (f *fakeGuides) List(ctx context.Context) ([]models.Guide, error) { return f.guides, nil }

func (f *fakeGuides) SetActive(ctx context.Context, id string, active bool) error { return nil }

func (f *fakeGuides) Delete(ctx context.Context, id string) error { return nil }

type fakeCatalog struct {
	listings map[string]models.TourListing
	// options overrides a listing's options by tour id, standing in for the live table.
	options map[string][]models.ExtraOption
}

func (f *fakeCatalog) AllowedOptions(ctx context.Context, tourID string) ([]models.ExtraOption, error) {
	if opts, ok := f.options[tourID]; ok {
		return opts, nil
	}
	for _, l := range f.listings {
		if l.Tour.ID == tourID {
			return l.Options, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) TourBySlug(ctx context.Context, slug string) (*models.TourListing, error) {
	if l, ok := f.listings[slug]; ok {
		return &l, nil
	}
	return nil, nil
}

func (f *fakeCatalog) TourByID(ctx context.Context, id string) (*models.Tour, error) {
	for _, l := range f.listings {
		if l.Tour.ID == id {
			t := l.Tour
			return &t, nil
		}
	}
	return nil, nil
}

// recordingGateway stands in for Stripe behind the real checkout builder.
type recordingGateway struct {
	created []*stripe.CheckoutSessionParams
	lookup  map[string]*stripe.CheckoutSession
}

func (g *recordingGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.created = append(g.created, params)
	id := fmt.Sprintf("cs_test_%d", len(g.created))
	return &stripe.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (g *recordingGateway) GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return g.lookup[id], nil
}

func (g *recordingGateway) last(t *testing.T) *stripe.CheckoutSessionParams {
	t.Helper()
	if len(g.created) == 0 {
		t.Fatal("no checkout session was created")
	}
	return g.created[len(g.created)-1]
}

type fakeReceipts struct {
	sent []models.ReceiptPayload
}

func (f *fakeReceipts) EnqueueReceipt(ctx context.Context, payload models.ReceiptPayload) error {
	f.sent = append(f.sent, payload)
	return nil
}

type harness struct {
	svc      *DefaultBookingService
	bookings *fakeBookings
	users    *fakeUsers
	gateway  *recordingGateway
	receipts *fakeReceipts
	catalog  *fakeCatalog
}

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func wildAtlanticWay() models.TourListing {
	return models.TourListing{
		Tour: models.Tour{
			ID: "tour-1", Slug: "wild-atlantic-way", Title: "Wild Atlantic Way",
			Price: 150, PricingMode: models.PricingPerPerson, MaxGroupSize: 8, IsActive: true,
		},
		Options: []models.ExtraOption{
			{ID: "opt-lunch", Name: "Picnic lunch", Price: 15, ChargeType: models.ChargePerPerson, IsActive: true},
			{ID: "opt-photos", Name: "Photo pack", Price: 40, ChargeType: models.ChargePerTour, IsActive: true},
		},
	}
}

func newHarness() *harness {
	h := &harness{
		bookings: newFakeBookings(),
		users:    &fakeUsers{},
		gateway:  &recordingGateway{lookup: map[string]*stripe.CheckoutSession{}},
		receipts: &fakeReceipts{},
	}
	retired := wildAtlanticWay()
	retired.Tour.ID, retired.Tour.Slug, retired.Tour.IsActive = "tour-2", "retired", false
	h.catalog = &fakeCatalog{listings: map[string]models.TourListing{
		"wild-atlantic-way": wildAtlanticWay(),
		"retired":           retired,
	}}

	h.svc = &DefaultBookingService{
		Bookings: h.bookings,
		Users:    h.users,
		Guides: &fakeGuides{guides: []models.Guide{
			{ID: "guide-1", UserID: "user-guide", FirstName: "Niamh"},
		}},
		Catalog:           h.catalog,
		Checkout:          payment.NewCheckoutBuilder(h.gateway, "gbp", "https://tours.example.com", nil),
		Verifier:          payment.NewWebhookVerifier(testWebhookSecret),
		Receipts:          h.receipts,
		DepositPercent:    25,
		MinBalancePercent: 20,
		Now:               func() time.Time { return fixedNow },
	}
	return h
}

// completedEvent builds a signed checkout.session.completed delivery.
func completedEvent(t *testing.T, sessionID, paymentStatus string, metadata map[string]string) ([]byte, string) {
	t.Helper()
	body := map[string]interface{}{
		"id":     "evt_" + sessionID,
		"object": "event",
		"type":   "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             sessionID,
				"object":         "checkout.session",
				"payment_status": paymentStatus,
				"metadata":       metadata,
			},
		},
	}
	return signEvent(t, body)
}

func signEvent(t *testing.T, body interface{}) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	return payload, signed.Header
}

var (
	customer  = models.SessionUser{ID: "user-1", Email: "ada@example.com", Name: "Ada Lovelace"}
	stranger  = models.SessionUser{ID: "user-2", Email: "eve@example.com", Name: "Eve"}
	admin     = models.SessionUser{ID: "admin-1", Email: "ops@example.com", Name: "Ops", IsAdmin: true}
	guideUser = models.SessionUser{ID: "user-guide", Email: "niamh@example.com", Name: "Niamh", IsGuide: true}
)
