package booking

import (
	"context"
	"errors"
	"testing"

	"outlandish/models"
)

func bookingRequest() BookingRequest {
	return BookingRequest{
		Slug:      "wild-atlantic-way",
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		StartDate: "2025-06-01",
		Guests:    2,
		Notes:     "vegetarian",
	}
}

func TestStartBookingRequestsDepositCheckout(t *testing.T) {
	h := newHarness()

	start, err := h.svc.StartBooking(context.Background(), customer, bookingRequest())
	if err != nil {
		t.Fatalf("StartBooking: %v", err)
	}
	if start.BaseTotal != 300 || start.TotalAmount != 300 || start.DepositAmount != 75 {
		t.Fatalf("unexpected totals: %+v", start)
	}
	if start.BookingID == "" || start.CheckoutURL == "" {
		t.Fatalf("missing booking id or url: %+v", start)
	}

	params := h.gateway.last(t)
	if got := *params.LineItems[0].PriceData.UnitAmount; got != 7500 {
		t.Errorf("unit amount = %d, want 7500", got)
	}
	if params.Metadata["bookingId"] != start.BookingID || params.Metadata["userId"] != customer.ID {
		t.Errorf("metadata identity mismatch: %v", params.Metadata)
	}
	if h.bookings.get(start.BookingID) != nil {
		t.Error("booking must not exist before the webhook arrives")
	}
}

func TestStartBookingSanitizesExtras(t *testing.T) {
	h := newHarness()
	req := bookingRequest()
	req.ExtraOptionIDs = []string{"opt-lunch", "opt-from-another-tour", "opt-photos", "opt-lunch"}

	start, err := h.svc.StartBooking(context.Background(), customer, req)
	if err != nil {
		t.Fatalf("StartBooking: %v", err)
	}
	// 300 base + 15*2 lunch + 40 photos
	if start.ExtrasTotal != 70 || start.TotalAmount != 370 {
		t.Fatalf("unexpected totals: %+v", start)
	}
	if got := h.gateway.last(t).Metadata["selectedExtraOptionIds"]; got != "opt-lunch,opt-photos" {
		t.Errorf("selected options = %q", got)
	}
}

func TestStartBookingRejects(t *testing.T) {
	tests := []struct {
		name      string
		req       func() *BookingRequest
		user      bool
		check     func(error) bool
	}{
		{"missing date", func() *BookingRequest { r := bookingRequest(); r.StartDate = ""; return &r }, true, IsValidation},
		{"bad date", func() *BookingRequest { r := bookingRequest(); r.StartDate = "next tuesday"; return &r }, true, IsValidation},
		{"no guests", func() *BookingRequest { r := bookingRequest(); r.Guests = 0; return &r }, true, IsValidation},
		{"group too large", func() *BookingRequest { r := bookingRequest(); r.Guests = 9; return &r }, true, IsValidation},
		{"bad email", func() *BookingRequest { r := bookingRequest(); r.Email = "not-an-email"; return &r }, true, IsValidation},
		{"unknown tour", func() *BookingRequest { r := bookingRequest(); r.Slug = "nope"; return &r }, true, isNotFound},
		{"inactive tour", func() *BookingRequest { r := bookingRequest(); r.Slug = "retired"; return &r }, true, isNotFound},
		{"signed out", func() *BookingRequest { r := bookingRequest(); return &r }, false, isAuthorization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			requester := customer
			if !tt.user {
				requester.ID = ""
			}
			_, err := h.svc.StartBooking(context.Background(), requester, *tt.req())
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(h.gateway.created) != 0 {
				t.Fatal("no checkout session should be created")
			}
		})
	}
}

func TestStartBookingFallsBackToSessionIdentity(t *testing.T) {
	h := newHarness()
	req := bookingRequest()
	req.Name, req.Email = "", ""

	if _, err := h.svc.StartBooking(context.Background(), customer, req); err != nil {
		t.Fatalf("StartBooking: %v", err)
	}
	if got := *h.gateway.last(t).CustomerEmail; got != customer.Email {
		t.Errorf("customer email = %q", got)
	}
}

func TestDepositQuote(t *testing.T) {
	h := newHarness()
	q, err := h.svc.DepositQuote(context.Background(), "wild-atlantic-way", 4, []string{"opt-photos"})
	if err != nil {
		t.Fatalf("DepositQuote: %v", err)
	}
	if q.TotalAmount != 640 || q.DepositAmount != 160 || q.DepositPercent != 25 {
		t.Fatalf("unexpected quote: %+v", q)
	}
}

func TestCompletionStatus(t *testing.T) {
	h := newHarness()
	start, err := h.svc.StartBooking(context.Background(), customer, bookingRequest())
	if err != nil {
		t.Fatalf("StartBooking: %v", err)
	}
	md := h.gateway.last(t).Metadata
	h.gateway.lookup["cs_test_1"] = sessionWithMetadata("cs_test_1", md)

	status, err := h.svc.CompletionStatus(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("CompletionStatus: %v", err)
	}
	if status.State != "pending" || status.BookingID != start.BookingID || status.DepositAmount != 75 {
		t.Fatalf("before webhook: %+v", status)
	}

	payload, sig := completedEvent(t, "cs_test_1", "paid", md)
	if _, err := h.svc.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	status, err = h.svc.CompletionStatus(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("CompletionStatus: %v", err)
	}
	if status.State != "recorded" || status.Booking == nil || status.Booking.AmountPaid != 75 {
		t.Fatalf("after webhook: %+v", status)
	}
}

func TestCompletionStatusRequiresSessionID(t *testing.T) {
	h := newHarness()
	if _, err := h.svc.CompletionStatus(context.Background(), " "); !IsValidation(err) {
		t.Fatalf("err = %v", err)
	}
}

func isNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func isAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

func TestStartBookingDropsOptionDeactivatedSinceListingWasCached(t *testing.T) {
	h := newHarness()
	req := bookingRequest()
	req.ExtraOptionIDs = []string{"opt-lunch"}

	first, err := h.svc.StartBooking(context.Background(), customer, req)
	if err != nil {
		t.Fatalf("StartBooking: %v", err)
	}
	if first.ExtrasTotal != 30 {
		t.Fatalf("extras before deactivation = %d, want 30", first.ExtrasTotal)
	}

	// The cached listing still carries the lunch option; only the live set drops it.
	h.catalog.options = map[string][]models.ExtraOption{
		"tour-1": {{ID: "opt-photos", Name: "Photo pack", Price: 40, ChargeType: models.ChargePerTour, IsActive: true}},
	}

	second, err := h.svc.StartBooking(context.Background(), customer, req)
	if err != nil {
		t.Fatalf("StartBooking: %v", err)
	}
	if second.ExtrasTotal != 0 || second.TotalAmount != 300 {
		t.Fatalf("totals after deactivation = %+v", second)
	}
	if got := h.gateway.last(t).Metadata["selectedExtraOptionIds"]; got != "" {
		t.Errorf("selected options after deactivation = %q, want none", got)
	}

	quote, err := h.svc.DepositQuote(context.Background(), "wild-atlantic-way", 2, []string{"opt-lunch"})
	if err != nil {
		t.Fatalf("DepositQuote: %v", err)
	}
	if len(quote.SelectedOptionIDs) != 0 {
		t.Errorf("quote still selects %v", quote.SelectedOptionIDs)
	}
}
