package booking

import (
	"context"
	"testing"
	"time"

	"outlandish/models"
)

func seedBooking(h *harness, total, paid int64) models.Booking {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	b := models.Booking{
		ID:            "6f1c2d3e-aaaa-bbbb-cccc-0123453f9a1c",
		UserID:        customer.ID,
		TourID:        "tour-1",
		StartDate:     &start,
		Guests:        2,
		TotalAmount:   total,
		AmountPaid:    paid,
		Status:        models.BookingConfirmed,
		CustomerEmail: customer.Email,
	}
	h.bookings.put(b)
	return b
}

func TestBalanceGuardBounds(t *testing.T) {
	tests := []struct {
		amount int64
		ok     bool
	}{
		{79, false},
		{80, true},
		{250, true},
		{400, true},
		{401, false},
		{0, false},
		{-5, false},
	}

	for _, tt := range tests {
		h := newHarness()
		b := seedBooking(h, 500, 100)

		session, err := h.svc.RequestBalancePayment(context.Background(), b.ID, tt.amount, customer)
		if tt.ok {
			if err != nil {
				t.Errorf("amount %d: unexpected error %v", tt.amount, err)
				continue
			}
			if session.URL == "" {
				t.Errorf("amount %d: empty checkout url", tt.amount)
			}
			if got := *h.gateway.last(t).LineItems[0].PriceData.UnitAmount; got != tt.amount*100 {
				t.Errorf("amount %d: unit amount = %d", tt.amount, got)
			}
			continue
		}
		if !IsValidation(err) {
			t.Errorf("amount %d: expected ValidationError, got %v", tt.amount, err)
		}
		if len(h.gateway.created) != 0 {
			t.Errorf("amount %d: checkout must not be created", tt.amount)
		}
	}
}

func TestBalanceGuardRejections(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		paid      int64
		status    models.BookingStatus
		bookingID string
		requester models.SessionUser
		check     func(error) bool
	}{
		{"fully paid", 300, 300, models.BookingConfirmed, "", customer, IsValidation},
		{"overpaid", 300, 320, models.BookingConfirmed, "", customer, IsValidation},
		{"cancelled", 300, 75, models.BookingCancelled, "", customer, IsValidation},
		{"someone else's booking", 300, 75, models.BookingConfirmed, "", stranger, isAuthorization},
		{"missing booking", 300, 75, models.BookingConfirmed, "bk-missing", customer, isNotFound},
		{"signed out", 300, 75, models.BookingConfirmed, "", models.SessionUser{}, isAuthorization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			b := seedBooking(h, tt.total, tt.paid)
			h.bookings.update(b.ID, func(stored *models.Booking) error { stored.Status = tt.status; return nil })
			id := b.ID
			if tt.bookingID != "" {
				id = tt.bookingID
			}

			_, err := h.svc.RequestBalancePayment(context.Background(), id, 50, tt.requester)
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAdminMayTakeBalancePayment(t *testing.T) {
	h := newHarness()
	b := seedBooking(h, 500, 100)
	if _, err := h.svc.RequestBalancePayment(context.Background(), b.ID, 100, admin); err != nil {
		t.Fatalf("admin request: %v", err)
	}
	md := h.gateway.last(t).Metadata
	if md["userId"] != customer.ID {
		t.Fatalf("balance metadata should carry the booking owner, got %q", md["userId"])
	}
}

func TestBalancePaymentEndToEnd(t *testing.T) {
	h := newHarness()
	b := seedBooking(h, 300, 75)

	view, err := h.svc.BalanceSummary(context.Background(), b.ID, customer)
	if err != nil {
		t.Fatalf("BalanceSummary: %v", err)
	}
	if view.BalanceRemaining != 225 || view.MinPayment != 45 || view.ShortRef != "OT-3F9A1C" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Tour == nil || view.Tour.Title != "Wild Atlantic Way" {
		t.Fatalf("tour not joined: %+v", view.Tour)
	}

	if _, err := h.svc.RequestBalancePayment(context.Background(), b.ID, 225, customer); err != nil {
		t.Fatalf("RequestBalancePayment: %v", err)
	}
	params := h.gateway.last(t)
	if got := *params.LineItems[0].PriceData.UnitAmount; got != 22500 {
		t.Fatalf("unit amount = %d, want 22500", got)
	}
	if params.Metadata["paymentType"] != "balance" || params.Metadata["depositAmount"] != "225" {
		t.Fatalf("metadata = %v", params.Metadata)
	}
	if got := *params.SuccessURL; got != "https://tours.example.com/account/bookings/"+b.ID+"?payment=success" {
		t.Errorf("success url = %q", got)
	}

	payload, sig := completedEvent(t, "cs_balance", "paid", params.Metadata)
	outcome, err := h.svc.HandleWebhook(context.Background(), payload, sig)
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("outcome=%q err=%v", outcome, err)
	}

	updated := h.bookings.get(b.ID)
	if updated.AmountPaid != 300 || updated.TotalAmount != 300 {
		t.Fatalf("booking after balance = %+v", updated)
	}
	if _, err := h.svc.RequestBalancePayment(context.Background(), b.ID, 1, customer); !IsValidation(err) {
		t.Fatalf("fully paid booking should reject further payments, got %v", err)
	}
}

func TestShortRef(t *testing.T) {
	tests := map[string]string{
		"6f1c2d3e-aaaa-bbbb-cccc-0123453f9a1c": "OT-3F9A1C",
		"ab-c":                                 "OT-ABC",
		"":                                     "OT-",
	}
	for id, want := range tests {
		if got := ShortRef(id); got != want {
			t.Errorf("ShortRef(%q) = %q, want %q", id, got, want)
		}
	}
}
