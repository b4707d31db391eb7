package notification

import (
	"strings"
	"testing"
	"time"
)

func TestRenderReceiptWithBalance(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	subject, text, htmlBody := RenderReceipt(Receipt{
		ToName:      "Ada Lovelace",
		ShortRef:    "OT-3F9A1C",
		TourTitle:   "Giant's Causeway",
		StartDate:   &start,
		Amount:      75,
		AmountPaid:  75,
		TotalAmount: 300,
	})

	if subject != "Payment received for booking OT-3F9A1C" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"Hi Ada,", "£75", "Sunday 1 June 2025", "Remaining balance: £225"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(htmlBody, "Giant&#39;s Causeway") {
		t.Errorf("html body should escape the title: %s", htmlBody)
	}
}

func TestRenderReceiptFullyPaid(t *testing.T) {
	_, text, _ := RenderReceipt(Receipt{ShortRef: "OT-1", TourTitle: "Walk", Amount: 225, AmountPaid: 300, TotalAmount: 300})
	if !strings.Contains(text, "fully paid") || !strings.Contains(text, "Hi there,") {
		t.Errorf("text = %s", text)
	}
	if !strings.Contains(text, "date to be confirmed") {
		t.Errorf("missing undated wording: %s", text)
	}
}
