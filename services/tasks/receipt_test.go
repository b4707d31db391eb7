package tasks

import (
	"testing"

	"outlandish/models"
)

func TestReceiptTaskRoundTrip(t *testing.T) {
	in := models.ReceiptPayload{BookingID: "bk-1", SessionID: "cs_1", Amount: 75}
	task, opts, err := NewReceiptTask(in)
	if err != nil {
		t.Fatalf("NewReceiptTask: %v", err)
	}
	if task.Type() != TypePaymentReceipt {
		t.Fatalf("type = %q", task.Type())
	}
	if len(opts) != 3 {
		t.Fatalf("options = %d, want 3", len(opts))
	}

	out, err := ParseReceiptTask(task)
	if err != nil {
		t.Fatalf("ParseReceiptTask: %v", err)
	}
	if out != in {
		t.Fatalf("payload = %+v, want %+v", out, in)
	}
}
