package models

import "time"

// PaymentType tells a deposit checkout apart from a balance top-up.
type PaymentType string

const (
	PaymentDeposit PaymentType = "deposit"
	PaymentBalance PaymentType = "balance"
)

// ProcessedPayment records a checkout session whose amount has been added to a booking.
// The session id is unique, which is what makes webhook redelivery harmless.
type ProcessedPayment struct {
	SessionID   string      `bson:"sessionId" json:"sessionId"`
	BookingID   string      `bson:"bookingId" json:"bookingId"`
	Amount      int64       `bson:"amount" json:"amount"`
	PaymentType PaymentType `bson:"paymentType" json:"paymentType"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
}

// PaymentApplication is one confirmed payment to be added to a booking's ledger.
// Booking carries the fields used only when the booking does not exist yet; it is nil for
// balance payments, which must never create a booking.
type PaymentApplication struct {
	SessionID   string
	BookingID   string
	Amount      int64
	PaymentType PaymentType
	Booking     *Booking
}

// CheckoutSession is the provider-side payment page returned to the caller.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// BookingStart is returned once a deposit checkout has been created.
type BookingStart struct {
	BookingID     string `json:"bookingId"`
	CheckoutURL   string `json:"checkoutUrl"`
	BaseTotal     int64  `json:"baseTotal"`
	ExtrasTotal   int64  `json:"extrasTotal"`
	TotalAmount   int64  `json:"totalAmount"`
	DepositAmount int64  `json:"depositAmount"`
}

// CompletionStatus is what the checkout success page shows. Booking is nil while the
// webhook has not been processed yet.
type CompletionStatus struct {
	SessionID     string   `json:"sessionId"`
	State         string   `json:"state"` // "recorded" or "pending"
	BookingID     string   `json:"bookingId,omitempty"`
	TourTitle     string   `json:"tourTitle,omitempty"`
	DepositAmount int64    `json:"depositAmount,omitempty"`
	TotalAmount   int64    `json:"totalAmount,omitempty"`
	Booking       *Booking `json:"booking,omitempty"`
}

// ReceiptPayload is the background task payload for payment receipt emails.
type ReceiptPayload struct {
	BookingID string `json:"bookingId"`
	SessionID string `json:"sessionId"`
	Amount    int64  `json:"amount"`
}
