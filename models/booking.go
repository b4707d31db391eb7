package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed       BookingStatus = "confirmed"
	BookingCancelRequested BookingStatus = "cancel_requested"
	BookingCancelled       BookingStatus = "cancelled"
)

// Booking is created once, by the payment webhook, and only ever updated afterwards.
type Booking struct {
	ID             string        `bson:"id" json:"id"` // Generated before checkout and carried in the session metadata.
	UserID         string        `bson:"userId" json:"userId"`
	TourID         string        `bson:"tourId" json:"tourId"`
	GuideID        *string       `bson:"guideId" json:"guideId"`
	StartDate      *time.Time    `bson:"startDate" json:"startDate"`
	Guests         int           `bson:"guests" json:"guests"`
	TotalAmount    int64         `bson:"totalAmount" json:"totalAmount"`
	AmountPaid     int64         `bson:"amountPaid" json:"amountPaid"`
	Status         BookingStatus `bson:"status" json:"status"`
	AdminNotes     string        `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	PickupLocation string        `bson:"pickupLocation,omitempty" json:"pickupLocation,omitempty"`
	CustomerName   string        `bson:"customerName,omitempty" json:"customerName,omitempty"`
	CustomerEmail  string        `bson:"customerEmail,omitempty" json:"customerEmail,omitempty"`
	ExtraOptionIDs []string      `bson:"extraOptionIds,omitempty" json:"extraOptionIds,omitempty"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// BalanceRemaining is the unpaid part of the booking, never negative.
func (b *Booking) BalanceRemaining() int64 {
	if rem := b.TotalAmount - b.AmountPaid; rem > 0 {
		return rem
	}
	return 0
}

// BookingSummary is what the customer and guide dashboards list.
type BookingSummary struct {
	Booking   Booking `json:"booking"`
	TourTitle string  `json:"tourTitle"`
	ShortRef  string  `json:"shortRef"`
}

// AdminBookingSummary is a row of the staff bookings list.
type AdminBookingSummary struct {
	BookingSummary
	Customer  *User  `json:"customer,omitempty"`
	GuideName string `json:"guideName,omitempty"`
}

// AccountBookings splits a customer's bookings around "now".
type AccountBookings struct {
	Upcoming []BookingSummary `json:"upcoming"`
	Past     []BookingSummary `json:"past"`
}

// BalanceView is the account page's view of a single booking.
type BalanceView struct {
	Booking          Booking `json:"booking"`
	Tour             *Tour   `json:"tour,omitempty"`
	ShortRef         string  `json:"shortRef"`
	BalanceRemaining int64   `json:"balanceRemaining"`
	MinPayment       int64   `json:"minPayment"`
}
