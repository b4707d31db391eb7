package models

import "time"

// Guide is a staff profile. Bookings point at it through a nullable guideId.
type Guide struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"userId,omitempty" json:"userId,omitempty"` // Linked login, if any.
	FirstName string    `bson:"firstName" json:"firstName"`
	LastName  string    `bson:"lastName" json:"lastName"`
	Email     string    `bson:"email" json:"email"`
	Mobile    string    `bson:"mobile,omitempty" json:"mobile,omitempty"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty"`
	PhotoURL  string    `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// GuideWithCount is a guide plus the number of bookings assigned to them.
type GuideWithCount struct {
	Guide        Guide `json:"guide"`
	BookingCount int   `json:"bookingCount"`
}
