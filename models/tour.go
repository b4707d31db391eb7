package models

import "time"

// PricingMode says whether a tour's price is charged per guest or once per booking.
type PricingMode string

const (
	PricingPerTour   PricingMode = "PER_TOUR"
	PricingPerPerson PricingMode = "PER_PERSON"
)

// ChargeType says how an add-on option is charged.
type ChargeType string

const (
	ChargePerTour   ChargeType = "PER_TOUR"
	ChargePerPerson ChargeType = "PER_PERSON"
)

// Tour is a catalogue entry. ID and Slug never change once created.
type Tour struct {
	ID           string      `bson:"id" json:"id"`
	Slug         string      `bson:"slug" json:"slug"`
	Title        string      `bson:"title" json:"title"`
	Summary      string      `bson:"summary,omitempty" json:"summary,omitempty"`
	Price        int64       `bson:"price" json:"price"`             // Whole pounds.
	PricingMode  PricingMode `bson:"pricingMode" json:"pricingMode"` // PER_PERSON or PER_TOUR
	Duration     string      `bson:"duration,omitempty" json:"duration,omitempty"`
	MaxGroupSize int         `bson:"maxGroupSize" json:"maxGroupSize"` // 0 means no limit
	IsActive     bool        `bson:"isActive" json:"isActive"`
	IsFeatured   bool        `bson:"isFeatured" json:"isFeatured"`
	CreatedAt    time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// ExtraOption is an add-on a customer may select when booking a tour.
type ExtraOption struct {
	ID          string     `bson:"id" json:"id"`
	Name        string     `bson:"name" json:"name"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Price       int64      `bson:"price" json:"price"`
	ChargeType  ChargeType `bson:"chargeType" json:"chargeType"`
	IsActive    bool       `bson:"isActive" json:"isActive"`
}

// TourExtraOption links a tour to an option it offers.
type TourExtraOption struct {
	TourID        string `bson:"tourId" json:"tourId"`
	ExtraOptionID string `bson:"extraOptionId" json:"extraOptionId"`
}

// TourListing bundles a tour with the options a customer may currently pick for it.
type TourListing struct {
	Tour    Tour          `json:"tour"`
	Options []ExtraOption `json:"options"`
}
