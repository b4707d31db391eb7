package payment

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"outlandish/models"

	"github.com/go-playground/validator/v10"
)

// Metadata keys carried on every checkout session. Balance top-ups reuse KeyDepositAmount
// for the charged amount so the webhook can treat every payment the same way.
const (
	KeyPaymentType       = "paymentType"
	KeyBookingID         = "bookingId"
	KeyUserID            = "userId"
	KeyTourID            = "tourId"
	KeyTourTitle         = "tourTitle"
	KeySlug              = "slug"
	KeyStartDate         = "startDate"
	KeyGuests            = "guests"
	KeyCustomerName      = "customerName"
	KeyCustomerEmail     = "customerEmail"
	KeyBaseTotal         = "baseTotal"
	KeyExtrasTotal       = "extrasTotal"
	KeyTotalAmount       = "totalAmount"
	KeyDepositAmount     = "depositAmount"
	KeyDepositPercent    = "depositPercent"
	KeySelectedOptionIDs = "selectedExtraOptionIds"
	KeyNotes             = "notes"
)

// Stripe rejects metadata values longer than this.
const maxMetadataValueLen = 500

// CheckoutMetadata is the typed form of a checkout session's metadata.
type CheckoutMetadata struct {
	PaymentType       models.PaymentType `meta:"paymentType" validate:"required,oneof=deposit balance"`
	BookingID         string             `meta:"bookingId" validate:"required"`
	UserID            string             `meta:"userId" validate:"required"`
	TourID            string             `meta:"tourId" validate:"required_if=PaymentType deposit"`
	TourTitle         string             `meta:"tourTitle"`
	Slug              string             `meta:"slug"`
	StartDate         string             `meta:"startDate"`
	Guests            int                `meta:"guests" validate:"required_if=PaymentType deposit,gte=0"`
	CustomerName      string             `meta:"customerName"`
	CustomerEmail     string             `meta:"customerEmail" validate:"omitempty,email"`
	BaseTotal         int64              `meta:"baseTotal" validate:"gte=0"`
	ExtrasTotal       int64              `meta:"extrasTotal" validate:"gte=0"`
	TotalAmount       int64              `meta:"totalAmount" validate:"required_if=PaymentType deposit,gte=0"`
	DepositAmount     int64              `meta:"depositAmount" validate:"gt=0"`
	DepositPercent    int64              `meta:"depositPercent" validate:"gte=0,lt=100"`
	SelectedOptionIDs []string           `meta:"selectedExtraOptionIds"`
	Notes             string             `meta:"notes"`
}

// MetadataError names the metadata key that failed to encode or decode.
type MetadataError struct {
	Key    string
	Reason string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("checkout metadata %s: %s", e.Key, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("meta")
	})
	return v
}

// Validate checks the required-field policy: bookingId, userId, paymentType and a positive
// charged amount always; tourId, guests and totalAmount as well for deposits.
func (m CheckoutMetadata) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return &MetadataError{Key: fe.Field(), Reason: fmt.Sprintf("failed %q check", fe.Tag())}
	}
	return err
}

// Encode validates the metadata and renders it as Stripe's string map. Empty optional
// values are left out and long free text is truncated to Stripe's limit.
func (m CheckoutMetadata) Encode() (map[string]string, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	out := map[string]string{
		KeyPaymentType:   string(m.PaymentType),
		KeyBookingID:     m.BookingID,
		KeyUserID:        m.UserID,
		KeyDepositAmount: formatInt(m.DepositAmount),
	}
	putString := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = truncate(value, maxMetadataValueLen)
		}
	}
	putString(KeyTourID, m.TourID)
	putString(KeyTourTitle, m.TourTitle)
	putString(KeySlug, m.Slug)
	putString(KeyStartDate, m.StartDate)
	putString(KeyCustomerName, m.CustomerName)
	putString(KeyCustomerEmail, m.CustomerEmail)
	putString(KeyNotes, m.Notes)
	putString(KeySelectedOptionIDs, strings.Join(m.SelectedOptionIDs, ","))

	if m.PaymentType == models.PaymentDeposit {
		out[KeyGuests] = strconv.Itoa(m.Guests)
		out[KeyBaseTotal] = formatInt(m.BaseTotal)
		out[KeyExtrasTotal] = formatInt(m.ExtrasTotal)
		out[KeyTotalAmount] = formatInt(m.TotalAmount)
		out[KeyDepositPercent] = formatInt(m.DepositPercent)
	}
	return out, nil
}

// DecodeCheckoutMetadata parses Stripe's string map back into CheckoutMetadata and applies
// the same validation as Encode. Sessions created before paymentType existed are deposits.
func DecodeCheckoutMetadata(md map[string]string) (CheckoutMetadata, error) {
	var m CheckoutMetadata
	get := func(key string) string { return strings.TrimSpace(md[key]) }

	m.PaymentType = models.PaymentType(get(KeyPaymentType))
	if m.PaymentType == "" {
		m.PaymentType = models.PaymentDeposit
	}
	m.BookingID = get(KeyBookingID)
	m.UserID = get(KeyUserID)
	m.TourID = get(KeyTourID)
	m.TourTitle = get(KeyTourTitle)
	m.Slug = get(KeySlug)
	m.StartDate = get(KeyStartDate)
	m.CustomerName = get(KeyCustomerName)
	m.CustomerEmail = get(KeyCustomerEmail)
	m.Notes = get(KeyNotes)

	for _, id := range strings.Split(get(KeySelectedOptionIDs), ",") {
		if id = strings.TrimSpace(id); id != "" {
			m.SelectedOptionIDs = append(m.SelectedOptionIDs, id)
		}
	}

	var err error
	ints := []struct {
		key string
		dst *int64
	}{
		{KeyBaseTotal, &m.BaseTotal},
		{KeyExtrasTotal, &m.ExtrasTotal},
		{KeyTotalAmount, &m.TotalAmount},
		{KeyDepositAmount, &m.DepositAmount},
		{KeyDepositPercent, &m.DepositPercent},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(f.key, get(f.key)); err != nil {
			return CheckoutMetadata{}, err
		}
	}
	guests, err := parseInt(KeyGuests, get(KeyGuests))
	if err != nil {
		return CheckoutMetadata{}, err
	}
	m.Guests = int(guests)

	if err := m.Validate(); err != nil {
		return CheckoutMetadata{}, err
	}
	return m, nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// parseInt accepts whole numbers, including ones written as "75.0". Empty means zero.
func parseInt(key, raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &MetadataError{Key: key, Reason: fmt.Sprintf("%q is not a whole number", raw)}
	}
	if f >= 1<<63 || f < -(1<<63) {
		return 0, &MetadataError{Key: key, Reason: fmt.Sprintf("%q is out of range", raw)}
	}
	return int64(f), nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
