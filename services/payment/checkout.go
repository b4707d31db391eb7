package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"outlandish/metrics"
	"outlandish/models"
	"outlandish/services/pricing"

	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount = errors.New("checkout amount must be positive")
	ErrNoSession     = errors.New("payment provider returned no checkout session")
	ErrNoSessionURL  = errors.New("payment provider returned a checkout session without a url")
)

// CheckoutContext is everything about the booking the checkout page and the webhook need.
// ProductName and Description are shown on the hosted payment page.
type CheckoutContext struct {
	Metadata    CheckoutMetadata
	ProductName string
	Description string
}

// SessionSnapshot is a retrieved checkout session reduced to what the completion page shows.
type SessionSnapshot struct {
	ID            string
	PaymentStatus string
	AmountTotal   int64
	Metadata      CheckoutMetadata
	MetadataErr   error
}

// CheckoutBuilder creates hosted checkout sessions for deposits and balance payments.
type CheckoutBuilder struct {
	gateway  Gateway
	currency string
	siteURL  string
	logger   *zap.Logger
}

func NewCheckoutBuilder(gateway Gateway, currency, siteURL string, logger *zap.Logger) *CheckoutBuilder {
	if currency == "" {
		currency = "gbp"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutBuilder{
		gateway:  gateway,
		currency: strings.ToLower(currency),
		siteURL:  strings.TrimRight(siteURL, "/"),
		logger:   logger,
	}
}

// CreateCheckoutSession opens a session charging amount whole pounds. The metadata carries
// the charged amount under depositAmount for both kinds.
func (b *CheckoutBuilder) CreateCheckoutSession(ctx context.Context, kind models.PaymentType, amount int64, cc CheckoutContext) (*models.CheckoutSession, error) {
	if amount <= 0 {
		metrics.IncCheckoutSession(string(kind), "invalid")
		return nil, ErrInvalidAmount
	}

	md := cc.Metadata
	md.PaymentType = kind
	md.DepositAmount = amount
	encoded, err := md.Encode()
	if err != nil {
		metrics.IncCheckoutSession(string(kind), "invalid")
		return nil, err
	}

	successURL, cancelURL := b.redirectURLs(kind, md)
	lineItem := &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(1),
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(b.currency),
			UnitAmount: stripe.Int64(pricing.ToMinorUnits(amount)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(productName(cc.ProductName)),
			},
		},
	}
	if cc.Description != "" {
		lineItem.PriceData.ProductData.Description = stripe.String(truncate(cc.Description, maxMetadataValueLen))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{lineItem},
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
		ClientReferenceID:  stripe.String(md.BookingID),
	}
	if md.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(md.CustomerEmail)
	}
	params.Context = ctx
	params.Metadata = encoded

	session, err := b.gateway.NewCheckoutSession(params)
	if err != nil {
		metrics.IncCheckoutSession(string(kind), "provider_error")
		b.logger.Error("Failed to create checkout session",
			zap.String("bookingId", md.BookingID),
			zap.String("paymentType", string(kind)),
			zap.Error(err))
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if session == nil {
		metrics.IncCheckoutSession(string(kind), "provider_error")
		return nil, ErrNoSession
	}
	if session.URL == "" {
		metrics.IncCheckoutSession(string(kind), "provider_error")
		return nil, ErrNoSessionURL
	}

	metrics.IncCheckoutSession(string(kind), "created")
	b.logger.Info("Checkout session created",
		zap.String("sessionId", session.ID),
		zap.String("bookingId", md.BookingID),
		zap.String("paymentType", string(kind)),
		zap.Int64("amount", amount))
	return &models.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// LookupSession retrieves a session by id. Metadata that fails to decode is reported in
// MetadataErr rather than failing the lookup.
func (b *CheckoutBuilder) LookupSession(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	session, err := b.gateway.GetCheckoutSession(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}
	if session == nil {
		return nil, ErrNoSession
	}
	snap := &SessionSnapshot{
		ID:            session.ID,
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
	}
	snap.Metadata, snap.MetadataErr = DecodeCheckoutMetadata(session.Metadata)
	return snap, nil
}

func (b *CheckoutBuilder) redirectURLs(kind models.PaymentType, md CheckoutMetadata) (string, string) {
	if kind == models.PaymentBalance {
		base := fmt.Sprintf("%s/account/bookings/%s", b.siteURL, url.PathEscape(md.BookingID))
		return base + "?payment=success", base + "?payment=cancelled"
	}
	// Stripe substitutes the placeholder itself, so it must stay unescaped.
	success := b.siteURL + "/booking/complete?session_id={CHECKOUT_SESSION_ID}"
	cancel := fmt.Sprintf("%s/tours/%s/book?cancelled=1", b.siteURL, url.PathEscape(md.Slug))
	return success, cancel
}

func productName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Tour booking"
	}
	return name
}
