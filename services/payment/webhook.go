package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const EventCheckoutSessionCompleted = "checkout.session.completed"

var (
	ErrWebhookNotConfigured = errors.New("webhook signing secret is not configured")
	ErrMissingSignature     = errors.New("missing Stripe-Signature header")
)

// WebhookVerifier checks Stripe-Signature headers against the endpoint's signing secret.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// ConstructEvent verifies the signature and timestamp tolerance, then parses the event.
func (v *WebhookVerifier) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, ErrWebhookNotConfigured
	}
	if signature == "" {
		return stripe.Event{}, ErrMissingSignature
	}
	return webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// CompletedSession returns the checkout session carried by a checkout.session.completed
// event. ok is false for every other event type.
func CompletedSession(event stripe.Event) (session *stripe.CheckoutSession, ok bool, err error) {
	if string(event.Type) != EventCheckoutSessionCompleted {
		return nil, false, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, true, errors.New("checkout.session.completed event has no data")
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, true, fmt.Errorf("decode checkout session: %w", err)
	}
	return &s, true, nil
}

// IsSettled reports whether the session's funds are secured.
func IsSettled(session *stripe.CheckoutSession) bool {
	switch session.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return true
	}
	return false
}
